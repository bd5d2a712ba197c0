package handler

import (
	"net/http"

	"github.com/goalbuddy/server/internal/config"
	"github.com/goalbuddy/server/internal/ctxkeys"
	"github.com/goalbuddy/server/internal/service"
)

type createGoalRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	TargetDate  *string `json:"target_date" validate:"omitempty,datetime=2006-01-02"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	Tags        *string `json:"tags" validate:"omitempty,max=500"`
	Color       *string `json:"color" validate:"omitempty,max=32"`
}

type updateGoalRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	TargetDate  *string `json:"target_date" validate:"omitempty,datetime=2006-01-02"`
	Status      *string `json:"status" validate:"omitempty,oneof=in_progress completed abandoned"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	Tags        *string `json:"tags" validate:"omitempty,max=500"`
	Color       *string `json:"color" validate:"omitempty,max=32"`
}

type GoalHandler struct {
	responder
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService, cfg *config.Config) *GoalHandler {
	return &GoalHandler{
		responder:   responder{exposeErrors: cfg.ExposeErrors()},
		goalService: goalService,
	}
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	goals, err := h.goalService.Goals(r.Context(), user.ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req createGoalRequest
	if !decode(w, r, &req) {
		return
	}

	goal, err := h.goalService.Create(r.Context(), user.ID, service.GoalInput{
		Title:       req.Title,
		Description: req.Description,
		TargetDate:  req.TargetDate,
		Category:    req.Category,
		Tags:        req.Tags,
		Color:       req.Color,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	goalID, err := pathID(r, "id")
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	var req updateGoalRequest
	if !decode(w, r, &req) {
		return
	}

	goal, err := h.goalService.Update(r.Context(), user.ID, goalID, service.GoalPatch{
		Title:       req.Title,
		Description: req.Description,
		TargetDate:  req.TargetDate,
		Status:      req.Status,
		Category:    req.Category,
		Tags:        req.Tags,
		Color:       req.Color,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	goalID, err := pathID(r, "id")
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	err = h.goalService.Delete(r.Context(), user.ID, goalID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": goalID})
}
