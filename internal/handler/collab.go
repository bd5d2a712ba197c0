package handler

import (
	"net/http"

	"github.com/goalbuddy/server/internal/config"
	"github.com/goalbuddy/server/internal/ctxkeys"
	"github.com/goalbuddy/server/internal/service"
)

// Post bodies carry no validate tags: CollabService checks the fields after
// the caller's write access, so a caller without access always gets 403.
type checkinRequest struct {
	Status   string  `json:"status"`
	Progress *int    `json:"progress"`
	Note     *string `json:"note"`
}

type messageRequest struct {
	Body string `json:"body"`
}

type CollabHandler struct {
	responder
	collabService *service.CollabService
}

func NewCollabHandler(collabService *service.CollabService, cfg *config.Config) *CollabHandler {
	return &CollabHandler{
		responder:     responder{exposeErrors: cfg.ExposeErrors()},
		collabService: collabService,
	}
}

func (h *CollabHandler) Checkins(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	goalID, err := pathID(r, "goalId")
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	checkins, err := h.collabService.ListCheckins(r.Context(), user.ID, goalID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, checkins)
}

func (h *CollabHandler) AddCheckin(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	goalID, err := pathID(r, "goalId")
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	var req checkinRequest
	if !decode(w, r, &req) {
		return
	}

	checkin, err := h.collabService.AddCheckin(r.Context(), user.ID, goalID, service.CheckinInput{
		Status:   req.Status,
		Progress: req.Progress,
		Note:     req.Note,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, checkin)
}

func (h *CollabHandler) Messages(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	goalID, err := pathID(r, "goalId")
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	messages, err := h.collabService.ListMessages(r.Context(), user.ID, goalID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

func (h *CollabHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	goalID, err := pathID(r, "goalId")
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	var req messageRequest
	if !decode(w, r, &req) {
		return
	}

	message, err := h.collabService.AddMessage(r.Context(), user.ID, goalID, req.Body)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, message)
}
