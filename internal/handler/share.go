package handler

import (
	"net/http"

	"github.com/goalbuddy/server/internal/config"
	"github.com/goalbuddy/server/internal/ctxkeys"
	"github.com/goalbuddy/server/internal/service"
)

type shareRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Permissions string `json:"permissions" validate:"omitempty,oneof=view checkin"`
}

type ShareHandler struct {
	responder
	shareService *service.ShareService
}

func NewShareHandler(shareService *service.ShareService, cfg *config.Config) *ShareHandler {
	return &ShareHandler{
		responder:    responder{exposeErrors: cfg.ExposeErrors()},
		shareService: shareService,
	}
}

func (h *ShareHandler) Share(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	goalID, err := pathID(r, "goalId")
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	var req shareRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.shareService.Share(r.Context(), user.ID, goalID, req.Email, req.Permissions)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyShared {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

func (h *ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	goalID, err := pathID(r, "goalId")
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	shares, err := h.shareService.ListShares(r.Context(), user.ID, goalID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, shares)
}

func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	goalID, err := pathID(r, "goalId")
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	buddyID, err := pathID(r, "buddyId")
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	result, err := h.shareService.Revoke(r.Context(), user.ID, goalID, buddyID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ShareHandler) Owners(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	owners, err := h.shareService.Owners(r.Context(), user.ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, owners)
}
