package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/goalbuddy/server/internal/config"
	"github.com/goalbuddy/server/internal/ctxkeys"
	"github.com/goalbuddy/server/internal/service"
)

type SharedHandler struct {
	responder
	sharedGoalService *service.SharedGoalService
}

func NewSharedHandler(sharedGoalService *service.SharedGoalService, cfg *config.Config) *SharedHandler {
	return &SharedHandler{
		responder:         responder{exposeErrors: cfg.ExposeErrors()},
		sharedGoalService: sharedGoalService,
	}
}

// List serves GET /goals/shared?page=&pageSize=&q=&sort=&category=&status=&ownerId=
func (h *SharedHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	values := r.URL.Query()

	query := service.SharedQuery{
		Q:        values.Get("q"),
		Sort:     values.Get("sort"),
		Category: values.Get("category"),
		Status:   values.Get("status"),
	}

	var err error
	query.Page, err = queryInt(values.Get("page"), "page")
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	query.PageSize, err = queryInt(values.Get("pageSize"), "pageSize")
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if raw := values.Get("ownerId"); raw != "" {
		query.OwnerID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || query.OwnerID <= 0 {
			h.serviceError(w, r, fmt.Errorf("%w: invalid ownerId", service.ErrInvalidOperation))
			return
		}
	}

	page, err := h.sharedGoalService.List(r.Context(), user.ID, query)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// queryInt parses an optional positive integer; empty means zero.
func queryInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", service.ErrInvalidOperation, name)
	}
	return n, nil
}
