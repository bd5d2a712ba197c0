package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/goalbuddy/server/internal/config"
)

type HealthHandler struct {
	db  *sqlx.DB
	cfg *config.Config
}

func NewHealthHandler(db *sqlx.DB, cfg *config.Config) *HealthHandler {
	return &HealthHandler{db: db, cfg: cfg}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"environment": h.cfg.AppEnv,
		"port":        h.cfg.Port,
	})
}

func (h *HealthHandler) Database(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	err := h.db.PingContext(ctx)
	if err != nil {
		slog.Error("database health check failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"status": "error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"driver": h.db.DriverName(),
	})
}
