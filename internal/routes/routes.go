package routes

import (
	"context"
	"net/http"

	"github.com/goalbuddy/server/internal/app"
	"github.com/goalbuddy/server/internal/handler"
	"github.com/goalbuddy/server/internal/middleware"
)

// SetupRoutes builds the API handler. Background work started for it, such
// as rate limiter sweeps, stops when ctx is done.
func SetupRoutes(ctx context.Context, app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB, app.Cfg)
	auth := handler.NewAuthHandler(app.AuthService, app.Cfg)
	goal := handler.NewGoalHandler(app.GoalService, app.Cfg)
	share := handler.NewShareHandler(app.ShareService, app.Cfg)
	collab := handler.NewCollabHandler(app.CollabService, app.Cfg)
	shared := handler.NewSharedHandler(app.SharedGoalService, app.Cfg)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /health/db", health.Database)

	// Auth (rate limited per client IP)
	limitAuth := middleware.RateLimit(
		middleware.NewRateLimiter(ctx, app.Cfg.RateLimitAuth, app.Cfg.RateLimitWindow),
		middleware.ByClientIP,
	)

	mux.HandleFunc("POST /auth/signup", limitAuth(auth.Signup))
	mux.HandleFunc("POST /auth/login", limitAuth(auth.Login))

	// ============================================================================
	// PROTECTED ROUTES (bearer token)
	// ============================================================================

	requireAuth := middleware.RequireAuth(app.AuthService)

	// Writes are rate limited per user. limitWrites runs inside requireAuth.
	limitWrites := middleware.RateLimit(
		middleware.NewRateLimiter(ctx, app.Cfg.RateLimitWrite, app.Cfg.RateLimitWindow),
		middleware.ByUser,
	)

	mux.HandleFunc("GET /auth/me", requireAuth(auth.Me))

	// Goals
	mux.HandleFunc("GET /goals", requireAuth(goal.List))
	mux.HandleFunc("POST /goals", requireAuth(limitWrites(goal.Create)))
	mux.HandleFunc("PUT /goals/{id}", requireAuth(limitWrites(goal.Update)))
	mux.HandleFunc("DELETE /goals/{id}", requireAuth(limitWrites(goal.Delete)))

	// Sharing
	mux.HandleFunc("POST /goals/{goalId}/share", requireAuth(limitWrites(share.Share)))
	mux.HandleFunc("GET /goals/{goalId}/shares", requireAuth(share.List))
	mux.HandleFunc("DELETE /goals/{goalId}/share/{buddyId}", requireAuth(limitWrites(share.Revoke)))
	mux.HandleFunc("GET /owners", requireAuth(share.Owners))
	mux.HandleFunc("GET /goals/shared", requireAuth(shared.List))

	// Collaboration feed
	mux.HandleFunc("GET /goals/{goalId}/checkins", requireAuth(collab.Checkins))
	mux.HandleFunc("POST /goals/{goalId}/checkins", requireAuth(limitWrites(collab.AddCheckin)))
	mux.HandleFunc("GET /goals/{goalId}/messages", requireAuth(collab.Messages))
	mux.HandleFunc("POST /goals/{goalId}/messages", requireAuth(limitWrites(collab.AddMessage)))

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.RequestLogging,
		middleware.Recover,
	)
}
