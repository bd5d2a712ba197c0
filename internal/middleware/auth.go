package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goalbuddy/server/internal/ctxkeys"
	"github.com/goalbuddy/server/internal/service"
)

// RequireAuth accepts only requests carrying a valid bearer token for an
// existing user, and puts that user in the request context.
func RequireAuth(authService *service.AuthService) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}

			user, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					writeError(w, http.StatusUnauthorized, "Invalid or expired token")
					return
				}
				slog.Error("failed to authenticate request", "error", err, "path", r.URL.Path)
				writeError(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}

			// Security: Remove password hash from context
			user.PasswordHash = ""

			next(w, r.WithContext(ctxkeys.WithUser(r.Context(), user)))
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
