package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalbuddy/server/internal/app"
	"github.com/goalbuddy/server/internal/config"
)

func newTestHandler(t *testing.T, configure func(*config.Config)) http.Handler {
	t.Helper()

	cfg := &config.Config{
		AppName:         "GoalBuddy",
		AppEnv:          "test",
		AppURL:          "http://goalbuddy.test",
		Port:            "8090",
		DBDriver:        "sqlite",
		DBConnection:    filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite",
		JWTSecret:       "test-secret",
		JWTExpiry:       time.Hour,
		RateLimitAuth:   100,
		RateLimitWrite:  100,
		RateLimitWindow: time.Minute,
	}
	if configure != nil {
		configure(cfg)
	}

	a, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	return SetupRoutes(t.Context(), a)
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type userBody struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// register signs up and logs in, returning the token and user id.
func register(t *testing.T, h http.Handler, email string) (string, int64) {
	t.Helper()

	creds := map[string]string{"email": email, "password": "password123"}

	rec := do(t, h, http.MethodPost, "/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/auth/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	login := decodeBody[struct {
		Token string   `json:"token"`
		User  userBody `json:"user"`
	}](t, rec)
	require.NotEmpty(t, login.Token)
	return login.Token, login.User.ID
}

func createGoal(t *testing.T, h http.Handler, token string, body map[string]any) int64 {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/goals", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[struct {
		ID int64 `json:"id"`
	}](t, rec).ID
}

func TestAuthFlow(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := do(t, h, http.MethodPost, "/auth/signup", "", map[string]string{"email": "Ann@Example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	signup := decodeBody[struct {
		Message string   `json:"message"`
		User    userBody `json:"user"`
	}](t, rec)
	assert.Equal(t, "User created successfully", signup.Message)
	assert.Equal(t, "ann@example.com", signup.User.Email)

	rec = do(t, h, http.MethodPost, "/auth/signup", "", map[string]string{"email": "ann@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/auth/login", "", map[string]string{"email": "ann@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decodeBody[map[string]any](t, rec)["message"])

	token, id := register(t, h, "bob@example.com")

	rec = do(t, h, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody[struct {
		User userBody `json:"user"`
	}](t, rec)
	assert.Equal(t, id, me.User.ID)
	assert.Equal(t, "bob@example.com", me.User.Email)

	rec = do(t, h, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignupValidation(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := do(t, h, http.MethodPost, "/auth/signup", "", map[string]string{"email": "nope"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody[struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}](t, rec)
	assert.Equal(t, "Validation failed", body.Message)
	assert.Equal(t, "must be a valid email address", body.Errors["email"])
	assert.Equal(t, "is required", body.Errors["password"])

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString("{not json"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON body", decodeBody[map[string]any](t, rec)["message"])
}

func TestGoalRoutes(t *testing.T) {
	h := newTestHandler(t, nil)

	owner, _ := register(t, h, "owner@example.com")
	other, _ := register(t, h, "other@example.com")

	goalID := createGoal(t, h, owner, map[string]any{"title": "Run 10k", "target_date": "2030-05-01"})

	rec := do(t, h, http.MethodPost, "/goals", owner, map[string]any{"title": "Bad", "target_date": "May 1st"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/goals", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 1)

	rec = do(t, h, http.MethodGet, "/goals", other, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	path := fmt.Sprintf("/goals/%d", goalID)

	rec = do(t, h, http.MethodPut, path, owner, map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", decodeBody[map[string]any](t, rec)["status"])

	rec = do(t, h, http.MethodPut, path, owner, map[string]any{"status": "paused"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, path, other, map[string]any{"title": "Mine now"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/goals/abc", owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, path, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	deleted := decodeBody[map[string]any](t, rec)
	assert.Equal(t, true, deleted["ok"])
	assert.EqualValues(t, goalID, deleted["id"])
}

func TestSharingAndCollaboration(t *testing.T) {
	h := newTestHandler(t, nil)

	owner, ownerID := register(t, h, "owner@example.com")
	buddy, buddyID := register(t, h, "buddy@example.com")
	stranger, _ := register(t, h, "stranger@example.com")

	goalID := createGoal(t, h, owner, map[string]any{"title": "Write a novel", "category": "creative"})
	goalPath := fmt.Sprintf("/goals/%d", goalID)

	type shareBody struct {
		Share struct {
			BuddyID     int64  `json:"buddy_id"`
			Permissions string `json:"permissions"`
		} `json:"share"`
		AlreadyShared bool `json:"alreadyShared"`
		EmailSent     bool `json:"emailSent"`
	}

	// Share with view permission first.
	rec := do(t, h, http.MethodPost, goalPath+"/share", owner, map[string]string{"email": "Buddy@Example.com", "permissions": "view"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[shareBody](t, rec)
	assert.Equal(t, buddyID, created.Share.BuddyID)
	assert.Equal(t, "view", created.Share.Permissions)
	assert.False(t, created.AlreadyShared)
	assert.False(t, created.EmailSent)

	rec = do(t, h, http.MethodPost, goalPath+"/share", owner, map[string]string{"email": "buddy@example.com", "permissions": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, goalPath+"/share", stranger, map[string]string{"email": "buddy@example.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPost, goalPath+"/share", owner, map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Buddy sees the goal and can read, but not post.
	rec = do(t, h, http.MethodGet, "/goals/shared", buddy, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeBody[struct {
		Data []struct {
			ID          int64  `json:"id"`
			OwnerID     int64  `json:"owner_id"`
			OwnerEmail  string `json:"owner_email"`
			Permissions string `json:"permissions"`
		} `json:"data"`
		Page       int `json:"page"`
		PageSize   int `json:"pageSize"`
		Total      int `json:"total"`
		TotalPages int `json:"totalPages"`
	}](t, rec)
	require.Len(t, page.Data, 1)
	assert.Equal(t, goalID, page.Data[0].ID)
	assert.Equal(t, ownerID, page.Data[0].OwnerID)
	assert.Equal(t, "owner@example.com", page.Data[0].OwnerEmail)
	assert.Equal(t, "view", page.Data[0].Permissions)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.TotalPages)

	rec = do(t, h, http.MethodGet, "/owners", buddy, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	owners := decodeBody[[]map[string]any](t, rec)
	require.Len(t, owners, 1)
	assert.Equal(t, "owner@example.com", owners[0]["email"])

	rec = do(t, h, http.MethodGet, goalPath+"/checkins", buddy, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, goalPath+"/checkins", buddy, map[string]any{"status": "on_track"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodGet, goalPath+"/messages", stranger, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Access is decided before the body is looked at.
	rec = do(t, h, http.MethodPost, goalPath+"/checkins", stranger, map[string]any{"progress": 500})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPost, goalPath+"/messages", stranger, map[string]any{"body": ""})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodGet, goalPath+"/shares", buddy, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Re-sharing upgrades the permission and reports the existing share.
	rec = do(t, h, http.MethodPost, goalPath+"/share", owner, map[string]string{"email": "buddy@example.com", "permissions": "checkin"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	again := decodeBody[shareBody](t, rec)
	assert.True(t, again.AlreadyShared)
	assert.Equal(t, "checkin", again.Share.Permissions)

	rec = do(t, h, http.MethodPost, goalPath+"/checkins", buddy, map[string]any{"status": "blocked", "progress": 40, "note": "stuck on chapter 3"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	checkin := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "blocked", checkin["status"])
	assert.EqualValues(t, 40, checkin["progress"])

	rec = do(t, h, http.MethodPost, goalPath+"/checkins", buddy, map[string]any{"progress": 101})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, goalPath+"/messages", buddy, map[string]any{"body": "  You got this\n"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "  You got this\n", decodeBody[map[string]any](t, rec)["body"])

	rec = do(t, h, http.MethodPost, goalPath+"/messages", buddy, map[string]any{"body": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, goalPath+"/shares", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	shares := decodeBody[[]map[string]any](t, rec)
	require.Len(t, shares, 1)
	assert.Equal(t, "buddy@example.com", shares[0]["email"])

	// Completing the goal locks the buddy out of posting.
	rec = do(t, h, http.MethodPut, goalPath, owner, map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, goalPath+"/messages", buddy, map[string]any{"body": "Congrats"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Goal is completed", decodeBody[map[string]any](t, rec)["message"])

	rec = do(t, h, http.MethodPost, goalPath+"/messages", buddy, map[string]any{"body": ""})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, goalPath+"/messages", owner, map[string]any{"body": "Done!"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Revoking removes access and the buddy's contributions.
	rec = do(t, h, http.MethodDelete, fmt.Sprintf("%s/share/%d", goalPath, buddyID), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	revoked := decodeBody[struct {
		OK           bool `json:"ok"`
		RemovedShare bool `json:"removedShare"`
		Deleted      struct {
			Shares   int64 `json:"shares"`
			Messages int64 `json:"messages"`
			Checkins int64 `json:"checkins"`
		} `json:"deleted"`
	}](t, rec)
	assert.True(t, revoked.OK)
	assert.True(t, revoked.RemovedShare)
	assert.EqualValues(t, 1, revoked.Deleted.Shares)
	assert.EqualValues(t, 2, revoked.Deleted.Messages)
	assert.EqualValues(t, 1, revoked.Deleted.Checkins)

	rec = do(t, h, http.MethodGet, goalPath+"/messages", buddy, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodGet, "/goals/shared", buddy, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)

	// Missing goals on collaboration routes are forbidden, not not-found.
	rec = do(t, h, http.MethodGet, "/goals/9999/checkins", buddy, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodGet, "/goals/0/checkins", buddy, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSharedGoalsQueryParams(t *testing.T) {
	h := newTestHandler(t, nil)

	buddy, _ := register(t, h, "buddy@example.com")

	tests := []struct {
		query string
		want  int
	}{
		{"", http.StatusOK},
		{"?page=2&pageSize=5&sort=title_asc&status=all&q=run", http.StatusOK},
		{"?page=0", http.StatusBadRequest},
		{"?page=abc", http.StatusBadRequest},
		{"?pageSize=51", http.StatusBadRequest},
		{"?sort=random", http.StatusBadRequest},
		{"?status=paused", http.StatusBadRequest},
		{"?ownerId=x", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/goals/shared"+tt.query, buddy, nil)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestAuthRateLimit(t *testing.T) {
	h := newTestHandler(t, func(cfg *config.Config) {
		cfg.RateLimitAuth = 2
	})

	creds := map[string]string{"email": "ann@example.com", "password": "password123"}
	for range 2 {
		rec := do(t, h, http.MethodPost, "/auth/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := do(t, h, http.MethodPost, "/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Other routes are not limited.
	rec = do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWriteRateLimitIsPerUser(t *testing.T) {
	h := newTestHandler(t, func(cfg *config.Config) {
		cfg.RateLimitWrite = 2
	})

	ann, _ := register(t, h, "ann@example.com")
	bob, _ := register(t, h, "bob@example.com")

	createGoal(t, h, ann, map[string]any{"title": "one"})
	createGoal(t, h, ann, map[string]any{"title": "two"})

	rec := do(t, h, http.MethodPost, "/goals", ann, map[string]any{"title": "three"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Reads stay open and other users on the same address keep their budget.
	rec = do(t, h, http.MethodGet, "/goals", ann, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	createGoal(t, h, bob, map[string]any{"title": "one"})
}

func TestHealthAndRequestID(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[map[string]any](t, rec)["status"])

	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	assert.NoError(t, err)

	rec = do(t, h, http.MethodGet, "/health/db", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sqlite", decodeBody[map[string]any](t, rec)["driver"])

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", id)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get("X-Request-ID"))
}
