package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goalbuddy/server/internal/db"
	"github.com/goalbuddy/server/internal/model"
	"github.com/goalbuddy/server/internal/repository"
)

const testAppURL = "http://goalbuddy.test"

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyGoalShared(ctx context.Context, p GoalSharedEmail) bool {
	args := m.Called(ctx, p)
	return args.Bool(0)
}

type testEnv struct {
	db       *sqlx.DB
	users    repository.UserRepository
	checkins repository.CheckinRepository
	messages repository.MessageRepository
	notifier *mockNotifier

	auth   *AuthService
	goals  *GoalService
	shares *ShareService
	collab *CollabService
	shared *SharedGoalService
}

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	database, err := db.Init(db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	err = db.RunMigrations(database.DB, db.DriverSQLite)
	require.NoError(t, err)

	return database
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := newTestDB(t)

	txRunner := repository.NewTxRunner(database)
	userRepository := repository.NewUserRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	shareRepository := repository.NewShareRepository(database)
	checkinRepository := repository.NewCheckinRepository(database)
	messageRepository := repository.NewMessageRepository(database)
	notifier := &mockNotifier{}

	return &testEnv{
		db:       database,
		users:    userRepository,
		checkins: checkinRepository,
		messages: messageRepository,
		notifier: notifier,
		auth:     NewAuthService(userRepository, "test-secret", time.Hour),
		goals:    NewGoalService(goalRepository),
		shares: NewShareService(txRunner, goalRepository, shareRepository, checkinRepository,
			messageRepository, userRepository, notifier, testAppURL),
		collab: NewCollabService(txRunner, goalRepository, shareRepository, checkinRepository, messageRepository),
		shared: NewSharedGoalService(repository.NewSharedGoalRepository(database)),
	}
}

func (e *testEnv) user(t *testing.T, email string) *model.User {
	t.Helper()

	user := &model.User{Email: email, PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func (e *testEnv) goal(t *testing.T, owner *model.User, title string) *model.Goal {
	t.Helper()

	goal, err := e.goals.Create(context.Background(), owner.ID, GoalInput{Title: title})
	require.NoError(t, err)
	return goal
}

// share creates a share and expects the notification, which always succeeds.
func (e *testEnv) share(t *testing.T, owner *model.User, goal *model.Goal, buddy *model.User, permissions string) *model.Share {
	t.Helper()

	e.notifier.On("NotifyGoalShared", mock.Anything, mock.Anything).Return(true).Maybe()

	result, err := e.shares.Share(context.Background(), owner.ID, goal.ID, buddy.Email, permissions)
	require.NoError(t, err)
	require.False(t, result.AlreadyShared)
	return result.Share
}

func (e *testEnv) setStatus(t *testing.T, owner *model.User, goal *model.Goal, status string) {
	t.Helper()

	_, err := e.goals.Update(context.Background(), owner.ID, goal.ID, GoalPatch{Status: &status})
	require.NoError(t, err)
}

func intPtr(i int) *int {
	return &i
}

func strPtr(s string) *string {
	return &s
}
