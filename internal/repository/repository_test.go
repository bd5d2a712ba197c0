package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalbuddy/server/internal/db"
	"github.com/goalbuddy/server/internal/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	database, err := db.Init(db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database.DB, db.DriverSQLite))
	return database
}

func createUser(t *testing.T, users UserRepository, email string) *model.User {
	t.Helper()

	user := &model.User{Email: email, PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestUserDuplicateEmail(t *testing.T) {
	users := NewUserRepository(newTestDB(t))
	createUser(t, users, "ann@example.com")

	err := users.Create(context.Background(), &model.User{Email: "ann@example.com", PasswordHash: "y", CreatedAt: time.Now().UTC()})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = users.ByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestShareOnePerGoal(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	users := NewUserRepository(database)
	goals := NewGoalRepository(database)
	shares := NewShareRepository(database)

	owner := createUser(t, users, "owner@example.com")
	ann := createUser(t, users, "ann@example.com")
	bob := createUser(t, users, "bob@example.com")

	goal := &model.Goal{UserID: owner.ID, Title: "Read", Status: model.GoalStatusInProgress, CreatedAt: time.Now().UTC()}
	require.NoError(t, goals.Create(ctx, goal))

	first := &model.Share{GoalID: goal.ID, OwnerID: owner.ID, BuddyID: ann.ID, Permissions: model.PermissionView, CreatedAt: time.Now().UTC()}
	require.NoError(t, shares.Create(ctx, first))

	second := &model.Share{GoalID: goal.ID, OwnerID: owner.ID, BuddyID: bob.ID, Permissions: model.PermissionView, CreatedAt: time.Now().UTC()}
	assert.ErrorIs(t, shares.Create(ctx, second), ErrDuplicateShare)

	got, err := shares.ByGoal(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, ann.ID, got.BuddyID)

	_, err = shares.ForBuddy(ctx, goal.ID, bob.ID)
	assert.ErrorIs(t, err, ErrShareNotFound)

	require.NoError(t, shares.UpdatePermissions(ctx, first.ID, model.PermissionCheckin))
	got, err = shares.ForBuddyLocked(ctx, goal.ID, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PermissionCheckin, got.Permissions)

	n, err := shares.Delete(ctx, goal.ID, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = shares.Delete(ctx, goal.ID, ann.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestInTxRollsBack(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	users := NewUserRepository(database)
	goals := NewGoalRepository(database)
	owner := createUser(t, users, "owner@example.com")

	errBoom := errors.New("boom")
	err := NewTxRunner(database).InTx(ctx, func(tx *sqlx.Tx) error {
		goal := &model.Goal{UserID: owner.ID, Title: "Never", Status: model.GoalStatusInProgress, CreatedAt: time.Now().UTC()}
		require.NoError(t, goals.WithTx(tx).Create(ctx, goal))
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	list, err := goals.Goals(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("connection reset")))
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% done`, escapeLike("100% done"))
	assert.Equal(t, `snake\_case`, escapeLike("snake_case"))
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
	assert.Equal(t, "plain", escapeLike("plain"))
}

func TestValidSharedSort(t *testing.T) {
	assert.True(t, ValidSharedSort(SharedSortTitleDesc))
	assert.False(t, ValidSharedSort("id_asc"))
}
