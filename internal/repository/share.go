package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/goalbuddy/server/internal/model"
)

var (
	ErrShareNotFound  = errors.New("share not found")
	ErrDuplicateShare = errors.New("goal already has a share")
)

const shareColumns = `id, goal_id, owner_id, buddy_id, permissions, created_at`

type ShareRepository interface {
	WithTx(tx *sqlx.Tx) ShareRepository
	Create(ctx context.Context, share *model.Share) error
	ByGoal(ctx context.Context, goalID int64) (*model.Share, error)
	ForBuddy(ctx context.Context, goalID, buddyID int64) (*model.Share, error)
	ForBuddyLocked(ctx context.Context, goalID, buddyID int64) (*model.Share, error)
	UpdatePermissions(ctx context.Context, shareID int64, permissions string) error
	ListForGoal(ctx context.Context, goalID int64) ([]*model.ShareWithBuddy, error)
	Delete(ctx context.Context, goalID, buddyID int64) (int64, error)
	Owners(ctx context.Context, buddyID int64) ([]*model.SharingOwner, error)
}

type shareRepository struct {
	db sqlx.ExtContext
}

func NewShareRepository(db *sqlx.DB) ShareRepository {
	return &shareRepository{db: db}
}

func (r *shareRepository) WithTx(tx *sqlx.Tx) ShareRepository {
	return &shareRepository{db: tx}
}

// Create inserts the share. The unique index on goal_id turns a second share
// for the same goal into ErrDuplicateShare.
func (r *shareRepository) Create(ctx context.Context, share *model.Share) error {
	query := `INSERT INTO goal_shares (goal_id, owner_id, buddy_id, permissions, created_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		share.GoalID,
		share.OwnerID,
		share.BuddyID,
		share.Permissions,
		share.CreatedAt,
	).Scan(&share.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateShare
		}
		return err
	}

	return nil
}

func (r *shareRepository) ByGoal(ctx context.Context, goalID int64) (*model.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM goal_shares WHERE goal_id = $1 ORDER BY id ASC LIMIT 1`
	return r.get(ctx, query, goalID)
}

func (r *shareRepository) ForBuddy(ctx context.Context, goalID, buddyID int64) (*model.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM goal_shares WHERE goal_id = $1 AND buddy_id = $2`
	return r.get(ctx, query, goalID, buddyID)
}

// ForBuddyLocked is ForBuddy with a shared row lock where the driver supports
// one, so a concurrent revoke waits for the caller's transaction.
func (r *shareRepository) ForBuddyLocked(ctx context.Context, goalID, buddyID int64) (*model.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM goal_shares WHERE goal_id = $1 AND buddy_id = $2` + lockForShare(r.db.DriverName())
	return r.get(ctx, query, goalID, buddyID)
}

func (r *shareRepository) get(ctx context.Context, query string, args ...any) (*model.Share, error) {
	share := &model.Share{}

	err := sqlx.GetContext(ctx, r.db, share, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, err
	}

	return share, nil
}

func (r *shareRepository) UpdatePermissions(ctx context.Context, shareID int64, permissions string) error {
	query := `UPDATE goal_shares SET permissions = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, permissions, shareID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrShareNotFound
	}

	return nil
}

func (r *shareRepository) ListForGoal(ctx context.Context, goalID int64) ([]*model.ShareWithBuddy, error) {
	shares := []*model.ShareWithBuddy{}
	query := `SELECT s.id, s.buddy_id, u.email, s.permissions, s.created_at
	          FROM goal_shares s
	          JOIN users u ON u.id = s.buddy_id
	          WHERE s.goal_id = $1
	          ORDER BY s.id ASC`

	err := sqlx.SelectContext(ctx, r.db, &shares, query, goalID)
	if err != nil {
		return nil, err
	}

	return shares, nil
}

// Delete removes the share of goalID held by buddyID and reports how many
// rows went away.
func (r *shareRepository) Delete(ctx context.Context, goalID, buddyID int64) (int64, error) {
	query := `DELETE FROM goal_shares WHERE goal_id = $1 AND buddy_id = $2`

	result, err := r.db.ExecContext(ctx, query, goalID, buddyID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (r *shareRepository) Owners(ctx context.Context, buddyID int64) ([]*model.SharingOwner, error) {
	owners := []*model.SharingOwner{}
	query := `SELECT g.user_id AS owner_id, u.email, COUNT(*) AS goal_count
	          FROM goal_shares s
	          JOIN goals g ON g.id = s.goal_id
	          JOIN users u ON u.id = g.user_id
	          WHERE s.buddy_id = $1
	          GROUP BY g.user_id, u.email
	          ORDER BY u.email ASC`

	err := sqlx.SelectContext(ctx, r.db, &owners, query, buddyID)
	if err != nil {
		return nil, err
	}

	return owners, nil
}
