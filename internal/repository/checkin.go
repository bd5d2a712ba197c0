package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/goalbuddy/server/internal/model"
)

type CheckinRepository interface {
	WithTx(tx *sqlx.Tx) CheckinRepository
	Create(ctx context.Context, checkin *model.Checkin) error
	Recent(ctx context.Context, goalID int64, limit int) ([]*model.Checkin, error)
	DeleteByAuthor(ctx context.Context, goalID, userID int64) (int64, error)
}

type checkinRepository struct {
	db sqlx.ExtContext
}

func NewCheckinRepository(db *sqlx.DB) CheckinRepository {
	return &checkinRepository{db: db}
}

func (r *checkinRepository) WithTx(tx *sqlx.Tx) CheckinRepository {
	return &checkinRepository{db: tx}
}

func (r *checkinRepository) Create(ctx context.Context, checkin *model.Checkin) error {
	query := `INSERT INTO goal_checkins (goal_id, user_id, status, progress, note, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	return r.db.QueryRowxContext(ctx, query,
		checkin.GoalID,
		checkin.UserID,
		checkin.Status,
		checkin.Progress,
		checkin.Note,
		checkin.CreatedAt,
	).Scan(&checkin.ID)
}

// Recent returns the newest check-ins first; equal timestamps fall back to
// insertion order.
func (r *checkinRepository) Recent(ctx context.Context, goalID int64, limit int) ([]*model.Checkin, error) {
	checkins := []*model.Checkin{}
	query := `SELECT id, goal_id, user_id, status, progress, note, created_at
	          FROM goal_checkins
	          WHERE goal_id = $1
	          ORDER BY created_at DESC, id DESC
	          LIMIT $2`

	err := sqlx.SelectContext(ctx, r.db, &checkins, query, goalID, limit)
	if err != nil {
		return nil, err
	}

	return checkins, nil
}

func (r *checkinRepository) DeleteByAuthor(ctx context.Context, goalID, userID int64) (int64, error) {
	query := `DELETE FROM goal_checkins WHERE goal_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, goalID, userID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
