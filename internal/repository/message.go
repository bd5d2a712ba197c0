package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/goalbuddy/server/internal/model"
)

type MessageRepository interface {
	WithTx(tx *sqlx.Tx) MessageRepository
	Create(ctx context.Context, message *model.Message) error
	Recent(ctx context.Context, goalID int64, limit int) ([]*model.FeedMessage, error)
	DeleteForGoal(ctx context.Context, goalID int64) (int64, error)
}

type messageRepository struct {
	db sqlx.ExtContext
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) WithTx(tx *sqlx.Tx) MessageRepository {
	return &messageRepository{db: tx}
}

func (r *messageRepository) Create(ctx context.Context, message *model.Message) error {
	query := `INSERT INTO goal_messages (goal_id, sender_id, body, created_at)
	          VALUES ($1, $2, $3, $4) RETURNING id`

	return r.db.QueryRowxContext(ctx, query,
		message.GoalID,
		message.SenderID,
		message.Body,
		message.CreatedAt,
	).Scan(&message.ID)
}

// Recent returns the newest messages first, each carrying the sender's email
// and the goal's latest check-in as of this read.
func (r *messageRepository) Recent(ctx context.Context, goalID int64, limit int) ([]*model.FeedMessage, error) {
	messages := []*model.FeedMessage{}
	query := `SELECT m.id, m.goal_id, m.sender_id, m.body, m.created_at,
	                 u.email AS sender_email,
	                 lc.status AS latest_status,
	                 lc.progress AS latest_progress,
	                 lc.note AS latest_note
	          FROM goal_messages m
	          JOIN users u ON u.id = m.sender_id
	          LEFT JOIN (
	              SELECT goal_id, status, progress, note
	              FROM goal_checkins
	              WHERE goal_id = $1
	              ORDER BY created_at DESC, id DESC
	              LIMIT 1
	          ) lc ON lc.goal_id = m.goal_id
	          WHERE m.goal_id = $1
	          ORDER BY m.created_at DESC, m.id DESC
	          LIMIT $2`

	err := sqlx.SelectContext(ctx, r.db, &messages, query, goalID, limit)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *messageRepository) DeleteForGoal(ctx context.Context, goalID int64) (int64, error) {
	query := `DELETE FROM goal_messages WHERE goal_id = $1`

	result, err := r.db.ExecContext(ctx, query, goalID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
