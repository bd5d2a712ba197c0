package model

import (
	"time"
)

type Message struct {
	ID        int64     `db:"id" json:"id"`
	GoalID    int64     `db:"goal_id" json:"goal_id"`
	SenderID  int64     `db:"sender_id" json:"sender_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FeedMessage is a message joined with its sender's email and the goal's
// latest check-in at read time. The Latest* fields are never stored.
type FeedMessage struct {
	Message
	SenderEmail    string  `db:"sender_email" json:"sender_email"`
	LatestStatus   *string `db:"latest_status" json:"latest_status"`
	LatestProgress *int    `db:"latest_progress" json:"latest_progress"`
	LatestNote     *string `db:"latest_note" json:"latest_note"`
}
