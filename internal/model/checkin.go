package model

import (
	"time"
)

const (
	CheckinStatusOnTrack = "on_track"
	CheckinStatusBlocked = "blocked"
	CheckinStatusDone    = "done"
)

type Checkin struct {
	ID        int64     `db:"id" json:"id"`
	GoalID    int64     `db:"goal_id" json:"goal_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Status    string    `db:"status" json:"status"`
	Progress  *int      `db:"progress" json:"progress"`
	Note      *string   `db:"note" json:"note"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func ValidCheckinStatus(status string) bool {
	switch status {
	case CheckinStatusOnTrack, CheckinStatusBlocked, CheckinStatusDone:
		return true
	}
	return false
}
