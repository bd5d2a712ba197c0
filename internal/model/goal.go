package model

import (
	"time"
)

const (
	GoalStatusInProgress = "in_progress"
	GoalStatusCompleted  = "completed"
	GoalStatusAbandoned  = "abandoned"
)

type Goal struct {
	ID          int64      `db:"id" json:"id"`
	UserID      int64      `db:"user_id" json:"user_id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description"`
	TargetDate  *time.Time `db:"target_date" json:"target_date"`
	Status      string     `db:"status" json:"status"`
	Category    *string    `db:"category" json:"category"`
	Tags        *string    `db:"tags" json:"tags"`
	Color       *string    `db:"color" json:"color"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// IsCompleted reports whether collaborators are locked out of posting.
func (g *Goal) IsCompleted() bool {
	return g.Status == GoalStatusCompleted
}

func ValidGoalStatus(status string) bool {
	switch status {
	case GoalStatusInProgress, GoalStatusCompleted, GoalStatusAbandoned:
		return true
	}
	return false
}

// SharedGoal is a goal as seen by a buddy: the goal row joined with the
// share that grants access and the owner's email.
type SharedGoal struct {
	Goal
	OwnerID     int64  `db:"owner_id" json:"owner_id"`
	OwnerEmail  string `db:"owner_email" json:"owner_email"`
	Permissions string `db:"permissions" json:"permissions"`
}

// SharingOwner aggregates the goals one owner shares with the current user.
type SharingOwner struct {
	OwnerID   int64  `db:"owner_id" json:"owner_id"`
	Email     string `db:"email" json:"email"`
	GoalCount int    `db:"goal_count" json:"goal_count"`
}
