package model

import (
	"time"
)

const (
	PermissionView    = "view"
	PermissionCheckin = "checkin"
)

// Share grants one buddy access to one goal.
type Share struct {
	ID          int64     `db:"id" json:"id"`
	GoalID      int64     `db:"goal_id" json:"goal_id"`
	OwnerID     int64     `db:"owner_id" json:"owner_id"`
	BuddyID     int64     `db:"buddy_id" json:"buddy_id"`
	Permissions string    `db:"permissions" json:"permissions"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

func (s *Share) CanPost() bool {
	return s.Permissions == PermissionCheckin
}

func ValidPermission(p string) bool {
	return p == PermissionView || p == PermissionCheckin
}

// ShareWithBuddy is the owner's view of a share.
type ShareWithBuddy struct {
	ID          int64     `db:"id" json:"id"`
	BuddyID     int64     `db:"buddy_id" json:"buddy_id"`
	Email       string    `db:"email" json:"email"`
	Permissions string    `db:"permissions" json:"permissions"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
