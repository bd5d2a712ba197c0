// Package access decides who may read and write a goal's collaboration
// feed. Every function is pure: callers load the goal and the caller's share
// (nil when absent) and ask.
package access

import (
	"github.com/goalbuddy/server/internal/model"
)

// Decision is the outcome of a write check.
type Decision int

const (
	Allowed Decision = iota
	// Denied means the user has no access or only view permission.
	Denied
	// Locked means the user could post but the goal is completed and only
	// the owner may still write.
	Locked
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	case Locked:
		return "locked"
	}
	return "unknown"
}

func OwnsGoal(userID int64, goal *model.Goal) bool {
	return goal != nil && goal.UserID == userID
}

// HasShare reports whether share grants userID access to goal.
func HasShare(userID int64, goal *model.Goal, share *model.Share) bool {
	return goal != nil && share != nil &&
		share.GoalID == goal.ID &&
		share.BuddyID == userID
}

func CanAccess(userID int64, goal *model.Goal, share *model.Share) bool {
	return OwnsGoal(userID, goal) || HasShare(userID, goal, share)
}

// CanPost ignores goal status; see CanWrite for the completed-goal gate.
func CanPost(userID int64, goal *model.Goal, share *model.Share) bool {
	if OwnsGoal(userID, goal) {
		return true
	}
	return HasShare(userID, goal, share) && share.CanPost()
}

// CanWrite combines CanPost with the completed-goal lock. Owners are never
// locked out of their own goals.
func CanWrite(userID int64, goal *model.Goal, share *model.Share) Decision {
	if !CanAccess(userID, goal, share) || !CanPost(userID, goal, share) {
		return Denied
	}
	if goal.IsCompleted() && !OwnsGoal(userID, goal) {
		return Locked
	}
	return Allowed
}
