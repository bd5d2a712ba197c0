package service

import (
	"fmt"
	"strings"

	"github.com/goalbuddy/server/internal/model"
)

func permissionText(permissions string) string {
	if permissions == model.PermissionCheckin {
		return "Check-in (can add updates)"
	}
	return "View only"
}

func goalSharedEmailTemplate(p GoalSharedEmail, appName string) (string, string) {
	subject := fmt.Sprintf("Goal shared with you: %s", p.GoalTitle)

	var b strings.Builder
	fmt.Fprintf(&b, "%s shared a goal with you.\n\n", p.OwnerEmail)
	fmt.Fprintf(&b, "Title: %s\n", p.GoalTitle)
	if p.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", p.Category)
	}
	if p.TargetDate != "" {
		fmt.Fprintf(&b, "Target date: %s\n", p.TargetDate)
	}
	fmt.Fprintf(&b, "Permission: %s\n", permissionText(p.Permissions))
	if p.Link != "" {
		fmt.Fprintf(&b, "\nOpen the goal:\n%s\n", p.Link)
	}
	fmt.Fprintf(&b, "\nBest,\nThe %s Team", appName)

	return subject, b.String()
}
