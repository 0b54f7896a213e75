package domain

import (
	"fmt"
	"strings"
)

const dueLayout = "2006-01-02 15:04"

// Summary renders the entry as a single human-readable line.
func (e ActivityEntry) Summary() string {
	who := e.ActingUser.Name
	if who == "" {
		who = e.ActingUser.Email
	}
	if who == "" {
		who = "someone"
	}

	d := e.Details
	switch e.Action {
	case ActionCreated:
		msg := fmt.Sprintf("%s created the task as %s", who, d.InitialStatus)
		if len(d.InitialAssignees) > 0 {
			msg += fmt.Sprintf(" assigned to %s", strings.Join(d.InitialAssignees, ", "))
		}
		return msg
	case ActionStatusUpdated:
		if d.PreviousStatus == d.NewStatus {
			return fmt.Sprintf("%s kept status %s", who, d.NewStatus)
		}
		return fmt.Sprintf("%s changed status from %s to %s", who, d.PreviousStatus, d.NewStatus)
	case ActionUpdated:
		parts := changedFields(d)
		if len(parts) == 0 {
			return fmt.Sprintf("%s saved the task without changes", who)
		}
		return fmt.Sprintf("%s updated %s", who, strings.Join(parts, "; "))
	case ActionDeleted:
		return fmt.Sprintf("%s deleted the task", who)
	default:
		return fmt.Sprintf("%s performed %s", who, e.Action)
	}
}

func changedFields(d ActivityDetails) []string {
	var parts []string
	if d.Title != nil {
		parts = append(parts, fmt.Sprintf("title from %q to %q", d.Title.From, d.Title.To))
	}
	if d.Description != nil {
		parts = append(parts, "description")
	}
	if d.Status != nil {
		parts = append(parts, fmt.Sprintf("status from %s to %s", d.Status.From, d.Status.To))
	}
	if d.DueDate != nil {
		parts = append(parts, fmt.Sprintf("due date from %s to %s",
			d.DueDate.From.Format(dueLayout), d.DueDate.To.Format(dueLayout)))
	}
	if d.HasTime != nil {
		if d.HasTime.To {
			parts = append(parts, "added a due time")
		} else {
			parts = append(parts, "removed the due time")
		}
	}
	if a := d.Assignment; a != nil {
		if len(a.Added) > 0 {
			parts = append(parts, "assigned "+strings.Join(a.Added, ", "))
		}
		if len(a.Removed) > 0 {
			parts = append(parts, "unassigned "+strings.Join(a.Removed, ", "))
		}
	}
	return parts
}
