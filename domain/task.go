package domain

import (
	"slices"
	"strings"
	"time"
)

// Status is the closed set of task states.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

var statusRank = map[Status]int{
	StatusPending:    1,
	StatusInProgress: 2,
	StatusCompleted:  3,
}

// ParseStatus validates a wire value. An empty value is rejected; callers
// that want a default apply it before parsing.
func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if _, ok := statusRank[s]; !ok {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// Rank orders statuses for sorting: Pending < In Progress < Completed.
func (s Status) Rank() int {
	return statusRank[s]
}

// Transition classifies a status change by its effect on completion counters.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionNeutral
	TransitionIntoCompleted
	TransitionOutOfCompleted
)

// TransitionBetween returns the completion effect of moving from one status
// to another. Equal statuses are TransitionNone.
func TransitionBetween(from, to Status) Transition {
	switch {
	case from == to:
		return TransitionNone
	case to == StatusCompleted:
		return TransitionIntoCompleted
	case from == StatusCompleted:
		return TransitionOutOfCompleted
	default:
		return TransitionNeutral
	}
}

// Actor is a denormalized snapshot of the acting user at the time of an action.
type Actor struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Task represents one unit of work together with its audit trail.
type Task struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Status        Status          `json:"status"`
	DueDate       time.Time       `json:"dueDate"`
	HasTime       bool            `json:"hasTime"`
	CreatedBy     Actor           `json:"createdBy"`
	LastUpdatedBy *Actor          `json:"lastUpdatedBy,omitempty"`
	AssignedUsers []string        `json:"assignedUsers"`
	ActivityLog   []ActivityEntry `json:"activityLog"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// IsAssigned reports whether uid is in the task's assignee set.
func (t *Task) IsAssigned(uid string) bool {
	return t != nil && slices.Contains(t.AssignedUsers, uid)
}

// TaskPatch is the set of field changes applied atomically together with one
// appended activity entry. Nil fields are left untouched.
type TaskPatch struct {
	Title         *string
	Description   *string
	Status        *Status
	DueDate       *time.Time
	HasTime       *bool
	AssignedUsers []string
	SetAssignees  bool
	// Revision is the activity log length the caller based the patch on.
	// Stores reject the write with ErrTaskConflict when the log has moved on.
	// Zero skips the check.
	Revision      int
	LastUpdatedBy *Actor
	UpdatedAt     time.Time
}

// Conflicts reports whether t has been written since the caller read it.
func (p TaskPatch) Conflicts(t *Task) bool {
	return p.Revision > 0 && len(t.ActivityLog) != p.Revision
}

// Apply mutates t with the patch and appends entry. Stores without native
// field updates use it inside their own transaction.
func (p TaskPatch) Apply(t *Task, entry ActivityEntry) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.HasTime != nil {
		t.HasTime = *p.HasTime
	}
	if p.SetAssignees {
		t.AssignedUsers = append([]string{}, p.AssignedUsers...)
	}
	if p.LastUpdatedBy != nil {
		actor := *p.LastUpdatedBy
		t.LastUpdatedBy = &actor
	}
	if !p.UpdatedAt.IsZero() {
		t.UpdatedAt = p.UpdatedAt
	}
	t.ActivityLog = append(t.ActivityLog, entry)
}

// NormalizeAssignees trims, drops blanks and removes duplicates while keeping
// first-seen order.
func NormalizeAssignees(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Difference returns the members of a that are not in b, in a's order.
func Difference(a, b []string) []string {
	out := []string{}
	for _, id := range a {
		if !slices.Contains(b, id) {
			out = append(out, id)
		}
	}
	return out
}

// CombineDueDate joins a calendar date (YYYY-MM-DD) with an optional
// time-of-day (HH:MM or HH:MM:SS) in loc. Without a time the result is
// midnight and hasTime is false.
func CombineDueDate(date, clock string, loc *time.Location) (time.Time, bool, error) {
	if loc == nil {
		loc = time.UTC
	}
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" {
		return time.Time{}, false, ErrInvalidDueDate
	}

	if clock == "" {
		due, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return time.Time{}, false, WrapError(ErrCodeInvalid, ErrInvalidDueDate.Message, err)
		}
		return due, false, nil
	}

	layout := "2006-01-02T15:04"
	if strings.Count(clock, ":") == 2 {
		layout = "2006-01-02T15:04:05"
	}
	due, err := time.ParseInLocation(layout, date+"T"+clock, loc)
	if err != nil {
		return time.Time{}, false, WrapError(ErrCodeInvalid, ErrInvalidDueDate.Message, err)
	}
	return due, true, nil
}
