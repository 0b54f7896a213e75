package transport

import (
	"encoding/json"
	"time"

	"github.com/fastygo/tasktrail/domain"
)

// Envelope wraps error payloads. Successful responses carry the resource
// itself, which is what task clients read.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Error  interface{} `json:"error,omitempty"`
}

// NewError returns an error envelope.
func NewError(code string, err interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// MessageResponse is the body of operations without a resource to return.
type MessageResponse struct {
	Message string `json:"message"`
}

// ActivityItem is one log entry with its rendered summary line.
type ActivityItem struct {
	domain.ActivityEntry
	Summary string `json:"summary"`
}

// NewActivity renders the log for display, oldest first.
func NewActivity(log []domain.ActivityEntry) []ActivityItem {
	items := make([]ActivityItem, 0, len(log))
	for _, entry := range log {
		items = append(items, ActivityItem{ActivityEntry: entry, Summary: entry.Summary()})
	}
	return items
}

// UserListItem is the public projection used by assignment pickers.
type UserListItem struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func NewUserList(users []domain.User) []UserListItem {
	items := make([]UserListItem, 0, len(users))
	for _, u := range users {
		items = append(items, UserListItem{UID: u.UID, Email: u.Email, Name: u.Name})
	}
	return items
}

// HealthResponse reports dependency reachability.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	CheckedAt *time.Time        `json:"checkedAt,omitempty"`
}

// NewHealth renders probe results as "up" or "down". A zero checkedAt is
// omitted: the monitor has not run yet.
func NewHealth(healthy bool, probes map[string]bool, checkedAt time.Time) HealthResponse {
	resp := HealthResponse{Status: "degraded", Checks: make(map[string]string, len(probes))}
	if healthy {
		resp.Status = "ok"
	}
	for name, up := range probes {
		resp.Checks[name] = "down"
		if up {
			resp.Checks[name] = "up"
		}
	}
	if !checkedAt.IsZero() {
		at := checkedAt.UTC()
		resp.CheckedAt = &at
	}
	return resp
}
