package domain

import "time"

// User represents an account profile, created on first sign-in.
type User struct {
	UID       string     `json:"uid"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	Stats     *UserStats `json:"stats,omitempty"`
	LastLogin time.Time  `json:"lastLogin"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// DefaultRole is assigned to profiles created at sign-in.
const DefaultRole = "user"

// UserStats holds the denormalized per-user task counters. They are owned by
// the statistics ledger and never written by profile updates.
type UserStats struct {
	TasksCreated        int        `json:"tasksCreated"`
	TasksAssigned       int        `json:"tasksAssigned"`
	TasksCompleted      int        `json:"tasksCompleted"`
	LastTaskCompletedAt *time.Time `json:"lastTaskCompletedAt"`
}

// Counter names one ledger counter.
type Counter string

const (
	CounterCreated   Counter = "tasksCreated"
	CounterAssigned  Counter = "tasksAssigned"
	CounterCompleted Counter = "tasksCompleted"
)

func (c Counter) Valid() bool {
	switch c {
	case CounterCreated, CounterAssigned, CounterCompleted:
		return true
	}
	return false
}

// Bump applies a +1 or guarded -1 to the named counter in place. A completion
// increment stamps LastTaskCompletedAt; a decrement never touches it.
func (s *UserStats) Bump(c Counter, delta int, at time.Time) {
	field := s.field(c)
	if field == nil {
		return
	}
	if delta < 0 {
		if *field > 0 {
			*field--
		}
		return
	}
	*field++
	if c == CounterCompleted {
		stamp := at
		s.LastTaskCompletedAt = &stamp
	}
}

func (s *UserStats) field(c Counter) *int {
	switch c {
	case CounterCreated:
		return &s.TasksCreated
	case CounterAssigned:
		return &s.TasksAssigned
	case CounterCompleted:
		return &s.TasksCompleted
	}
	return nil
}

// StatsSummary is the read model returned by the ledger.
type StatsSummary struct {
	Created   int `json:"created"`
	Assigned  int `json:"assigned"`
	Completed int `json:"completed"`
}

// Summary projects stored counters onto the read model.
func (s UserStats) Summary() StatsSummary {
	return StatsSummary{
		Created:   s.TasksCreated,
		Assigned:  s.TasksAssigned,
		Completed: s.TasksCompleted,
	}
}

// Identity is the verified claim set injected by the identity provider.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Actor snapshots the identity for denormalized storage. The display name
// falls back to the email address.
func (i Identity) Actor() Actor {
	name := i.Name
	if name == "" {
		name = i.Email
	}
	return Actor{UID: i.UID, Name: name, Email: i.Email}
}
