package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Action names one kind of task mutation recorded in the activity log.
type Action string

const (
	ActionCreated       Action = "created"
	ActionUpdated       Action = "updated"
	ActionStatusUpdated Action = "status_updated"
	ActionDeleted       Action = "deleted"
)

// ActivityEntry is an immutable audit record of one task mutation.
type ActivityEntry struct {
	Action     Action          `json:"action"`
	Timestamp  time.Time       `json:"timestamp"`
	ActingUser Actor           `json:"actingUser"`
	Details    ActivityDetails `json:"details"`
}

// Change records a field's value before and after an update.
type Change[T any] struct {
	From T `json:"from"`
	To   T `json:"to"`
}

// AssignmentChange records how the assignee set moved during an update.
type AssignmentChange struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Current []string `json:"current"`
}

// ActivityDetails is the action-dependent payload of an entry. Only the fields
// relevant to the entry's action are set:
//
//	created:        InitialStatus, InitialAssignees
//	status_updated: PreviousStatus, NewStatus
//	updated:        any changed field plus Assignment
//	deleted:        nothing
type ActivityDetails struct {
	InitialStatus    Status
	InitialAssignees []string

	PreviousStatus Status
	NewStatus      Status

	Title       *Change[string]
	Description *Change[string]
	Status      *Change[Status]
	DueDate     *Change[time.Time]
	HasTime     *Change[bool]
	Assignment  *AssignmentChange
}

// IsEmpty reports whether an updated entry recorded no field changes.
func (d ActivityDetails) IsEmpty() bool {
	return d.InitialStatus == "" && d.InitialAssignees == nil &&
		d.PreviousStatus == "" && d.NewStatus == "" &&
		d.Title == nil && d.Description == nil && d.Status == nil &&
		d.DueDate == nil && d.HasTime == nil && d.Assignment == nil
}

// wireDetails is the JSON layout. assignedUsers is a plain list on created
// entries and a change object on updated entries.
type wireDetails struct {
	InitialStatus  Status             `json:"initialStatus,omitempty"`
	AssignedUsers  json.RawMessage    `json:"assignedUsers,omitempty"`
	PreviousStatus Status             `json:"previousStatus,omitempty"`
	NewStatus      Status             `json:"newStatus,omitempty"`
	Title          *Change[string]    `json:"title,omitempty"`
	Description    *Change[string]    `json:"description,omitempty"`
	Status         *Change[Status]    `json:"status,omitempty"`
	DueDate        *Change[time.Time] `json:"dueDate,omitempty"`
	HasTime        *Change[bool]      `json:"hasTime,omitempty"`
}

func (d ActivityDetails) MarshalJSON() ([]byte, error) {
	w := wireDetails{
		InitialStatus:  d.InitialStatus,
		PreviousStatus: d.PreviousStatus,
		NewStatus:      d.NewStatus,
		Title:          d.Title,
		Description:    d.Description,
		Status:         d.Status,
		DueDate:        d.DueDate,
		HasTime:        d.HasTime,
	}
	var (
		raw []byte
		err error
	)
	switch {
	case d.Assignment != nil:
		raw, err = json.Marshal(d.Assignment)
	case d.InitialAssignees != nil:
		raw, err = json.Marshal(d.InitialAssignees)
	}
	if err != nil {
		return nil, err
	}
	w.AssignedUsers = raw
	return json.Marshal(w)
}

func (d *ActivityDetails) UnmarshalJSON(data []byte) error {
	var w wireDetails
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*d = ActivityDetails{
		InitialStatus:  w.InitialStatus,
		PreviousStatus: w.PreviousStatus,
		NewStatus:      w.NewStatus,
		Title:          w.Title,
		Description:    w.Description,
		Status:         w.Status,
		DueDate:        w.DueDate,
		HasTime:        w.HasTime,
	}
	raw := bytes.TrimSpace(w.AssignedUsers)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '[' {
		d.InitialAssignees = []string{}
		return json.Unmarshal(raw, &d.InitialAssignees)
	}
	d.Assignment = &AssignmentChange{}
	return json.Unmarshal(raw, d.Assignment)
}
