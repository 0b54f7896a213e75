package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityDetailsCreatedShape(t *testing.T) {
	entry := ActivityEntry{
		Action:     ActionCreated,
		ActingUser: Actor{UID: "u0", Name: "Ada", Email: "ada@example.com"},
		Details: ActivityDetails{
			InitialStatus:    StatusPending,
			InitialAssignees: []string{},
		},
	}
	raw, err := json.Marshal(entry)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	details := generic["details"].(map[string]any)
	assert.Equal(t, "Pending", details["initialStatus"])
	assert.Equal(t, []any{}, details["assignedUsers"])

	var back ActivityEntry
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, []string{}, back.Details.InitialAssignees)
	assert.Nil(t, back.Details.Assignment)
}

func TestActivityDetailsUpdatedShape(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	details := ActivityDetails{
		Title:   &Change[string]{From: "a", To: "b"},
		DueDate: &Change[time.Time]{From: from, To: from.Add(24 * time.Hour)},
		Assignment: &AssignmentChange{
			Added:   []string{"u3"},
			Removed: []string{},
			Current: []string{"u1", "u3"},
		},
	}
	raw, err := json.Marshal(details)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Contains(t, generic, "title")
	assert.Contains(t, generic, "dueDate")
	assert.NotContains(t, generic, "description")
	assert.NotContains(t, generic, "initialStatus")
	assigned := generic["assignedUsers"].(map[string]any)
	assert.Equal(t, []any{"u3"}, assigned["added"])

	var back ActivityDetails
	require.NoError(t, json.Unmarshal(raw, &back))
	require.NotNil(t, back.Assignment)
	assert.Equal(t, []string{"u1", "u3"}, back.Assignment.Current)
	assert.Nil(t, back.InitialAssignees)
	assert.True(t, back.DueDate.From.Equal(from))
}

func TestActivityDetailsEmpty(t *testing.T) {
	raw, err := json.Marshal(ActivityDetails{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
	assert.True(t, ActivityDetails{}.IsEmpty())
	assert.False(t, ActivityDetails{NewStatus: StatusPending}.IsEmpty())
}

func TestActivitySummary(t *testing.T) {
	ada := Actor{UID: "u0", Name: "Ada"}
	cases := []struct {
		entry ActivityEntry
		want  string
	}{
		{
			ActivityEntry{Action: ActionCreated, ActingUser: ada, Details: ActivityDetails{InitialStatus: StatusPending, InitialAssignees: []string{"u1", "u2"}}},
			"Ada created the task as Pending assigned to u1, u2",
		},
		{
			ActivityEntry{Action: ActionStatusUpdated, ActingUser: ada, Details: ActivityDetails{PreviousStatus: StatusPending, NewStatus: StatusCompleted}},
			"Ada changed status from Pending to Completed",
		},
		{
			ActivityEntry{Action: ActionStatusUpdated, ActingUser: ada, Details: ActivityDetails{PreviousStatus: StatusPending, NewStatus: StatusPending}},
			"Ada kept status Pending",
		},
		{
			ActivityEntry{Action: ActionUpdated, ActingUser: ada},
			"Ada saved the task without changes",
		},
		{
			ActivityEntry{Action: ActionUpdated, ActingUser: ada, Details: ActivityDetails{
				Title:      &Change[string]{From: "a", To: "b"},
				Assignment: &AssignmentChange{Added: []string{"u3"}, Removed: []string{"u1"}},
			}},
			`Ada updated title from "a" to "b"; assigned u3; unassigned u1`,
		},
		{
			ActivityEntry{Action: ActionDeleted, ActingUser: Actor{Email: "x@example.com"}},
			"x@example.com deleted the task",
		},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.entry.Summary())
	}
}
