package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, value := range []string{"Pending", "In Progress", "Completed"} {
		s, err := ParseStatus(value)
		require.NoError(t, err)
		assert.Equal(t, Status(value), s)
	}

	for _, value := range []string{"", "pending", "InProgress", "Done"} {
		_, err := ParseStatus(value)
		assert.ErrorIs(t, err, ErrInvalidStatus, value)
		assert.True(t, IsDomainError(err, ErrCodeInvalid))
	}
}

func TestStatusRankOrdersLifecycle(t *testing.T) {
	assert.Less(t, StatusPending.Rank(), StatusInProgress.Rank())
	assert.Less(t, StatusInProgress.Rank(), StatusCompleted.Rank())
}

func TestTransitionBetween(t *testing.T) {
	cases := []struct {
		from, to Status
		want     Transition
	}{
		{StatusPending, StatusPending, TransitionNone},
		{StatusCompleted, StatusCompleted, TransitionNone},
		{StatusPending, StatusInProgress, TransitionNeutral},
		{StatusInProgress, StatusPending, TransitionNeutral},
		{StatusPending, StatusCompleted, TransitionIntoCompleted},
		{StatusInProgress, StatusCompleted, TransitionIntoCompleted},
		{StatusCompleted, StatusPending, TransitionOutOfCompleted},
		{StatusCompleted, StatusInProgress, TransitionOutOfCompleted},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TransitionBetween(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCombineDueDate(t *testing.T) {
	due, hasTime, err := CombineDueDate("2024-06-01", "", time.UTC)
	require.NoError(t, err)
	assert.False(t, hasTime)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), due)

	due, hasTime, err = CombineDueDate("2024-06-01", "14:30", time.UTC)
	require.NoError(t, err)
	assert.True(t, hasTime)
	assert.Equal(t, time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC), due)

	due, _, err = CombineDueDate("2024-06-01", "14:30:15", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 15, due.Second())

	berlin, err := time.LoadLocation("Europe/Berlin")
	if err == nil {
		due, _, err = CombineDueDate("2024-06-01", "", berlin)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 5, 31, 22, 0, 0, 0, time.UTC), due.UTC())
	}
}

func TestCombineDueDateRejectsInvalidInput(t *testing.T) {
	cases := [][2]string{
		{"", ""},
		{"2024-02-30", ""},
		{"01/06/2024", ""},
		{"2024-06-01", "25:00"},
		{"2024-06-01", "noon"},
	}
	for _, tc := range cases {
		_, _, err := CombineDueDate(tc[0], tc[1], time.UTC)
		require.Error(t, err, tc)
		assert.True(t, errors.Is(err, ErrInvalidDueDate), tc)
	}
}

func TestNormalizeAssigneesAndDifference(t *testing.T) {
	got := NormalizeAssignees([]string{"u1", " u2 ", "", "u1", "u3"})
	assert.Equal(t, []string{"u1", "u2", "u3"}, got)
	assert.Equal(t, []string{}, NormalizeAssignees(nil))

	assert.Equal(t, []string{"u3"}, Difference([]string{"u1", "u3"}, []string{"u1", "u2"}))
	assert.Equal(t, []string{}, Difference([]string{"u1"}, []string{"u1"}))
}

func TestTaskPatchApply(t *testing.T) {
	task := &Task{
		Title:         "old",
		Status:        StatusPending,
		AssignedUsers: []string{"u1"},
		ActivityLog:   []ActivityEntry{{Action: ActionCreated}},
	}
	title := "new"
	status := StatusCompleted
	now := time.Now()
	actor := Actor{UID: "u9"}

	TaskPatch{
		Title:         &title,
		Status:        &status,
		AssignedUsers: []string{"u2"},
		SetAssignees:  true,
		LastUpdatedBy: &actor,
		UpdatedAt:     now,
	}.Apply(task, ActivityEntry{Action: ActionUpdated})

	assert.Equal(t, "new", task.Title)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.Equal(t, []string{"u2"}, task.AssignedUsers)
	assert.Equal(t, "u9", task.LastUpdatedBy.UID)
	assert.Equal(t, now, task.UpdatedAt)
	require.Len(t, task.ActivityLog, 2)
	assert.Equal(t, ActionCreated, task.ActivityLog[0].Action)
	assert.Equal(t, ActionUpdated, task.ActivityLog[1].Action)
}

func TestTaskPatchConflicts(t *testing.T) {
	task := &Task{ActivityLog: []ActivityEntry{{Action: ActionCreated}}}

	assert.False(t, TaskPatch{}.Conflicts(task), "zero revision skips the check")
	assert.False(t, TaskPatch{Revision: 1}.Conflicts(task))

	TaskPatch{}.Apply(task, ActivityEntry{Action: ActionStatusUpdated})
	assert.True(t, TaskPatch{Revision: 1}.Conflicts(task))
	assert.False(t, TaskPatch{Revision: 2}.Conflicts(task))
}

func TestIdentityActorFallsBackToEmail(t *testing.T) {
	a := Identity{UID: "u1", Email: "ada@example.com"}.Actor()
	assert.Equal(t, "ada@example.com", a.Name)

	a = Identity{UID: "u1", Email: "ada@example.com", Name: "Ada"}.Actor()
	assert.Equal(t, "Ada", a.Name)
}
