package domain

import (
	"sort"
	"strings"
)

// TaskSort names a supported list ordering.
type TaskSort string

const (
	SortNewest      TaskSort = ""
	SortDueDateAsc  TaskSort = "dueDate-asc"
	SortDueDateDesc TaskSort = "dueDate-desc"
	SortStatusAsc   TaskSort = "status-asc"
	SortStatusDesc  TaskSort = "status-desc"
)

// ParseTaskSort validates a sort key; empty means newest first.
func ParseTaskSort(value string) (TaskSort, error) {
	switch s := TaskSort(value); s {
	case SortNewest, SortDueDateAsc, SortDueDateDesc, SortStatusAsc, SortStatusDesc:
		return s, nil
	}
	return "", ValidationError("invalid sort")
}

// TaskQuery filters and orders an in-memory task list.
type TaskQuery struct {
	Status Status
	Search string
	Sort   TaskSort
}

// Apply returns the matching tasks in the requested order. The input is
// expected newest first; sorts are stable so ties keep that order.
func (q TaskQuery) Apply(tasks []Task) []Task {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) &&
			!strings.Contains(strings.ToLower(string(t.Status)), needle) {
			continue
		}
		out = append(out, t)
	}

	switch q.Sort {
	case SortDueDateAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	case SortDueDateDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.After(out[j].DueDate) })
	case SortStatusAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Status.Rank() < out[j].Status.Rank() })
	case SortStatusDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Status.Rank() > out[j].Status.Rank() })
	}
	return out
}

// SortNewestFirst orders tasks by CreatedAt descending, breaking ties by id.
func SortNewestFirst(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID > tasks[j].ID
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}
