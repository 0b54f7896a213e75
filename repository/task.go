package repository

import (
	"context"

	"github.com/fastygo/tasktrail/domain"
)

// TaskRepository is the task collection of the document store.
//
// Apply and AppendActivity must be single atomic store operations: a task is
// never observed with its fields and activity log out of step.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	// List returns every task, newest CreatedAt first.
	List(ctx context.Context) ([]domain.Task, error)
	// Create assigns the id and persists the task with its initial log.
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// Apply updates fields and appends entry in one write, returning the stored task.
	Apply(ctx context.Context, id string, patch domain.TaskPatch, entry domain.ActivityEntry) (*domain.Task, error)
	AppendActivity(ctx context.Context, id string, entry domain.ActivityEntry) error
	Delete(ctx context.Context, id string) error
}
