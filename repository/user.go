package repository

import (
	"context"
	"time"

	"github.com/fastygo/tasktrail/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, uid string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	// Create inserts a new profile and fails with domain.ErrUserExists if the
	// uid is taken.
	Create(ctx context.Context, user *domain.User) error
	RecordLogin(ctx context.Context, uid string, at time.Time) error
	UpdateName(ctx context.Context, uid, name string, at time.Time) error
}

// CounterStore exposes the atomic per-user counter primitives. Both calls
// return domain.ErrUserNotFound when the profile does not exist.
type CounterStore interface {
	// IncrementCounter adds one to the counter; CounterCompleted also stamps
	// lastTaskCompletedAt with at.
	IncrementCounter(ctx context.Context, uid string, counter domain.Counter, at time.Time) error
	// DecrementCounter subtracts one unless the counter is already zero.
	DecrementCounter(ctx context.Context, uid string, counter domain.Counter, at time.Time) error
}

// UserStore is the full users collection.
type UserStore interface {
	UserRepository
	CounterStore
}
