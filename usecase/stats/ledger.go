// Package stats owns the per-user task counters.
//
// Counters are historical: tasksAssigned never drops when a user is removed
// from a task, and deleting a task reverses nothing. Only tasksCompleted moves
// both ways, following status transitions.
package stats

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/tasktrail/domain"
	"github.com/fastygo/tasktrail/pkg/logger"
	"github.com/fastygo/tasktrail/repository"
)

// TaskLister is the slice of the task store the recount fallback needs.
type TaskLister interface {
	List(ctx context.Context) ([]domain.Task, error)
}

// Ledger applies counter deltas through the store's atomic primitives. Each
// call is independent: there is no transaction across users or counters.
type Ledger struct {
	users  repository.UserStore
	tasks  TaskLister
	now    func() time.Time
	logger *zap.Logger
}

// Option customises a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used for updatedAt and
// lastTaskCompletedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

func New(users repository.UserStore, tasks TaskLister, log *zap.Logger, opts ...Option) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Ledger{
		users:  users,
		tasks:  tasks,
		now:    func() time.Time { return time.Now().UTC() },
		logger: log,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Increment adds one to counter for uid. Failures are logged and dropped so a
// statistics write never fails the caller's mutation; a missing profile is
// dropped without a warning.
func (l *Ledger) Increment(ctx context.Context, uid string, counter domain.Counter) {
	l.apply(ctx, "increment", uid, counter, l.users.IncrementCounter)
}

// DecrementGuarded subtracts one from counter unless it is already zero. It
// leaves lastTaskCompletedAt untouched.
func (l *Ledger) DecrementGuarded(ctx context.Context, uid string, counter domain.Counter) {
	l.apply(ctx, "decrement", uid, counter, l.users.DecrementCounter)
}

type counterFunc func(ctx context.Context, uid string, counter domain.Counter, at time.Time) error

func (l *Ledger) apply(ctx context.Context, op, uid string, counter domain.Counter, fn counterFunc) {
	log := logger.WithRequestID(ctx, l.logger).With(
		zap.String("op", op),
		zap.String("user_id", uid),
		zap.String("counter", string(counter)),
	)
	if uid == "" {
		log.Debug("skipping counter update without user id")
		return
	}

	err := fn(ctx, uid, counter, l.now())
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUserNotFound):
		log.Debug("counter update dropped, profile missing")
	default:
		log.Warn("counter update failed", zap.Error(err))
	}
}

// GetStats returns the stored counters, or a recount over all tasks when the
// profile has never had stats written.
func (l *Ledger) GetStats(ctx context.Context, uid string) (domain.StatsSummary, error) {
	user, err := l.users.GetByID(ctx, uid)
	if err != nil {
		return domain.StatsSummary{}, err
	}
	if user.Stats != nil {
		return user.Stats.Summary(), nil
	}

	tasks, err := l.tasks.List(ctx)
	if err != nil {
		return domain.StatsSummary{}, err
	}
	return Recount(tasks, uid), nil
}

// Recount derives a user's counters from the current task set. For a history
// without removals or deletions it matches the incremental counters.
func Recount(tasks []domain.Task, uid string) domain.StatsSummary {
	var out domain.StatsSummary
	for i := range tasks {
		t := &tasks[i]
		if t.CreatedBy.UID == uid {
			out.Created++
		}
		if t.IsAssigned(uid) {
			out.Assigned++
			if t.IsCompleted() {
				out.Completed++
			}
		}
	}
	return out
}

// Drift is a profile whose stored completion counter disagrees with a recount.
type Drift struct {
	UID       string
	Stored    int
	Recounted int
}

// Audit compares every profile's tasksCompleted with a fresh recount and
// reports the mismatches. Created and assigned counters are historical and
// are not expected to match, so they are not audited. Audit never writes.
func (l *Ledger) Audit(ctx context.Context) ([]Drift, error) {
	users, err := l.users.List(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := l.tasks.List(ctx)
	if err != nil {
		return nil, err
	}

	drifts := []Drift{}
	for _, user := range users {
		if user.Stats == nil {
			continue
		}
		recounted := Recount(tasks, user.UID).Completed
		if recounted != user.Stats.TasksCompleted {
			drifts = append(drifts, Drift{
				UID:       user.UID,
				Stored:    user.Stats.TasksCompleted,
				Recounted: recounted,
			})
		}
	}
	return drifts, nil
}
