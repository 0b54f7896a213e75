package stats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/tasktrail/domain"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
	fail  error
}

func newFakeUsers(uids ...string) *fakeUsers {
	f := &fakeUsers{users: map[string]*domain.User{}}
	for _, uid := range uids {
		f.users[uid] = &domain.User{UID: uid, Role: domain.DefaultRole}
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, uid string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[uid]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	if u.Stats != nil {
		s := *u.Stats
		cp.Stats = &s
	}
	return &cp, nil
}

func (f *fakeUsers) List(ctx context.Context) ([]domain.User, error) {
	out := []domain.User{}
	for uid := range f.users {
		u, _ := f.GetByID(ctx, uid)
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.UID] = user
	return nil
}

func (f *fakeUsers) RecordLogin(context.Context, string, time.Time) error        { return nil }
func (f *fakeUsers) UpdateName(context.Context, string, string, time.Time) error { return nil }

func (f *fakeUsers) IncrementCounter(_ context.Context, uid string, c domain.Counter, at time.Time) error {
	return f.bump(uid, c, 1, at)
}

func (f *fakeUsers) DecrementCounter(_ context.Context, uid string, c domain.Counter, at time.Time) error {
	return f.bump(uid, c, -1, at)
}

func (f *fakeUsers) bump(uid string, c domain.Counter, delta int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	u, ok := f.users[uid]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.Stats == nil {
		u.Stats = &domain.UserStats{}
	}
	u.Stats.Bump(c, delta, at)
	u.UpdatedAt = at
	return nil
}

type fakeTasks []domain.Task

func (f fakeTasks) List(context.Context) ([]domain.Task, error) { return f, nil }

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newLedger(users *fakeUsers, tasks fakeTasks, log *zap.Logger) *Ledger {
	return New(users, tasks, log, WithClock(func() time.Time { return fixedNow }))
}

func TestIncrementAndGuardedDecrement(t *testing.T) {
	ctx := context.Background()
	users := newFakeUsers("u1")
	ledger := newLedger(users, nil, nil)

	ledger.Increment(ctx, "u1", domain.CounterCompleted)
	got, err := ledger.GetStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Completed)

	u, _ := users.GetByID(ctx, "u1")
	require.NotNil(t, u.Stats.LastTaskCompletedAt)
	assert.Equal(t, fixedNow, *u.Stats.LastTaskCompletedAt)

	ledger.DecrementGuarded(ctx, "u1", domain.CounterCompleted)
	ledger.DecrementGuarded(ctx, "u1", domain.CounterCompleted)
	got, err = ledger.GetStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Completed)

	u, _ = users.GetByID(ctx, "u1")
	assert.NotNil(t, u.Stats.LastTaskCompletedAt, "decrement keeps the completion stamp")
}

func TestIncrementMissingProfileIsDropped(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ledger := newLedger(newFakeUsers(), nil, zap.New(core))

	ledger.Increment(context.Background(), "ghost", domain.CounterAssigned)

	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Equal(t, 1, logs.FilterMessage("counter update dropped, profile missing").Len())
}

func TestStoreFailureIsLoggedAndSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	users := newFakeUsers("u1")
	users.fail = errors.New("connection reset")
	ledger := newLedger(users, nil, zap.New(core))

	ledger.Increment(context.Background(), "u1", domain.CounterCreated)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	fields := warnings[0].ContextMap()
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "tasksCreated", fields["counter"])
	assert.Equal(t, "connection reset", fields["error"])
}

func TestGetStatsFallsBackToRecount(t *testing.T) {
	ctx := context.Background()
	tasks := fakeTasks{
		{ID: "t1", CreatedBy: domain.Actor{UID: "u1"}, AssignedUsers: []string{"u1", "u2"}, Status: domain.StatusCompleted},
		{ID: "t2", CreatedBy: domain.Actor{UID: "u2"}, AssignedUsers: []string{"u1"}, Status: domain.StatusPending},
		{ID: "t3", CreatedBy: domain.Actor{UID: "u1"}, Status: domain.StatusCompleted},
	}
	ledger := newLedger(newFakeUsers("u1"), tasks, nil)

	got, err := ledger.GetStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatsSummary{Created: 2, Assigned: 2, Completed: 1}, got)
}

func TestGetStatsMissingProfile(t *testing.T) {
	ledger := newLedger(newFakeUsers(), nil, nil)
	_, err := ledger.GetStats(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestRecountMatchesIncrementalHistory(t *testing.T) {
	ctx := context.Background()
	users := newFakeUsers("u0", "u1")
	ledger := newLedger(users, nil, nil)

	// u0 creates a task for u1 and completes it.
	ledger.Increment(ctx, "u0", domain.CounterCreated)
	ledger.Increment(ctx, "u1", domain.CounterAssigned)
	ledger.Increment(ctx, "u1", domain.CounterCompleted)
	tasks := []domain.Task{{
		CreatedBy:     domain.Actor{UID: "u0"},
		AssignedUsers: []string{"u1"},
		Status:        domain.StatusCompleted,
	}}

	for _, uid := range []string{"u0", "u1"} {
		stored, err := ledger.GetStats(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, Recount(tasks, uid), stored, uid)
	}
}

func TestAuditReportsCompletionDrift(t *testing.T) {
	ctx := context.Background()
	users := newFakeUsers("u1", "u2", "u3")
	users.users["u1"].Stats = &domain.UserStats{TasksAssigned: 1, TasksCompleted: 2}
	users.users["u2"].Stats = &domain.UserStats{TasksAssigned: 5, TasksCompleted: 0}
	tasks := fakeTasks{
		{AssignedUsers: []string{"u1"}, Status: domain.StatusCompleted},
	}
	ledger := newLedger(users, tasks, nil)

	drifts, err := ledger.Audit(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Drift{{UID: "u1", Stored: 2, Recounted: 1}}, drifts)
}

func TestConcurrentIncrementsAreNotLost(t *testing.T) {
	ctx := context.Background()
	users := newFakeUsers("u1")
	ledger := newLedger(users, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ledger.Increment(ctx, "u1", domain.CounterAssigned)
		}()
	}
	wg.Wait()

	got, err := ledger.GetStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 50, got.Assigned)
}
