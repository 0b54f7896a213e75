package task_test

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasktrail/domain"
	boltInfra "github.com/fastygo/tasktrail/internal/infrastructure/bolt"
	"github.com/fastygo/tasktrail/repository"
	boltRepo "github.com/fastygo/tasktrail/repository/bolt"
	statsUC "github.com/fastygo/tasktrail/usecase/stats"
	taskUC "github.com/fastygo/tasktrail/usecase/task"
)

// stalledReads makes the first n reads wait for each other, so every caller
// starts from the same version of the task.
type stalledReads struct {
	repository.TaskRepository
	reads   atomic.Int32
	stalled int32
	barrier sync.WaitGroup
}

func newStalledReads(inner repository.TaskRepository, n int) *stalledReads {
	s := &stalledReads{TaskRepository: inner, stalled: int32(n)}
	s.barrier.Add(n)
	return s
}

func (s *stalledReads) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	task, err := s.TaskRepository.GetByID(ctx, id)
	if s.reads.Add(1) <= s.stalled {
		s.barrier.Done()
		s.barrier.Wait()
	}
	return task, err
}

func TestConcurrentStatusChangesKeepLogAndCountersConsistent(t *testing.T) {
	for run := 0; run < 5; run++ {
		db, err := boltInfra.Open(filepath.Join(t.TempDir(), "race.db"))
		require.NoError(t, err)

		ctx := context.Background()
		users := boltRepo.NewUserRepository(db)
		require.NoError(t, users.Create(ctx, &domain.User{UID: "u1", Email: "u1@example.com"}))

		tasks := boltRepo.NewTaskRepository(db)
		uc := taskUC.New(tasks, statsUC.New(users, tasks, nil), nil)
		actor := domain.Identity{UID: "u1", Email: "u1@example.com"}

		created, err := uc.Create(ctx, taskUC.Input{
			Title:         "Ship",
			DueDate:       "2024-06-01",
			AssignedUsers: []string{"u1"},
		}, actor)
		require.NoError(t, err)

		racing := taskUC.New(newStalledReads(tasks, 2), statsUC.New(users, tasks, nil), nil)
		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, status := range []string{"Completed", "In Progress"} {
			wg.Add(1)
			go func(i int, status string) {
				defer wg.Done()
				_, errs[i] = racing.UpdateStatus(ctx, created.ID, status, actor)
			}(i, status)
		}
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		final, err := tasks.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, final.ActivityLog, 3)

		// Replaying the log reproduces the stored status.
		status := final.ActivityLog[0].Details.InitialStatus
		for _, entry := range final.ActivityLog[1:] {
			assert.Equal(t, status, entry.Details.PreviousStatus, "entry must start from the replaced status")
			status = entry.Details.NewStatus
		}
		assert.Equal(t, final.Status, status)

		all, err := tasks.List(ctx)
		require.NoError(t, err)
		profile, err := users.GetByID(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, profile.Stats)
		assert.Equal(t, statsUC.Recount(all, "u1").Completed, profile.Stats.TasksCompleted)

		require.NoError(t, db.Close())
	}
}

func TestStatusChangeGivesUpAfterRepeatedConflicts(t *testing.T) {
	db, err := boltInfra.Open(filepath.Join(t.TempDir(), "conflict.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	tasks := boltRepo.NewTaskRepository(db)
	users := boltRepo.NewUserRepository(db)
	actor := domain.Identity{UID: "u1"}

	created, err := taskUC.New(tasks, statsUC.New(users, tasks, nil), nil).
		Create(ctx, taskUC.Input{Title: "Ship", DueDate: "2024-06-01"}, actor)
	require.NoError(t, err)

	uc := taskUC.New(&phantomEntry{TaskRepository: tasks}, statsUC.New(users, tasks, nil), nil,
		taskUC.WithClock(func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }))
	_, err = uc.UpdateStatus(ctx, created.ID, "Completed", actor)
	assert.ErrorIs(t, err, domain.ErrTaskConflict)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))

	stored, err := tasks.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Len(t, stored.ActivityLog, 1)
}

// phantomEntry reports one log entry more than is stored, so every guarded
// write carries a revision the store never reaches.
type phantomEntry struct {
	repository.TaskRepository
}

func (a *phantomEntry) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	task, err := a.TaskRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	task.ActivityLog = append(task.ActivityLog, domain.ActivityEntry{Action: domain.ActionUpdated})
	return task, nil
}
