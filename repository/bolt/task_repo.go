package bolt

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/tasktrail/domain"
	boltInfra "github.com/fastygo/tasktrail/internal/infrastructure/bolt"
	"github.com/fastygo/tasktrail/repository"
)

type taskRepository struct {
	db     *bolt.DB
	bucket []byte
}

// NewTaskRepository returns a BoltDB-backed TaskRepository. Each mutation
// runs in one read-write transaction, which bbolt serializes.
func NewTaskRepository(db *bolt.DB) repository.TaskRepository {
	return &taskRepository{db: db, bucket: []byte(boltInfra.BucketTasks)}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	var task *domain.Task
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		task, err = r.load(tx, id)
		return err
	})
	return task, err
}

func (r *taskRepository) List(ctx context.Context) ([]domain.Task, error) {
	tasks := []domain.Task{}
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(r.bucket).ForEach(func(k, v []byte) error {
			var task domain.Task
			if err := json.Unmarshal(v, &task); err != nil {
				return err
			}
			tasks = append(tasks, task)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	domain.SortNewestFirst(tasks)
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	err := r.db.Update(func(tx *bolt.Tx) error {
		return r.store(tx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Apply(ctx context.Context, id string, patch domain.TaskPatch, entry domain.ActivityEntry) (*domain.Task, error) {
	var task *domain.Task
	err := r.db.Update(func(tx *bolt.Tx) error {
		var err error
		task, err = r.load(tx, id)
		if err != nil {
			return err
		}
		if patch.Conflicts(task) {
			return domain.ErrTaskConflict
		}
		patch.Apply(task, entry)
		return r.store(tx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) AppendActivity(ctx context.Context, id string, entry domain.ActivityEntry) error {
	_, err := r.Apply(ctx, id, domain.TaskPatch{}, entry)
	return err
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(r.bucket)
		if b.Get([]byte(id)) == nil {
			return domain.ErrTaskNotFound
		}
		return b.Delete([]byte(id))
	})
}

func (r *taskRepository) load(tx *bolt.Tx, id string) (*domain.Task, error) {
	raw := tx.Bucket(r.bucket).Get([]byte(id))
	if raw == nil {
		return nil, domain.ErrTaskNotFound
	}
	var task domain.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) store(tx *bolt.Tx, task *domain.Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return tx.Bucket(r.bucket).Put([]byte(task.ID), payload)
}
