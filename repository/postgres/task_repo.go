package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/tasktrail/domain"
	"github.com/fastygo/tasktrail/repository"
)

const taskColumns = `id, title, description, status, due_date, has_time, created_by, last_updated_by, assigned_users, activity_log, created_at, updated_at`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(r.pool.QueryRow(ctx, query, id))
}

func (r *taskRepository) List(ctx context.Context) ([]domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, title, description, status, due_date, has_time, created_by, assigned_users, activity_log, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, NOW()), COALESCE($11, NOW()))
	RETURNING created_at, updated_at
	`

	createdBy, err := marshalJSON(task.CreatedBy)
	if err != nil {
		return nil, err
	}
	assigned, err := marshalJSON(nonNil(task.AssignedUsers))
	if err != nil {
		return nil, err
	}
	log, err := marshalJSON(task.ActivityLog)
	if err != nil {
		return nil, err
	}

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		task.DueDate,
		task.HasTime,
		createdBy,
		assigned,
		log,
		nullTime(task.CreatedAt),
		nullTime(task.UpdatedAt),
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	return task, nil
}

// Apply writes the patch and appends entry in one UPDATE statement, so the
// row lock covers both the fields and the log. The revision guard sits in the
// WHERE clause and is evaluated under the same lock.
func (r *taskRepository) Apply(ctx context.Context, id string, patch domain.TaskPatch, entry domain.ActivityEntry) (*domain.Task, error) {
	const query = `
	UPDATE tasks
	SET title = COALESCE($2, title),
		description = COALESCE($3, description),
		status = COALESCE($4, status),
		due_date = COALESCE($5, due_date),
		has_time = COALESCE($6, has_time),
		assigned_users = COALESCE($7::jsonb, assigned_users),
		last_updated_by = COALESCE($8::jsonb, last_updated_by),
		updated_at = COALESCE($9, updated_at),
		activity_log = activity_log || jsonb_build_array($10::jsonb)
	WHERE id = $1 AND ($11::int = 0 OR jsonb_array_length(activity_log) = $11::int)
	RETURNING ` + taskColumns

	var status interface{}
	if patch.Status != nil {
		status = string(*patch.Status)
	}
	var due interface{}
	if patch.DueDate != nil {
		due = *patch.DueDate
	}
	var assigned []byte
	if patch.SetAssignees {
		b, err := marshalJSON(nonNil(patch.AssignedUsers))
		if err != nil {
			return nil, err
		}
		assigned = b
	}
	var updatedBy []byte
	if patch.LastUpdatedBy != nil {
		b, err := marshalJSON(patch.LastUpdatedBy)
		if err != nil {
			return nil, err
		}
		updatedBy = b
	}
	payload, err := marshalJSON(entry)
	if err != nil {
		return nil, err
	}

	task, err := scanTask(r.pool.QueryRow(ctx, query,
		id,
		nullString(patch.Title),
		nullString(patch.Description),
		status,
		due,
		nullBool(patch.HasTime),
		assigned,
		updatedBy,
		nullTime(patch.UpdatedAt),
		payload,
		patch.Revision,
	))
	if errors.Is(err, domain.ErrTaskNotFound) && patch.Revision > 0 {
		// No row matched: either the task is gone or its log moved on.
		var exists bool
		if qErr := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists); qErr != nil {
			return nil, qErr
		}
		if exists {
			return nil, domain.ErrTaskConflict
		}
	}
	return task, err
}

func (r *taskRepository) AppendActivity(ctx context.Context, id string, entry domain.ActivityEntry) error {
	const query = `UPDATE tasks SET activity_log = activity_log || jsonb_build_array($2::jsonb) WHERE id = $1`
	payload, err := marshalJSON(entry)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, query, id, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row scanner) (*domain.Task, error) {
	var task domain.Task
	var (
		status    string
		due       time.Time
		createdBy []byte
		updatedBy []byte
		assigned  []byte
		log       []byte
	)

	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&due,
		&task.HasTime,
		&createdBy,
		&updatedBy,
		&assigned,
		&log,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Status = domain.Status(status)
	task.DueDate = due
	if err := json.Unmarshal(createdBy, &task.CreatedBy); err != nil {
		return nil, err
	}
	if len(updatedBy) > 0 {
		var actor domain.Actor
		if err := json.Unmarshal(updatedBy, &actor); err != nil {
			return nil, err
		}
		task.LastUpdatedBy = &actor
	}
	if err := json.Unmarshal(assigned, &task.AssignedUsers); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(log, &task.ActivityLog); err != nil {
		return nil, err
	}

	return &task, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
