package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/tasktrail/domain"
	"github.com/fastygo/tasktrail/repository"
)

const userColumns = `uid, email, name, role, has_stats, tasks_created, tasks_assigned, tasks_completed, last_task_completed_at, last_login, created_at, updated_at`

// counterColumns maps ledger counters onto column names. Only these values are
// ever interpolated into SQL.
var counterColumns = map[domain.Counter]string{
	domain.CounterCreated:   "tasks_created",
	domain.CounterAssigned:  "tasks_assigned",
	domain.CounterCompleted: "tasks_completed",
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserStore {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, uid string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	return scanUser(r.pool.QueryRow(ctx, query, uid))
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY uid`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil || user.UID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO users (uid, email, name, role, last_login, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()), COALESCE($7, NOW()))
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		user.UID,
		user.Email,
		user.Name,
		user.Role,
		nullTime(user.LastLogin),
		nullTime(user.CreatedAt),
		nullTime(user.UpdatedAt),
	).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrUserExists
		}
		return err
	}
	return nil
}

func (r *userRepository) RecordLogin(ctx context.Context, uid string, at time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = $2 WHERE uid = $1`
	return r.exec(ctx, query, uid, at)
}

func (r *userRepository) UpdateName(ctx context.Context, uid, name string, at time.Time) error {
	const query = `UPDATE users SET name = $2, updated_at = $3 WHERE uid = $1`
	return r.exec(ctx, query, uid, name, at)
}

// IncrementCounter is a single UPDATE, so concurrent bumps never lose writes.
func (r *userRepository) IncrementCounter(ctx context.Context, uid string, counter domain.Counter, at time.Time) error {
	column, ok := counterColumns[counter]
	if !ok {
		return domain.ValidationError("unknown counter " + string(counter))
	}
	stamp := ""
	if counter == domain.CounterCompleted {
		stamp = ", last_task_completed_at = $2"
	}
	query := fmt.Sprintf(`UPDATE users SET %[1]s = %[1]s + 1, has_stats = TRUE, updated_at = $2%[2]s WHERE uid = $1`, column, stamp)
	return r.exec(ctx, query, uid, at)
}

func (r *userRepository) DecrementCounter(ctx context.Context, uid string, counter domain.Counter, at time.Time) error {
	column, ok := counterColumns[counter]
	if !ok {
		return domain.ValidationError("unknown counter " + string(counter))
	}
	query := fmt.Sprintf(`UPDATE users SET %[1]s = GREATEST(%[1]s - 1, 0), has_stats = TRUE, updated_at = $2 WHERE uid = $1`, column)
	return r.exec(ctx, query, uid, at)
}

func (r *userRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row scanner) (*domain.User, error) {
	var user domain.User
	var (
		hasStats      bool
		stats         domain.UserStats
		lastCompleted *time.Time
		lastLogin     *time.Time
	)

	if err := row.Scan(
		&user.UID,
		&user.Email,
		&user.Name,
		&user.Role,
		&hasStats,
		&stats.TasksCreated,
		&stats.TasksAssigned,
		&stats.TasksCompleted,
		&lastCompleted,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	if hasStats {
		stats.LastTaskCompletedAt = lastCompleted
		user.Stats = &stats
	}
	if lastLogin != nil {
		user.LastLogin = *lastLogin
	}
	return &user, nil
}
