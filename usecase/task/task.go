// Package task applies task mutations, records their activity entries and
// issues the matching statistics deltas.
package task

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/tasktrail/domain"
	"github.com/fastygo/tasktrail/pkg/logger"
	"github.com/fastygo/tasktrail/repository"
)

// StatsLedger receives counter deltas. Calls are fire-and-forget: the ledger
// logs its own failures and never reports them back.
type StatsLedger interface {
	Increment(ctx context.Context, uid string, counter domain.Counter)
	DecrementGuarded(ctx context.Context, uid string, counter domain.Counter)
}

// Input is the full set of client-editable task fields, shared by create and
// update.
type Input struct {
	Title         string
	Description   string
	Status        string
	DueDate       string
	DueTime       string
	AssignedUsers []string
}

type UseCase struct {
	tasks    repository.TaskRepository
	ledger   StatsLedger
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// Option customises a UseCase.
type Option func(*UseCase)

// WithLocation sets the zone used to interpret due dates.
func WithLocation(loc *time.Location) Option {
	return func(uc *UseCase) {
		if loc != nil {
			uc.location = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		if now != nil {
			uc.now = now
		}
	}
}

func New(tasks repository.TaskRepository, ledger StatsLedger, log *zap.Logger, opts ...Option) *UseCase {
	if log == nil {
		log = zap.NewNop()
	}
	uc := &UseCase{
		tasks:    tasks,
		ledger:   ledger,
		location: time.UTC,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   log,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// fields is a validated Input.
type fields struct {
	title       string
	description string
	status      domain.Status
	due         time.Time
	hasTime     bool
	assignees   []string
}

func (uc *UseCase) validate(in Input) (fields, error) {
	var f fields
	f.title = strings.TrimSpace(in.Title)
	if f.title == "" {
		return f, domain.ValidationError("title is required")
	}
	if strings.TrimSpace(in.DueDate) == "" {
		return f, domain.ValidationError("due date is required")
	}

	f.status = domain.StatusPending
	if in.Status != "" {
		status, err := domain.ParseStatus(in.Status)
		if err != nil {
			return f, err
		}
		f.status = status
	}

	due, hasTime, err := domain.CombineDueDate(in.DueDate, in.DueTime, uc.location)
	if err != nil {
		return f, err
	}
	f.due, f.hasTime = due, hasTime
	f.description = in.Description
	f.assignees = domain.NormalizeAssignees(in.AssignedUsers)
	return f, nil
}

// List returns tasks matching q, newest first unless q asks otherwise.
func (uc *UseCase) List(ctx context.Context, q domain.TaskQuery) ([]domain.Task, error) {
	tasks, err := uc.tasks.List(ctx)
	if err != nil {
		return nil, storeError("list tasks", err)
	}
	return q.Apply(tasks), nil
}

func (uc *UseCase) Get(ctx context.Context, id string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load task", err)
	}
	return task, nil
}

// Activity returns the task's log in insertion order.
func (uc *UseCase) Activity(ctx context.Context, id string) ([]domain.ActivityEntry, error) {
	task, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return task.ActivityLog, nil
}

// Create persists a new task whose log holds a single created entry, then
// credits the creator and every initial assignee.
func (uc *UseCase) Create(ctx context.Context, in Input, actor domain.Identity) (*domain.Task, error) {
	f, err := uc.validate(in)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	snapshot := actor.Actor()
	task := &domain.Task{
		Title:         f.title,
		Description:   f.description,
		Status:        f.status,
		DueDate:       f.due,
		HasTime:       f.hasTime,
		CreatedBy:     snapshot,
		AssignedUsers: f.assignees,
		CreatedAt:     now,
		UpdatedAt:     now,
		ActivityLog: []domain.ActivityEntry{{
			Action:     domain.ActionCreated,
			Timestamp:  now,
			ActingUser: snapshot,
			Details: domain.ActivityDetails{
				InitialStatus:    f.status,
				InitialAssignees: slices.Clone(f.assignees),
			},
		}},
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, storeError("create task", err)
	}

	uc.ledger.Increment(ctx, snapshot.UID, domain.CounterCreated)
	for _, uid := range created.AssignedUsers {
		uc.ledger.Increment(ctx, uid, domain.CounterAssigned)
	}
	if created.IsCompleted() {
		for _, uid := range created.AssignedUsers {
			uc.ledger.Increment(ctx, uid, domain.CounterCompleted)
		}
	}

	logger.WithRequestID(ctx, uc.logger).Info("task created",
		zap.String("task_id", created.ID),
		zap.String("user_id", snapshot.UID),
	)
	return created, nil
}

// UpdateStatus always appends a status_updated entry, even when the status
// is unchanged; counters move only on a real transition.
func (uc *UseCase) UpdateStatus(ctx context.Context, id, status string, actor domain.Identity) (*domain.Task, error) {
	next, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	snapshot := actor.Actor()
	var previous *domain.Task
	updated, err := uc.applyGuarded(ctx, id, func(current *domain.Task, now time.Time) (domain.TaskPatch, domain.ActivityEntry) {
		previous = current
		entry := domain.ActivityEntry{
			Action:     domain.ActionStatusUpdated,
			Timestamp:  now,
			ActingUser: snapshot,
			Details: domain.ActivityDetails{
				PreviousStatus: current.Status,
				NewStatus:      next,
			},
		}
		return domain.TaskPatch{
			Status:        &next,
			LastUpdatedBy: &snapshot,
			UpdatedAt:     now,
		}, entry
	})
	if err != nil {
		return nil, err
	}

	uc.applyTransition(ctx, domain.TransitionBetween(previous.Status, next), previous.AssignedUsers)
	return updated, nil
}

// Update replaces every editable field. Statistics follow in this order:
//
//  1. the status transition, applied to the new assignee set;
//  2. each newly added assignee gets tasksAssigned, and tasksCompleted too
//     when the new status is Completed;
//  3. removed assignees are left untouched.
//
// Step 2 counts a completion a second time for a user who is added in the
// same update that moves the task into Completed. This mirrors the
// established behavior and is most likely a defect; it is kept until product
// decides otherwise.
func (uc *UseCase) Update(ctx context.Context, id string, in Input, actor domain.Identity) (*domain.Task, error) {
	f, err := uc.validate(in)
	if err != nil {
		return nil, err
	}

	snapshot := actor.Actor()
	var (
		previous *domain.Task
		added    []string
	)
	updated, err := uc.applyGuarded(ctx, id, func(current *domain.Task, now time.Time) (domain.TaskPatch, domain.ActivityEntry) {
		previous = current
		added = domain.Difference(f.assignees, current.AssignedUsers)
		removed := domain.Difference(current.AssignedUsers, f.assignees)
		entry := domain.ActivityEntry{
			Action:     domain.ActionUpdated,
			Timestamp:  now,
			ActingUser: snapshot,
			Details:    diff(current, f, added, removed),
		}
		return domain.TaskPatch{
			Title:         &f.title,
			Description:   &f.description,
			Status:        &f.status,
			DueDate:       &f.due,
			HasTime:       &f.hasTime,
			AssignedUsers: f.assignees,
			SetAssignees:  true,
			LastUpdatedBy: &snapshot,
			UpdatedAt:     now,
		}, entry
	})
	if err != nil {
		return nil, err
	}

	uc.applyTransition(ctx, domain.TransitionBetween(previous.Status, f.status), f.assignees)
	for _, uid := range added {
		uc.ledger.Increment(ctx, uid, domain.CounterAssigned)
		if f.status == domain.StatusCompleted {
			uc.ledger.Increment(ctx, uid, domain.CounterCompleted)
		}
	}
	return updated, nil
}

// maxApplyAttempts bounds how often a mutation is rebuilt after losing a race
// with another writer on the same task.
const maxApplyAttempts = 5

type buildFunc func(current *domain.Task, now time.Time) (domain.TaskPatch, domain.ActivityEntry)

// applyGuarded reads the task, builds the patch and entry from that read and
// writes them guarded by the log length it saw. When another writer got in
// between, the write is rejected and rebuilt from a fresh read, so the entry
// and the caller's counter deltas always describe the state that was replaced.
func (uc *UseCase) applyGuarded(ctx context.Context, id string, build buildFunc) (*domain.Task, error) {
	for attempt := 1; ; attempt++ {
		current, err := uc.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		patch, entry := build(current, uc.now())
		patch.Revision = len(current.ActivityLog)

		updated, err := uc.tasks.Apply(ctx, id, patch, entry)
		switch {
		case err == nil:
			return updated, nil
		case errors.Is(err, domain.ErrTaskConflict) && attempt < maxApplyAttempts:
			logger.WithRequestID(ctx, uc.logger).Debug("task changed underneath, retrying",
				zap.String("task_id", id),
				zap.Int("attempt", attempt),
			)
		default:
			return nil, storeError("apply task mutation", err)
		}
	}
}

// Delete records a deleted entry and then removes the task with its history.
// Counters the task contributed are kept.
func (uc *UseCase) Delete(ctx context.Context, id string, actor domain.Identity) error {
	if _, err := uc.Get(ctx, id); err != nil {
		return err
	}

	entry := domain.ActivityEntry{
		Action:     domain.ActionDeleted,
		Timestamp:  uc.now(),
		ActingUser: actor.Actor(),
	}
	if err := uc.tasks.AppendActivity(ctx, id, entry); err != nil {
		return storeError("log task deletion", err)
	}
	if err := uc.tasks.Delete(ctx, id); err != nil {
		return storeError("delete task", err)
	}

	logger.WithRequestID(ctx, uc.logger).Info("task deleted",
		zap.String("task_id", id),
		zap.String("user_id", actor.UID),
	)
	return nil
}

func (uc *UseCase) applyTransition(ctx context.Context, tr domain.Transition, assignees []string) {
	switch tr {
	case domain.TransitionIntoCompleted:
		for _, uid := range assignees {
			uc.ledger.Increment(ctx, uid, domain.CounterCompleted)
		}
	case domain.TransitionOutOfCompleted:
		for _, uid := range assignees {
			uc.ledger.DecrementGuarded(ctx, uid, domain.CounterCompleted)
		}
	}
}

// diff lists only the fields that changed.
func diff(current *domain.Task, f fields, added, removed []string) domain.ActivityDetails {
	var d domain.ActivityDetails
	if current.Title != f.title {
		d.Title = &domain.Change[string]{From: current.Title, To: f.title}
	}
	if current.Description != f.description {
		d.Description = &domain.Change[string]{From: current.Description, To: f.description}
	}
	if current.Status != f.status {
		d.Status = &domain.Change[domain.Status]{From: current.Status, To: f.status}
	}
	if !current.DueDate.Equal(f.due) {
		d.DueDate = &domain.Change[time.Time]{From: current.DueDate, To: f.due}
	}
	if current.HasTime != f.hasTime {
		d.HasTime = &domain.Change[bool]{From: current.HasTime, To: f.hasTime}
	}
	if len(added) > 0 || len(removed) > 0 {
		d.Assignment = &domain.AssignmentChange{
			Added:   added,
			Removed: removed,
			Current: slices.Clone(f.assignees),
		}
	}
	return d
}

// storeError passes domain errors through and classifies everything else as
// internal.
func storeError(op string, err error) error {
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return err
	}
	return domain.InternalError(op, err)
}
