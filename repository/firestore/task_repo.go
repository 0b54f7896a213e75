package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/fastygo/tasktrail/domain"
	"github.com/fastygo/tasktrail/repository"
)

type taskRepository struct {
	client *firestore.Client
}

// NewTaskRepository returns a TaskRepository over the "tasks" collection.
// Field writes and the log append share one transactional document write.
func NewTaskRepository(client *firestore.Client) repository.TaskRepository {
	return &taskRepository{client: client}
}

func (r *taskRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionTasks)
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	snap, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return decodeTask(snap)
}

func (r *taskRepository) List(ctx context.Context) ([]domain.Task, error) {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	tasks := []domain.Task{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		task, err := decodeTask(snap)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	domain.SortNewestFirst(tasks)
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	doc, err := toTaskDoc(task)
	if err != nil {
		return nil, err
	}

	ref := r.collection().NewDoc()
	if task.ID != "" {
		ref = r.collection().Doc(task.ID)
	}
	if _, err := ref.Create(ctx, doc); err != nil {
		return nil, err
	}
	task.ID = ref.ID
	return task, nil
}

// Apply reads and writes inside one transaction, so the revision guard and the
// log append see the same document version.
func (r *taskRepository) Apply(ctx context.Context, id string, patch domain.TaskPatch, entry domain.ActivityEntry) (*domain.Task, error) {
	ref := r.collection().Doc(id)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc taskDoc
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		updates, err := planApply(doc, patch, entry)
		if err != nil {
			return err
		}
		return tx.Update(ref, updates)
	})
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *taskRepository) AppendActivity(ctx context.Context, id string, entry domain.ActivityEntry) error {
	_, err := r.Apply(ctx, id, domain.TaskPatch{}, entry)
	return err
}

// planApply turns a patch into field updates against the stored document.
// The log is rewritten as stored entries plus entry rather than through
// ArrayUnion, which would drop an entry equal to one already present.
func planApply(doc taskDoc, patch domain.TaskPatch, entry domain.ActivityEntry) ([]firestore.Update, error) {
	if patch.Revision > 0 && len(doc.ActivityLog) != patch.Revision {
		return nil, domain.ErrTaskConflict
	}
	logged, err := entryToMap(entry)
	if err != nil {
		return nil, err
	}
	activity := make([]map[string]interface{}, 0, len(doc.ActivityLog)+1)
	activity = append(activity, doc.ActivityLog...)
	activity = append(activity, logged)

	updates := []firestore.Update{
		{Path: "activityLog", Value: activity},
	}
	if patch.Title != nil {
		updates = append(updates, firestore.Update{Path: "title", Value: *patch.Title})
	}
	if patch.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *patch.Description})
	}
	if patch.Status != nil {
		updates = append(updates, firestore.Update{Path: "status", Value: string(*patch.Status)})
	}
	if patch.DueDate != nil {
		updates = append(updates, firestore.Update{Path: "dueDate", Value: *patch.DueDate})
	}
	if patch.HasTime != nil {
		updates = append(updates, firestore.Update{Path: "hasTime", Value: *patch.HasTime})
	}
	if patch.SetAssignees {
		updates = append(updates, firestore.Update{Path: "assignedUsers", Value: append([]string{}, patch.AssignedUsers...)})
	}
	if patch.LastUpdatedBy != nil {
		updates = append(updates, firestore.Update{Path: "lastUpdatedBy", Value: toActorDoc(*patch.LastUpdatedBy)})
	}
	if !patch.UpdatedAt.IsZero() {
		updates = append(updates, firestore.Update{Path: "updatedAt", Value: patch.UpdatedAt})
	}
	return updates, nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection().Doc(id).Delete(ctx, firestore.Exists)
	if isNotFound(err) {
		return domain.ErrTaskNotFound
	}
	return err
}

func decodeTask(snap *firestore.DocumentSnapshot) (*domain.Task, error) {
	var doc taskDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	return doc.toDomain(snap.Ref.ID)
}
