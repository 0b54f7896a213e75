package firestore

import (
	"encoding/json"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fastygo/tasktrail/domain"
)

const (
	collectionTasks = "tasks"
	collectionUsers = "users"
)

type actorDoc struct {
	UID   string `firestore:"uid"`
	Name  string `firestore:"name"`
	Email string `firestore:"email"`
}

type taskDoc struct {
	Title         string                   `firestore:"title"`
	Description   string                   `firestore:"description"`
	Status        string                   `firestore:"status"`
	DueDate       time.Time                `firestore:"dueDate"`
	HasTime       bool                     `firestore:"hasTime"`
	CreatedBy     actorDoc                 `firestore:"createdBy"`
	LastUpdatedBy *actorDoc                `firestore:"lastUpdatedBy,omitempty"`
	AssignedUsers []string                 `firestore:"assignedUsers"`
	ActivityLog   []map[string]interface{} `firestore:"activityLog"`
	CreatedAt     time.Time                `firestore:"createdAt"`
	UpdatedAt     time.Time                `firestore:"updatedAt"`
}

type statsDoc struct {
	TasksCreated        int64      `firestore:"tasksCreated"`
	TasksAssigned       int64      `firestore:"tasksAssigned"`
	TasksCompleted      int64      `firestore:"tasksCompleted"`
	LastTaskCompletedAt *time.Time `firestore:"lastTaskCompletedAt"`
}

type userDoc struct {
	UID       string    `firestore:"uid"`
	Email     string    `firestore:"email"`
	Name      string    `firestore:"name"`
	Role      string    `firestore:"role"`
	Stats     *statsDoc `firestore:"stats,omitempty"`
	LastLogin time.Time `firestore:"lastLogin"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func toActorDoc(a domain.Actor) actorDoc {
	return actorDoc{UID: a.UID, Name: a.Name, Email: a.Email}
}

func (a actorDoc) toDomain() domain.Actor {
	return domain.Actor{UID: a.UID, Name: a.Name, Email: a.Email}
}

// entryToMap stores activity entries in their JSON layout so the array holds
// plain maps that ArrayUnion can compare by value.
func entryToMap(entry domain.ActivityEntry) (map[string]interface{}, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func mapToEntry(m map[string]interface{}) (domain.ActivityEntry, error) {
	var entry domain.ActivityEntry
	raw, err := json.Marshal(m)
	if err != nil {
		return entry, err
	}
	err = json.Unmarshal(raw, &entry)
	return entry, err
}

func toTaskDoc(t *domain.Task) (taskDoc, error) {
	doc := taskDoc{
		Title:         t.Title,
		Description:   t.Description,
		Status:        string(t.Status),
		DueDate:       t.DueDate,
		HasTime:       t.HasTime,
		CreatedBy:     toActorDoc(t.CreatedBy),
		AssignedUsers: append([]string{}, t.AssignedUsers...),
		ActivityLog:   make([]map[string]interface{}, 0, len(t.ActivityLog)),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	if t.LastUpdatedBy != nil {
		a := toActorDoc(*t.LastUpdatedBy)
		doc.LastUpdatedBy = &a
	}
	for _, entry := range t.ActivityLog {
		m, err := entryToMap(entry)
		if err != nil {
			return doc, err
		}
		doc.ActivityLog = append(doc.ActivityLog, m)
	}
	return doc, nil
}

func (d taskDoc) toDomain(id string) (*domain.Task, error) {
	task := &domain.Task{
		ID:            id,
		Title:         d.Title,
		Description:   d.Description,
		Status:        domain.Status(d.Status),
		DueDate:       d.DueDate,
		HasTime:       d.HasTime,
		CreatedBy:     d.CreatedBy.toDomain(),
		AssignedUsers: append([]string{}, d.AssignedUsers...),
		ActivityLog:   make([]domain.ActivityEntry, 0, len(d.ActivityLog)),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if d.LastUpdatedBy != nil {
		a := d.LastUpdatedBy.toDomain()
		task.LastUpdatedBy = &a
	}
	for _, m := range d.ActivityLog {
		entry, err := mapToEntry(m)
		if err != nil {
			return nil, err
		}
		task.ActivityLog = append(task.ActivityLog, entry)
	}
	return task, nil
}

func (d userDoc) toDomain(uid string) *domain.User {
	user := &domain.User{
		UID:       uid,
		Email:     d.Email,
		Name:      d.Name,
		Role:      d.Role,
		LastLogin: d.LastLogin,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.Stats != nil {
		user.Stats = &domain.UserStats{
			TasksCreated:        int(d.Stats.TasksCreated),
			TasksAssigned:       int(d.Stats.TasksAssigned),
			TasksCompleted:      int(d.Stats.TasksCompleted),
			LastTaskCompletedAt: d.Stats.LastTaskCompletedAt,
		}
	}
	return user
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}
