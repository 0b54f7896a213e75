package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/fastygo/tasktrail/domain"
	"github.com/fastygo/tasktrail/repository"
)

type userRepository struct {
	client *firestore.Client
}

// NewUserRepository returns a UserStore over the "users" collection, keyed
// by uid.
func NewUserRepository(client *firestore.Client) repository.UserStore {
	return &userRepository{client: client}
}

func (r *userRepository) doc(uid string) *firestore.DocumentRef {
	return r.client.Collection(collectionUsers).Doc(uid)
}

func (r *userRepository) GetByID(ctx context.Context, uid string) (*domain.User, error) {
	snap, err := r.doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return decodeUser(snap)
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	iter := r.client.Collection(collectionUsers).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	users := []domain.User{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		user, err := decodeUser(snap)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil || user.UID == "" {
		return domain.ErrInvalidPayload
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	doc := userDoc{
		UID:       user.UID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		LastLogin: user.LastLogin,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if _, err := r.doc(user.UID).Create(ctx, doc); err != nil {
		if isAlreadyExists(err) {
			return domain.ErrUserExists
		}
		return err
	}
	return nil
}

func (r *userRepository) RecordLogin(ctx context.Context, uid string, at time.Time) error {
	return r.update(ctx, uid, []firestore.Update{
		{Path: "lastLogin", Value: at},
		{Path: "updatedAt", Value: at},
	})
}

func (r *userRepository) UpdateName(ctx context.Context, uid, name string, at time.Time) error {
	return r.update(ctx, uid, []firestore.Update{
		{Path: "name", Value: name},
		{Path: "updatedAt", Value: at},
	})
}

// IncrementCounter relies on the server-side Increment transform, which also
// creates the stats map on a profile that never had one.
func (r *userRepository) IncrementCounter(ctx context.Context, uid string, counter domain.Counter, at time.Time) error {
	if !counter.Valid() {
		return domain.ValidationError("unknown counter " + string(counter))
	}
	updates := []firestore.Update{
		{Path: statsPath(counter), Value: firestore.Increment(1)},
		{Path: "updatedAt", Value: at},
	}
	if counter == domain.CounterCompleted {
		updates = append(updates, firestore.Update{Path: "stats.lastTaskCompletedAt", Value: at})
	}
	return r.update(ctx, uid, updates)
}

// DecrementCounter reads and writes inside a transaction so the zero guard
// holds under concurrent writers.
func (r *userRepository) DecrementCounter(ctx context.Context, uid string, counter domain.Counter, at time.Time) error {
	if !counter.Valid() {
		return domain.ValidationError("unknown counter " + string(counter))
	}
	ref := r.doc(uid)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var current int64
		if raw, err := snap.DataAt(statsPath(counter)); err == nil {
			current, _ = raw.(int64)
		}
		next := current - 1
		if next < 0 {
			next = 0
		}
		return tx.Update(ref, []firestore.Update{
			{Path: statsPath(counter), Value: next},
			{Path: "updatedAt", Value: at},
		})
	})
	if isNotFound(err) {
		return domain.ErrUserNotFound
	}
	return err
}

func (r *userRepository) update(ctx context.Context, uid string, updates []firestore.Update) error {
	_, err := r.doc(uid).Update(ctx, updates)
	if isNotFound(err) {
		return domain.ErrUserNotFound
	}
	return err
}

func statsPath(counter domain.Counter) string {
	return "stats." + string(counter)
}

func decodeUser(snap *firestore.DocumentSnapshot) (*domain.User, error) {
	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	return doc.toDomain(snap.Ref.ID), nil
}
