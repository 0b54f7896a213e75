package bolt

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/tasktrail/domain"
	boltInfra "github.com/fastygo/tasktrail/internal/infrastructure/bolt"
	"github.com/fastygo/tasktrail/repository"
)

type userRepository struct {
	db     *bolt.DB
	bucket []byte
}

// NewUserRepository returns a BoltDB-backed users collection.
func NewUserRepository(db *bolt.DB) repository.UserStore {
	return &userRepository{db: db, bucket: []byte(boltInfra.BucketUsers)}
}

func (r *userRepository) GetByID(ctx context.Context, uid string) (*domain.User, error) {
	var user *domain.User
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		user, err = r.load(tx, uid)
		return err
	})
	return user, err
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(r.bucket).ForEach(func(k, v []byte) error {
			var user domain.User
			if err := json.Unmarshal(v, &user); err != nil {
				return err
			}
			users = append(users, user)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UID < users[j].UID })
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil || user.UID == "" {
		return domain.ErrInvalidPayload
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(r.bucket).Get([]byte(user.UID)) != nil {
			return domain.ErrUserExists
		}
		return r.store(tx, user)
	})
}

func (r *userRepository) RecordLogin(ctx context.Context, uid string, at time.Time) error {
	return r.mutate(uid, func(u *domain.User) {
		u.LastLogin = at
		u.UpdatedAt = at
	})
}

func (r *userRepository) UpdateName(ctx context.Context, uid, name string, at time.Time) error {
	return r.mutate(uid, func(u *domain.User) {
		u.Name = name
		u.UpdatedAt = at
	})
}

func (r *userRepository) IncrementCounter(ctx context.Context, uid string, counter domain.Counter, at time.Time) error {
	return r.bump(uid, counter, 1, at)
}

func (r *userRepository) DecrementCounter(ctx context.Context, uid string, counter domain.Counter, at time.Time) error {
	return r.bump(uid, counter, -1, at)
}

func (r *userRepository) bump(uid string, counter domain.Counter, delta int, at time.Time) error {
	if !counter.Valid() {
		return domain.ValidationError("unknown counter " + string(counter))
	}
	return r.mutate(uid, func(u *domain.User) {
		if u.Stats == nil {
			u.Stats = &domain.UserStats{}
		}
		u.Stats.Bump(counter, delta, at)
		u.UpdatedAt = at
	})
}

func (r *userRepository) mutate(uid string, fn func(*domain.User)) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		user, err := r.load(tx, uid)
		if err != nil {
			return err
		}
		fn(user)
		return r.store(tx, user)
	})
}

func (r *userRepository) load(tx *bolt.Tx, uid string) (*domain.User, error) {
	raw := tx.Bucket(r.bucket).Get([]byte(uid))
	if raw == nil {
		return nil, domain.ErrUserNotFound
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) store(tx *bolt.Tx, user *domain.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return tx.Bucket(r.bucket).Put([]byte(user.UID), payload)
}
