package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/tasktrail/domain"
	"github.com/fastygo/tasktrail/pkg/logger"
	"github.com/fastygo/tasktrail/repository"
)

type UseCase struct {
	users  repository.UserRepository
	now    func() time.Time
	logger *zap.Logger
}

func New(users repository.UserRepository, log *zap.Logger) *UseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		now:    func() time.Time { return time.Now().UTC() },
		logger: log,
	}
}

// SignIn creates the caller's profile on first sign-in and refreshes
// lastLogin afterwards. New profiles carry no stats; the ledger creates them
// on the first counter write. name overrides the identity's display name for
// new profiles only.
func (uc *UseCase) SignIn(ctx context.Context, id domain.Identity, name string) (*domain.User, error) {
	now := uc.now()
	existing, err := uc.users.GetByID(ctx, id.UID)
	switch {
	case err == nil:
		if err := uc.users.RecordLogin(ctx, id.UID, now); err != nil {
			return nil, wrap("record login", err)
		}
		existing.LastLogin, existing.UpdatedAt = now, now
		return existing, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, wrap("load profile", err)
	}

	if name = strings.TrimSpace(name); name == "" {
		name = id.Name
	}
	user := &domain.User{
		UID:       id.UID,
		Email:     id.Email,
		Name:      name,
		Role:      domain.DefaultRole,
		LastLogin: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			// Lost a race with a concurrent sign-in.
			return uc.SignIn(ctx, id, name)
		}
		return nil, wrap("create profile", err)
	}

	logger.WithRequestID(ctx, uc.logger).Info("profile created", zap.String("user_id", id.UID))
	return user, nil
}

func (uc *UseCase) Get(ctx context.Context, uid string) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, uid)
	if err != nil {
		return nil, wrap("load profile", err)
	}
	return user, nil
}

// List returns every profile, for assignment pickers.
func (uc *UseCase) List(ctx context.Context) ([]domain.User, error) {
	users, err := uc.users.List(ctx)
	if err != nil {
		return nil, wrap("list profiles", err)
	}
	return users, nil
}

// Rename changes the caller's display name. Stats are never writable here.
func (uc *UseCase) Rename(ctx context.Context, uid, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ValidationError("name is required")
	}
	if err := uc.users.UpdateName(ctx, uid, name, uc.now()); err != nil {
		return nil, wrap("rename profile", err)
	}
	return uc.Get(ctx, uid)
}

func wrap(op string, err error) error {
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return err
	}
	return domain.InternalError(op, err)
}
