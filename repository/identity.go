package repository

import (
	"context"
	"time"

	"github.com/fastygo/tasktrail/domain"
)

// IdentityCache remembers verified tokens so repeated requests skip
// signature verification. A miss returns (nil, nil).
type IdentityCache interface {
	Get(ctx context.Context, token string) (*domain.Identity, error)
	Save(ctx context.Context, token string, identity domain.Identity, ttl time.Duration) error
}
