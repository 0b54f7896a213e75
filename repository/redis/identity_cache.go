package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/tasktrail/domain"
	"github.com/fastygo/tasktrail/repository"
)

const identityPrefix = "identity:"

type identityCache struct {
	client *redislib.Client
}

// NewIdentityCache stores verified identities under the sha256 of the bearer
// token, so raw tokens never reach Redis.
func NewIdentityCache(client *redislib.Client) repository.IdentityCache {
	return &identityCache{client: client}
}

func (c *identityCache) Get(ctx context.Context, token string) (*domain.Identity, error) {
	result, err := c.client.Get(ctx, key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var identity domain.Identity
	if err := json.Unmarshal(result, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (c *identityCache) Save(ctx context.Context, token string, identity domain.Identity, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(token), payload, ttl).Err()
}

func key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return identityPrefix + hex.EncodeToString(sum[:])
}
