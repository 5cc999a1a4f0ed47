package cooldown

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"pdtoken/pkg/domain"
	"pdtoken/pkg/platform/sentinel"
)

// Redis key prefix for cooldown entries.
const cooldownKeyPrefix = "cooldown:addr:"

// RedisStore is a Redis-backed cooldown store for deployments where several
// controller instances share registry state. Values are absolute block
// heights; entries are cleared explicitly, not by TTL, because block time is
// not wall time.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedis constructs a Redis-backed cooldown store.
func NewRedis(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Set(ctx context.Context, addr domain.Address, untilBlock uint64) error {
	key := cooldownKeyPrefix + addr.String()
	if err := s.client.Set(ctx, key, strconv.FormatUint(untilBlock, 10), 0).Err(); err != nil {
		return fmt.Errorf("%w: set cooldown for %s: %v", sentinel.ErrUnavailable, addr, err)
	}
	return nil
}

func (s *RedisStore) Until(ctx context.Context, addr domain.Address) (uint64, bool, error) {
	key := cooldownKeyPrefix + addr.String()
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: get cooldown for %s: %v", sentinel.ErrUnavailable, addr, err)
	}
	until, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse cooldown for %s: %w", addr, err)
	}
	return until, true, nil
}

func (s *RedisStore) Clear(ctx context.Context, addr domain.Address) error {
	key := cooldownKeyPrefix + addr.String()
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: clear cooldown for %s: %v", sentinel.ErrUnavailable, addr, err)
	}
	return nil
}
