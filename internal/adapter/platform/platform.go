package platform

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"lending-ledger/internal/domain/market"
)

var (
	_ market.Platform = (*RedisFlag)(nil)
	_ market.Platform = Static(false)
)

const flagKey = "platform:initialized"

// RedisFlag reports the platform as initialized once platform:initialized
// holds a true value. A missing key reads as not initialized; a value that is
// not a boolean is an error.
type RedisFlag struct {
	rdb *redis.Client
}

func NewRedisFlag(rdb *redis.Client) *RedisFlag { return &RedisFlag{rdb: rdb} }

func (f *RedisFlag) Initialized(ctx context.Context) (bool, error) {
	raw, err := f.rdb.Get(ctx, flagKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	ok, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s holds %q: %w", flagKey, raw, err)
	}
	return ok, nil
}

func (f *RedisFlag) Set(ctx context.Context, initialized bool) error {
	return f.rdb.Set(ctx, flagKey, strconv.FormatBool(initialized), 0).Err()
}

// Static is a fixed flag for deployments without Redis.
type Static bool

func (s Static) Initialized(context.Context) (bool, error) { return bool(s), nil }
