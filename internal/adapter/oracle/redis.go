package oracle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"lending-ledger/internal/domain/market"
)

var _ market.PriceOracle = (*RedisOracle)(nil)

const keyPrefix = "oracle:price:"

// RedisOracle reads prices published by the feed as decimal strings under
// oracle:price:<ASSET>. A missing key means no price.
type RedisOracle struct {
	rdb *redis.Client
}

func NewRedisOracle(rdb *redis.Client) *RedisOracle { return &RedisOracle{rdb: rdb} }

func priceKey(asset string) string { return keyPrefix + strings.ToUpper(asset) }

func (o *RedisOracle) GetPrice(ctx context.Context, asset string) (uint64, bool, error) {
	raw, err := o.rdb.Get(ctx, priceKey(asset)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	p, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("oracle: bad price %q for %s: %w", raw, asset, err)
	}
	return p, true, nil
}

// SetPrice publishes a price; used by the operator CLI.
func (o *RedisOracle) SetPrice(ctx context.Context, asset string, price uint64) error {
	return o.rdb.Set(ctx, priceKey(asset), strconv.FormatUint(price, 10), 0).Err()
}

// ClearPrice removes the asset's price so readers see it as unavailable.
func (o *RedisOracle) ClearPrice(ctx context.Context, asset string) error {
	return o.rdb.Del(ctx, priceKey(asset)).Err()
}
