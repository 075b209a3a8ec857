package idempotency

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const claimKeyPrefix = "booking:claim:"

// RedisStore shares claims across instances. SET NX makes the claim atomic:
// exactly one concurrent confirmation for a booking id wins.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func claimKey(bookingID uint64) string {
	return claimKeyPrefix + strconv.FormatUint(bookingID, 10)
}

func (s *RedisStore) Claim(ctx context.Context, bookingID uint64) (bool, error) {
	return s.client.SetNX(ctx, claimKey(bookingID), "1", claimTTL).Result()
}

func (s *RedisStore) Release(ctx context.Context, bookingID uint64) error {
	return s.client.Del(ctx, claimKey(bookingID)).Err()
}
