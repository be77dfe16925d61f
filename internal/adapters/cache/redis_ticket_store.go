package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const ticketKeyPrefix = "birthday:tickets:"

// RedisTicketStore keeps serialized dispatch batches in Redis. Take uses
// GETDEL, so concurrent reconcilers for one batch see the entry at most once.
type RedisTicketStore struct {
	client *redis.Client
}

func NewRedisTicketStore(client *redis.Client) *RedisTicketStore {
	return &RedisTicketStore{client: client}
}

func (s *RedisTicketStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, ticketKeyPrefix+key, value, ttl).Err()
}

func (s *RedisTicketStore) Take(ctx context.Context, key string) (string, bool, error) {
	raw, err := s.client.GetDel(ctx, ticketKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return raw, true, nil
}
