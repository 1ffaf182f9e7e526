package proctoring

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldCount = "count"
	fieldLast  = "last_warning_at"
)

// RedisWarningStore keeps warning state in a Redis hash per key, with a
// TTL so abandoned attempts age out on their own.
type RedisWarningStore struct {
	client *redis.Client
}

func NewRedisWarningStore(client *redis.Client) *RedisWarningStore {
	return &RedisWarningStore{client: client}
}

func (s *RedisWarningStore) Get(ctx context.Context, key string) (WarningState, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return WarningState{}, err
	}
	if len(fields) == 0 {
		return WarningState{}, nil
	}

	var state WarningState
	if v, ok := fields[fieldCount]; ok {
		state.Count, _ = strconv.Atoi(v)
	}
	if v, ok := fields[fieldLast]; ok {
		if nanos, err := strconv.ParseInt(v, 10, 64); err == nil {
			state.LastWarningAt = time.Unix(0, nanos)
		}
	}
	return state, nil
}

func (s *RedisWarningStore) Put(ctx context.Context, key string, state WarningState, ttl time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		fieldCount, strconv.Itoa(state.Count),
		fieldLast, strconv.FormatInt(state.LastWarningAt.UnixNano(), 10),
	)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisWarningStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
