package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "taskflow:session:"

type redisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStateStore keeps session values in one redis hash per session.
// The hash expires together with the login session.
func NewRedisStateStore(client *redis.Client, ttl time.Duration) StateStore {
	return &redisStateStore{client: client, ttl: ttl}
}

func (s *redisStateStore) Get(ctx context.Context, sessionID snowflake.ID, key string) (string, bool, error) {
	value, err := s.client.HGet(ctx, redisKey(sessionID), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *redisStateStore) Set(ctx context.Context, sessionID snowflake.ID, key, value string) error {
	hashKey := redisKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, hashKey, key, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, hashKey, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisStateStore) Delete(ctx context.Context, sessionID snowflake.ID, key string) error {
	return s.client.HDel(ctx, redisKey(sessionID), key).Err()
}

func redisKey(sessionID snowflake.ID) string {
	return fmt.Sprintf("%s%s", redisKeyPrefix, sessionID.String())
}
