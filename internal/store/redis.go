package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisPrefix = "minutri:"

type redisBackend struct {
	rdb redis.UniversalClient
}

// NewRedisStore stores each record as a plain string key under "minutri:".
// Transitions and plan replacement run inside MULTI/EXEC.
func NewRedisStore(rdb redis.UniversalClient, logger *zap.Logger) *Store {
	return newStore(&redisBackend{rdb: rdb}, logger)
}

func (r *redisBackend) name() string { return "redis" }

func redisKey(key recordKey) string { return redisPrefix + key.String() }

func (r *redisBackend) get(ctx context.Context, key recordKey) ([]byte, error) {
	raw, err := r.rdb.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return raw, err
}

func (r *redisBackend) put(ctx context.Context, key recordKey, payload []byte) error {
	return r.rdb.Set(ctx, redisKey(key), payload, 0).Err()
}

func (r *redisBackend) apply(ctx context.Context, b batch) error {
	var stale []string
	if b.ResetUser {
		keys, err := r.userKeys(ctx, b.UserID)
		if err != nil {
			return err
		}
		stale = keys
	}

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(stale) > 0 {
			pipe.Del(ctx, stale...)
		}
		for _, w := range b.Writes {
			pipe.Set(ctx, redisKey(w.Key), w.Payload, 0)
		}
		return nil
	})
	return err
}

// userKeys lists every record key owned by userID.
func (r *redisBackend) userKeys(ctx context.Context, userID int) ([]string, error) {
	keys := []string{
		redisKey(recordKey{userID, nsRoadmap}),
		redisKey(recordKey{userID, nsProfile}),
		redisKey(recordKey{userID, nsModules}),
	}
	for _, kind := range []string{nsTracking, nsContent} {
		match := fmt.Sprintf("%s%s:%d:*", redisPrefix, kind, userID)
		iter := r.rdb.Scan(ctx, 0, match, 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return nil, fmt.Errorf("scan %s: %w", match, err)
		}
	}
	return keys, nil
}
