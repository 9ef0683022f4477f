package util

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper holds short-lived in-flight markers in Redis so that the same
// unit of work is not started twice across processes.
type Deduper struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *Deduper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduper{rdb: rdb, ttl: ttl, logger: logger}
}

func dedupKey(scope string, userID, moduleID int) string {
	return fmt.Sprintf("dedup:%s:%d:%d", scope, userID, moduleID)
}

// AcquireOnce returns true if the caller owns the marker and should proceed,
// false if the work is already in flight. Redis failures allow processing.
func (d *Deduper) AcquireOnce(ctx context.Context, scope string, userID, moduleID int) bool {
	key := dedupKey(scope, userID, moduleID)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		d.logger.Warn("Redis dedup check failed, allowing processing",
			zap.String("scope", scope),
			zap.Int("user_id", userID),
			zap.Int("module_id", moduleID),
			zap.Error(err),
		)
		return true
	}
	if !ok {
		d.logger.Info("Skipped duplicated work",
			zap.String("scope", scope),
			zap.String("dedup_key", key),
		)
	}
	return ok
}

// Release drops the marker once the work is done.
func (d *Deduper) Release(ctx context.Context, scope string, userID, moduleID int) {
	if err := d.rdb.Del(ctx, dedupKey(scope, userID, moduleID)).Err(); err != nil {
		d.logger.Warn("Failed to release dedup marker",
			zap.String("scope", scope),
			zap.Int("user_id", userID),
			zap.Int("module_id", moduleID),
			zap.Error(err),
		)
	}
}

// LocalDeduper is the single-process equivalent of Deduper.
type LocalDeduper struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewLocalDeduper() *LocalDeduper {
	return &LocalDeduper{inFlight: make(map[string]struct{})}
}

func (d *LocalDeduper) AcquireOnce(_ context.Context, scope string, userID, moduleID int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := dedupKey(scope, userID, moduleID)
	if _, busy := d.inFlight[key]; busy {
		return false
	}
	d.inFlight[key] = struct{}{}
	return true
}

func (d *LocalDeduper) Release(_ context.Context, scope string, userID, moduleID int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inFlight, dedupKey(scope, userID, moduleID))
}
