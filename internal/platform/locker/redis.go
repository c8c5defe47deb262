package locker

import (
	"context"
	"fmt"
	"time"

	"aqcode/internal/common"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the lock only if we still hold it (compare-and-delete),
// so an expired lock taken over by another holder is never released by us.
var releaseScript = redis.NewScript(`
    if redis.call("get", KEYS[1]) == ARGV[1] then
        return redis.call("del", KEYS[1])
    else
        return 0
    end
`)

// RedisLocker serializes submission transitions across processes with a
// SET NX PX lock per submission id.
type RedisLocker struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, logger: logger}
}

func lockKey(submissionID string) string {
	return "submission_lock:" + submissionID
}

func (l *RedisLocker) Acquire(ctx context.Context, submissionID string) (func(), error) {
	key := lockKey(submissionID)
	lockValue := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, lockValue, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock for submission %s: %w", submissionID, err)
	}
	if !ok {
		return nil, fmt.Errorf("submission %s is being processed: %w", submissionID, common.ErrConflict)
	}

	release := func() {
		// Release against the background context so a timed-out request still
		// cleans up after itself.
		deleted, err := releaseScript.Run(context.Background(), l.rdb, []string{key}, lockValue).Result()
		if err != nil {
			l.logger.Error("failed to release submission lock",
				zap.String("submission_id", submissionID), zap.Error(err))
			return
		}
		if n, _ := deleted.(int64); n != 1 {
			l.logger.Warn("submission lock already expired or taken over",
				zap.String("submission_id", submissionID))
		}
	}
	return release, nil
}

// Connect builds the Redis client used for submission locks.
func Connect(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}
