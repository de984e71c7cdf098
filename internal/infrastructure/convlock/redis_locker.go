package convlock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"helpdesk/services/conversation-api/internal/utils/platformerrors"
)

// RedisLocker serializes conversation mutations across processes using
// redsync mutexes. The TTL bounds how long a crashed holder can block other
// writers.
type RedisLocker struct {
	rs  *redsync.Redsync
	ttl time.Duration
	log zerolog.Logger
}

// NewRedisLocker builds a distributed locker on an existing redis client.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, log zerolog.Logger) *RedisLocker {
	return &RedisLocker{
		rs:  redsync.New(goredis.NewPool(client)),
		ttl: ttl,
		log: log.With().Str("component", "conversation-lock").Logger(),
	}
}

// WithLock implements Locker. Acquisition failure surfaces as a CONFLICT
// error; the lifecycle service retries a bounded number of times.
func (l *RedisLocker) WithLock(ctx context.Context, conversationID uint, fn func() error) error {
	mutex := l.rs.NewMutex(lockKey(conversationID), redsync.WithExpiry(l.ttl))

	if err := mutex.LockContext(ctx); err != nil {
		return platformerrors.Wrap(platformerrors.LayerInfrastructure, platformerrors.ErrorTypeConflict, err, "acquire conversation lock")
	}

	defer func() {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			l.log.Error().Err(err).Uint("conversation_id", conversationID).Msg("failed to release conversation lock")
		}
	}()

	return fn()
}

func lockKey(conversationID uint) string {
	return fmt.Sprintf("lock:conversation:%d", conversationID)
}
