package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/pkg/logger"
)

const lockRetryInterval = 25 * time.Millisecond

// Deletes the key only while it still holds our token, so an expired lock taken over by
// another holder is never released by us.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// redisLocker is a SET NX PX lock shared by every API instance.
type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, log logger.Logger) service.Locker {
	return &redisLocker{client: client, ttl: ttl, logger: log}
}

func (l *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := "lock:" + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire redis lock %q failed: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		err := releaseLockScript.Run(ctx, l.client, []string{lockKey}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn("Failed to release redis lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
