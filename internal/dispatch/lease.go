package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/admissions-inbox/pkg/logger"
	"github.com/nimasrn/admissions-inbox/pkg/redis"
)

const CycleLeaseKey = "lease:dispatch-cycle"

var ErrLeaseHeld = errors.New("lease is held by another runner")

// releaseScript deletes the key only while it still carries our token, so an
// expired lease taken over by another runner is never released by us.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Lease is a best-effort mutual exclusion held in Redis with a TTL.
type Lease struct {
	redis redis.RedisAdapter
	key   string
	ttl   time.Duration
}

func NewLease(adapter redis.RedisAdapter, key string, ttl time.Duration) *Lease {
	return &Lease{redis: adapter, key: key, ttl: ttl}
}

// Acquire returns the token identifying this holder, or ErrLeaseHeld.
func (l *Lease) Acquire(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	token := uuid.NewString()
	ok, err := l.redis.SetNX(l.key, []byte(token), l.ttl)
	if err != nil {
		return "", fmt.Errorf("acquire lease %s: %w", l.key, err)
	}
	if !ok {
		return "", ErrLeaseHeld
	}
	logger.Debug("lease acquired", "key", l.key, "ttl", l.ttl)
	return token, nil
}

// Release gives the lease back. It reports whether this token still held it.
func (l *Lease) Release(token string) (bool, error) {
	res, err := l.redis.Eval(releaseScript, []string{l.key}, token)
	if err != nil {
		return false, fmt.Errorf("release lease %s: %w", l.key, err)
	}
	n, _ := res.(int64)
	if n == 0 {
		logger.Warn("lease expired before release", "key", l.key)
	}
	return n == 1, nil
}
