package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/bgi/launchpad-auth/internal/core/domain"
	"github.com/bgi/launchpad-auth/internal/core/ports"
)

const (
	defaultLockTTL = 10 * time.Second
	releaseTimeout = 2 * time.Second
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by someone else is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RegistrationLock is a per-email mutual-exclusion key backed by Redis.
// Key format: register:lock:<email>
type RegistrationLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRegistrationLock wraps client. The key expires after ttl so a crashed
// holder cannot block an email forever.
func NewRegistrationLock(client *redis.Client, ttl time.Duration) *RegistrationLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RegistrationLock{client: client, ttl: ttl}
}

// Acquire takes the lock for email or returns domain.ErrLockHeld if it is held.
func (l *RegistrationLock) Acquire(ctx context.Context, email string) (func(), error) {
	key := l.key(email)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("registration lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrLockHeld
	}

	return func() {
		// The request context may already be cancelled by the time we release.
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}, nil
}

func (l *RegistrationLock) key(email string) string {
	return "register:lock:" + email
}

var _ ports.RegistrationLock = (*RegistrationLock)(nil)
