package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrNotAcquired = errors.New("lock not acquired")

// unlockScript deletes the key only when it still holds our token, so an
// expired lock taken over by another holder is never deleted by us.
const unlockScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// DistributedLock is a redis SETNX lock with an expiry guard. It serializes
// redeliveries of the same event across instances and only avoids wasted
// concurrent work; correctness rests on the ledger's idempotency keys, not
// on the lock.
type DistributedLock struct {
	client     *redis.Client
	key        string
	token      string
	expiration time.Duration
}

func New(client *redis.Client, key, token string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		token:      token,
		expiration: expiration,
	}
}

// TryLock attempts to acquire the lock without blocking.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.token, l.expiration).Result()
}

// Unlock releases the lock if we still hold it.
func (l *DistributedLock) Unlock(ctx context.Context) error {
	_, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.token).Result()
	return err
}

// NewOrderLock keys a distribution lock by order id. The token identifies
// which delivery holds the lock.
func NewOrderLock(client *redis.Client, orderID, token string) *DistributedLock {
	return New(client, fmt.Sprintf("distribution:lock:order:%s", orderID), token, 30*time.Second)
}
