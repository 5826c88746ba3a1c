package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/bsm/redislock"
)

// RedisRunLocker реализует domain.RunLocker на redislock
type RedisRunLocker struct {
	client *redislock.Client
}

// NewRedisRunLocker создает новый RedisRunLocker
func NewRedisRunLocker(client *redislock.Client) *RedisRunLocker {
	return &RedisRunLocker{client: client}
}

// Obtain захватывает токен взаимного исключения.
// Занятый токен транслируется в domain.ErrReconciliationRunning
func (l *RedisRunLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (domain.RunLock, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, domain.ErrReconciliationRunning
		}
		return nil, fmt.Errorf("run locker: failed to obtain lock %q: %w", key, err)
	}
	return lock, nil
}
