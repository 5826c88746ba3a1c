package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NoSupplierID подставляется в ключ защиты, когда поставщик не определен,
// чтобы позиции без поставщика дедуплицировались единообразно
const NoSupplierID int64 = -1

// redisGuardClient определяет команды Redis, нужные защите от дублей.
// Ему удовлетворяет *redis.Client
type redisGuardClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisDuplicateGuard реализует domain.DuplicateGuard на атомарном SET NX
type RedisDuplicateGuard struct {
	client redisGuardClient
	window time.Duration
}

// NewRedisDuplicateGuard создает новую защиту от дублей с заданным окном
func NewRedisDuplicateGuard(client redisGuardClient, window time.Duration) *RedisDuplicateGuard {
	return &RedisDuplicateGuard{
		client: client,
		window: window,
	}
}

// TryAcquire атомарно ставит ключ с TTL, если его нет.
// Возвращает true, если ключ уже существовал (дубликат в окне),
// false при успешном захвате этим вызовом
func (g *RedisDuplicateGuard) TryAcquire(ctx context.Context, customerID, productID, supplierID int64) (bool, error) {
	acquired, err := g.client.SetNX(ctx, guardKey(customerID, productID, supplierID), "1", g.window).Result()
	if err != nil {
		return false, fmt.Errorf("duplicate guard: failed to acquire key: %w", err)
	}
	return !acquired, nil
}

// Release безусловно снимает ключ защиты
func (g *RedisDuplicateGuard) Release(ctx context.Context, customerID, productID, supplierID int64) error {
	if err := g.client.Del(ctx, guardKey(customerID, productID, supplierID)).Err(); err != nil {
		return fmt.Errorf("duplicate guard: failed to release key: %w", err)
	}
	return nil
}

func guardKey(customerID, productID, supplierID int64) string {
	return fmt.Sprintf("dup:%d:%d:%d", customerID, productID, supplierID)
}
