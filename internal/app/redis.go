package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// initRedis создает клиент Redis для защиты от дублей и блокировок сверки
func initRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
