package client

import (
	"context"
	"log"
	"time"

	"storefront-checkout/internal/config"

	"github.com/redis/go-redis/v9"
)

func InitRedisClient(cfg *config.Redis) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis:", err)
	}

	return client
}
