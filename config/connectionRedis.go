package config

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

func ConnectionRedis(addr string, db int) redis.UniversalClient {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("error connect to redis %s", err)
	}
	return client
}
