package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tix-voucher/internal/logger"

	"github.com/go-redis/redis/v8"
)

// Redis stores ledger documents as plain string keys without expiry.
type Redis struct {
	Client *redis.Client
	Prefix string
	Logger *logger.Logger
}

func NewRedis(client *redis.Client, prefix string, log *logger.Logger) *Redis {
	if log == nil {
		log = logger.NewNop()
	}
	return &Redis{
		Client: client,
		Prefix: prefix,
		Logger: log,
	}
}

// Connect dials addr and verifies the connection with a PING.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection error: %w", err)
	}
	return client, nil
}

func (r *Redis) key(key string) string {
	return r.Prefix + key
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.Client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		r.Logger.LogStorage("GET", key, "miss")
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	r.Logger.LogStorage("GET", key, fmt.Sprintf("%d bytes", len(val)))
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.Client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	r.Logger.LogStorage("SET", key, fmt.Sprintf("%d bytes", len(value)))
	return nil
}

func (r *Redis) Clear(ctx context.Context, key string) error {
	if err := r.Client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	r.Logger.LogStorage("DEL", key, "cleared")
	return nil
}
