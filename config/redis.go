package config

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// InitRedis accepts REDIS_ADDR as host:port or a redis:// URL, with
// REDIS_URI and REDIS_URL as fallbacks.
func InitRedis() error {
	val := firstEnv("REDIS_ADDR", "REDIS_URI", "REDIS_URL")
	if val == "" {
		return errors.New("REDIS_ADDR (or REDIS_URI/REDIS_URL) environment variable is not set")
	}

	opt, err := redisOptions(val)
	if err != nil {
		return err
	}
	RedisClient = redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return RedisClient.Ping(ctx).Err()
}

func redisOptions(val string) (*redis.Options, error) {
	if strings.HasPrefix(val, "redis://") || strings.HasPrefix(val, "rediss://") {
		return redis.ParseURL(val)
	}
	return &redis.Options{Addr: val, Password: os.Getenv("REDIS_PASSWORD")}, nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
