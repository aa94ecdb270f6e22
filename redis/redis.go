package redis

import (
	"context"
	"correspondence-tracker/internal/config"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var Ctx = context.Background()
var RedisClient *redis.Client

const sessionTTL = 3 * 24 * time.Hour // matches the JWT lifetime

func InitRedis() {
	RedisClient = redis.NewClient(&redis.Options{
		Addr: config.AppConfig.RedisAddress,
	})
	_, err := RedisClient.Ping(Ctx).Result()
	if err != nil {
		log.Println("Redis not available. Running without Redis.")
		RedisClient = nil
		return
	}

	log.Println("Redis connected successfully.")
}

// StoreSession registers an issued token so the auth middleware accepts it.
func StoreSession(ctx context.Context, token string, userID uint64) error {
	if RedisClient == nil {
		return nil
	}
	return RedisClient.Set(ctx, token, userID, sessionTTL).Err()
}

// SessionExists reports whether the token is still a live session. With no
// Redis available every verified token is accepted.
func SessionExists(ctx context.Context, token string) bool {
	if RedisClient == nil {
		return true
	}
	exists, err := RedisClient.Exists(ctx, token).Result()
	return err == nil && exists > 0
}

// DeleteSession revokes a token on logout.
func DeleteSession(ctx context.Context, token string) error {
	if RedisClient == nil {
		return nil
	}
	return RedisClient.Del(ctx, token).Err()
}
