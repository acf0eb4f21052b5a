package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/dongnetalk-backend/config"
	"github.com/ikkim/dongnetalk-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// RevokeSession marks a session id as revoked until its natural expiry.
// A revoked session fails authentication even though its cookie is still valid.
func RevokeSession(ctx context.Context, sessionID string, expiry time.Duration) error {
	logger.Debug("Revoking session", map[string]interface{}{
		"expiry": expiry.String(),
	})

	key := fmt.Sprintf("session:revoked:%s", sessionID)
	err := client.Set(ctx, key, "revoked", expiry).Err()
	if err != nil {
		logger.Error("Failed to revoke session", err, nil)
		return err
	}

	logger.Debug("Session successfully revoked", nil)
	return nil
}

// IsSessionRevoked checks if a session id has been revoked
func IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	key := fmt.Sprintf("session:revoked:%s", sessionID)
	val, err := client.Get(ctx, key).Result()

	if err == redis.Nil {
		// Key does not exist - session is still live
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check session revocation", err, nil)
		return false, err
	}

	return val == "revoked", nil
}
