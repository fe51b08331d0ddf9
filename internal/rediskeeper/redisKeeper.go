// Package rediskeeper persists the cart ledger in Redis, for deployments
// where the cart should survive the device and follow the account.
package rediskeeper

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/drstein77/storefront/internal/models"
)

const cartKey = "storefront:cart-storage"

type Log interface {
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

type RedisKeeper struct {
	client *redis.Client
	log    Log
}

// NewRedisKeeper connects to the Redis instance named by the URI. Returns nil
// when the URI is empty or the server is unreachable.
func NewRedisKeeper(uri func() string, log Log) *RedisKeeper {
	addr := uri()
	if addr == "" {
		log.Info("redis uri is empty")
		return nil
	}

	opt, err := redis.ParseURL(addr)
	if err != nil {
		log.Error("unable to parse redis uri", zap.Error(err))
		return nil
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Error("unable to connect to redis", zap.Error(err))
		client.Close()
		return nil
	}

	log.Info("connected to redis")

	return &RedisKeeper{client: client, log: log}
}

// LoadCart restores the persisted cart lines. Missing key or corrupt payload
// both recover into an empty ledger.
func (kp *RedisKeeper) LoadCart(ctx context.Context) ([]models.CartLine, error) {
	payload, err := kp.client.Get(ctx, cartKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var lines []models.CartLine
	if err := json.Unmarshal(payload, &lines); err != nil {
		kp.log.Error("persisted cart is corrupt, starting empty", zap.Error(err))
		return nil, nil
	}
	return lines, nil
}

// SaveCart replaces the persisted record with the given lines.
func (kp *RedisKeeper) SaveCart(ctx context.Context, lines []models.CartLine) error {
	if lines == nil {
		lines = []models.CartLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return kp.client.Set(ctx, cartKey, data, 0).Err()
}

func (kp *RedisKeeper) Ping(ctx context.Context) bool {
	if kp.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	return kp.client.Ping(ctx).Err() == nil
}

func (kp *RedisKeeper) Close() bool {
	if kp.client == nil {
		return false
	}
	if err := kp.client.Close(); err != nil {
		kp.log.Error("error closing redis client", zap.Error(err))
		return false
	}
	kp.log.Info("redis client closed")
	return true
}
