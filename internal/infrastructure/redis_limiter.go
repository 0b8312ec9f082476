package infrastructure

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisLimiter is the multi-instance variant of the sliding-window limiter:
// one sorted set per key, scored by timestamp, expired with the window.
// It fails open: if Redis is unreachable the request is allowed, because a
// cache outage must not take the webhook down with it.
type RedisLimiter struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisLimiter(addr, password string, logger *zap.Logger) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisLimiter{client: client, logger: logger}, nil
}

func (rl *RedisLimiter) Allow(key string, limit int, window time.Duration) bool {
	if limit <= 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	now := time.Now()
	redisKey := "rl:" + key
	minScore := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := rl.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", minScore)
	count := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.Warn("redis limiter unavailable, allowing request", zap.Error(err))
		return true
	}

	if count.Val() >= int64(limit) {
		return false
	}

	member := strconv.FormatInt(now.UnixNano(), 10)
	pipe = rl.client.TxPipeline()
	pipe.ZAdd(ctx, redisKey, &redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.Warn("redis limiter record failed", zap.Error(err))
	}
	return true
}

func (rl *RedisLimiter) Close() error {
	return rl.client.Close()
}
