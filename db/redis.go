package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client
var Ctx = context.Background()

const (
	ReportQueueKey = "lifeos:queue:report"
	DeadLetterKey  = "lifeos:queue:failed"
)

func ConnectRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return fmt.Errorf("REDIS_URL environment variable is not set")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	Redis = redis.NewClient(opt)

	_, err = Redis.Ping(Ctx).Result()
	return err
}

func CloseRedis() {
	if Redis != nil {
		Redis.Close()
	}
}

func PushToQueue(queueKey string, data string) error {
	return Redis.LPush(Ctx, queueKey, data).Err()
}

// PopFromQueue blocks for up to timeout. It returns redis.Nil when the
// queue stayed empty.
func PopFromQueue(queueKey string, timeout time.Duration) (string, error) {
	result, err := Redis.BRPop(Ctx, timeout, queueKey).Result()
	if err != nil {
		return "", err
	}
	return result[1], nil
}

func GetQueueLength(queueKey string) (int64, error) {
	return Redis.LLen(Ctx, queueKey).Result()
}

// RedisQueue adapts the list helpers to a named queue with a dead letter list.
type RedisQueue struct {
	Key     string
	DeadKey string
}

func NewReportQueue() RedisQueue {
	return RedisQueue{Key: ReportQueueKey, DeadKey: DeadLetterKey}
}

func (q RedisQueue) Push(data string) error {
	return PushToQueue(q.Key, data)
}

func (q RedisQueue) Pop(timeout time.Duration) (string, bool, error) {
	data, err := PopFromQueue(q.Key, timeout)
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return data, true, nil
}

func (q RedisQueue) DeadLetter(data string) error {
	return PushToQueue(q.DeadKey, data)
}
