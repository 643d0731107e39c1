// pkg/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"edu-portal/internal/models"

	"github.com/go-redis/redis/v8"
)

// ErrMiss is returned when the key is not cached.
var ErrMiss = errors.New("cache miss")

const quizTTL = 24 * time.Hour

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr string) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{client: client}
}

func quizKey(lessonID uint) string {
	return fmt.Sprintf("quiz:%d", lessonID)
}

func (c *RedisCache) SetQuiz(ctx context.Context, lessonID uint, quiz *models.QuizPayload) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, quizKey(lessonID), data, quizTTL).Err()
}

func (c *RedisCache) GetQuiz(ctx context.Context, lessonID uint) (*models.QuizPayload, error) {
	data, err := c.client.Get(ctx, quizKey(lessonID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var quiz models.QuizPayload
	if err := json.Unmarshal(data, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
