package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"saas-backoffice/internal/model"
)

const captchaKeyPrefix = "backoffice:captcha:"

// RedisCaptchaStore shares captcha answers between instances.
type RedisCaptchaStore struct {
	client redis.UniversalClient
}

func NewRedisCaptchaStore(client redis.UniversalClient) *RedisCaptchaStore {
	return &RedisCaptchaStore{client: client}
}

func (s *RedisCaptchaStore) Save(ctx context.Context, sessionID string, answer string, ttl time.Duration) error {
	if err := s.client.Set(ctx, captchaKeyPrefix+sessionID, answer, ttl).Err(); err != nil {
		return fmt.Errorf("save captcha: %w", err)
	}
	return nil
}

func (s *RedisCaptchaStore) Take(ctx context.Context, sessionID string) (string, error) {
	answer, err := s.client.GetDel(ctx, captchaKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %s", model.ErrCaptchaNotFound, sessionID)
	}
	if err != nil {
		return "", fmt.Errorf("take captcha: %w", err)
	}
	return answer, nil
}
