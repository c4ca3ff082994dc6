package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisNoticeStore shares notice visibility across service instances.
type RedisNoticeStore struct {
	client redis.UniversalClient
}

var _ NoticeStore = (*RedisNoticeStore)(nil)

func NewRedisNoticeStore(client redis.UniversalClient) *RedisNoticeStore {
	return &RedisNoticeStore{client: client}
}

func (s *RedisNoticeStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim notice: %w", err)
	}
	return ok, nil
}
