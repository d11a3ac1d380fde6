package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultSentTTL is how long delivered-reminder keys are retained.
// A reminder can only recur on the same calendar date via a replayed
// or overlapping run, so anything past two days is dead weight.
const DefaultSentTTL = 48 * time.Hour

// SentLog records delivered reminders so a replayed run does not
// notify the same tenant about the same occurrence twice. It
// implements pipeline.SentLog.
type SentLog struct {
	client *Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSentLog creates a sent-log over the given client. A zero ttl
// falls back to DefaultSentTTL.
func NewSentLog(client *Client, ttl time.Duration, logger *zap.Logger) *SentLog {
	if ttl <= 0 {
		ttl = DefaultSentTTL
	}
	return &SentLog{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Seen reports whether key was already marked as delivered.
func (s *SentLog) Seen(ctx context.Context, key string) (bool, error) {
	_, err := s.client.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	return true, nil
}

// Mark records key as delivered. Called only after the tenant's
// notification was accepted by the delivery channel, so a failed
// dispatch stays eligible when the run is replayed.
func (s *SentLog) Mark(ctx context.Context, key string) error {
	if err := s.client.rdb.Set(ctx, key, "1", s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	s.logger.Debug("reminder marked as sent", zap.String("key", key))
	return nil
}
