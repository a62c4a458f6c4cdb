package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/servimarket/session-service/internal/core/domain"
)

// DefaultSlotKey is the fixed key holding the serialized current identity.
const DefaultSlotKey = "servimarket:session:current"

// SessionSlot persists the current identity under a single Redis key.
// A zero TTL keeps the entry until it is cleared.
type SessionSlot struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewSessionSlot creates a SessionSlot wrapping the given Redis client.
func NewSessionSlot(client *redis.Client, key string, ttl time.Duration) *SessionSlot {
	if key == "" {
		key = DefaultSlotKey
	}
	return &SessionSlot{client: client, key: key, ttl: ttl}
}

func (s *SessionSlot) Load(ctx context.Context) ([]byte, error) {
	payload, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNoSession
		}
		return nil, fmt.Errorf("slot load: %w", err)
	}
	return payload, nil
}

func (s *SessionSlot) Save(ctx context.Context, payload []byte) error {
	if err := s.client.Set(ctx, s.key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("slot save: %w", err)
	}
	return nil
}

func (s *SessionSlot) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("slot clear: %w", err)
	}
	return nil
}
