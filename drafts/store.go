// Package drafts keeps unfinished invoice forms per user so a session can be resumed.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yourusername/vat-einvoice/models"
)

// Draft is the saved state of an invoice form.
type Draft struct {
	Invoice models.Invoice `json:"invoice"`
	SavedAt time.Time      `json:"saved_at"`
}

// Store saves, loads and clears one draft per user. Load returns (nil, nil) when the
// user has no draft.
type Store interface {
	Save(ctx context.Context, userID uint, d Draft) error
	Load(ctx context.Context, userID uint) (*Draft, error)
	Clear(ctx context.Context, userID uint) error
}

type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func draftKey(userID uint) string {
	return fmt.Sprintf("einvoice:draft:%d", userID)
}

func (s *RedisStore) Save(ctx context.Context, userID uint, d Draft) error {
	if d.SavedAt.IsZero() {
		d.SavedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, userID uint) (*Draft, error) {
	raw, err := s.client.Get(ctx, draftKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}

	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &d, nil
}

func (s *RedisStore) Clear(ctx context.Context, userID uint) error {
	if err := s.client.Del(ctx, draftKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}

// MemoryStore is used when redis is not configured. Drafts do not expire.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[uint]Draft
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[uint]Draft)}
}

func (s *MemoryStore) Save(_ context.Context, userID uint, d Draft) error {
	if d.SavedAt.IsZero() {
		d.SavedAt = time.Now().UTC()
	}
	s.mu.Lock()
	s.drafts[userID] = d
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, userID uint) (*Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[userID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *MemoryStore) Clear(_ context.Context, userID uint) error {
	s.mu.Lock()
	delete(s.drafts, userID)
	s.mu.Unlock()
	return nil
}
