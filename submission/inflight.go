package submission

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// InFlight hands out one marker per invoice. release must be called on every exit
// path and is safe to call more than once.
type InFlight interface {
	Acquire(ctx context.Context, invoiceID uint) (release func(), err error)
}

type MemoryInFlight struct {
	mu   sync.Mutex
	held map[uint]struct{}
}

func NewMemoryInFlight() *MemoryInFlight {
	return &MemoryInFlight{held: make(map[uint]struct{})}
}

func (m *MemoryInFlight) Acquire(_ context.Context, invoiceID uint) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, busy := m.held[invoiceID]; busy {
		return nil, ErrInFlight
	}
	m.held[invoiceID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, invoiceID)
			m.mu.Unlock()
		})
	}, nil
}

// RedisInFlight shares the markers between service instances. A marker expires after
// ttl so a crashed holder cannot block an invoice forever.
type RedisInFlight struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// Deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewRedisInFlight(client redis.UniversalClient, ttl time.Duration) *RedisInFlight {
	return &RedisInFlight{client: client, ttl: ttl}
}

func inFlightKey(invoiceID uint) string {
	return fmt.Sprintf("einvoice:inflight:%d", invoiceID)
}

func (r *RedisInFlight) Acquire(ctx context.Context, invoiceID uint) (func(), error) {
	key := inFlightKey(invoiceID)
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire in-flight marker: %w", err)
	}
	if !ok {
		return nil, ErrInFlight
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			releaseScript.Run(ctx, r.client, []string{key}, token)
		})
	}, nil
}
