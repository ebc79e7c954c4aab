// Package prefs persists per-user dashboard preferences: which payrun
// table columns are visible and the preferred page size. Preferences are
// cosmetic, so storage failures degrade to defaults rather than errors.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Column identifiers for the payrun invoice table.
const (
	ColInvoiceNumber = "invoiceNumber"
	ColDueDate       = "dueDate"
	ColReference     = "reference"
	ColDestination   = "destination"
	ColTotalAmount   = "totalAmount"
	ColAmountToPay   = "amountToPay"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Preferences is one user's dashboard configuration.
type Preferences struct {
	HiddenColumns []string `json:"hiddenColumns"`
	PageSize      int      `json:"pageSize"`
}

// Defaults returns the out-of-the-box preferences: every column visible.
func Defaults() Preferences {
	return Preferences{PageSize: DefaultPageSize}
}

// Normalize clamps the page size and drops unknown column names.
func (p Preferences) Normalize() Preferences {
	if p.PageSize <= 0 || p.PageSize > MaxPageSize {
		p.PageSize = DefaultPageSize
	}
	known := map[string]bool{
		ColInvoiceNumber: true,
		ColDueDate:       true,
		ColReference:     true,
		ColDestination:   true,
		ColTotalAmount:   true,
		ColAmountToPay:   true,
	}
	cols := p.HiddenColumns[:0]
	for _, c := range p.HiddenColumns {
		if known[c] {
			cols = append(cols, c)
		}
	}
	p.HiddenColumns = cols
	return p
}

// Store reads and writes preferences keyed by user.
type Store interface {
	Get(ctx context.Context, userID string) (Preferences, error)
	Put(ctx context.Context, userID string, p Preferences) error
}

const redisKeyPrefix = "paydesk:prefs:"

// RedisStore keeps preferences as JSON values without expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a store. A zero ttl means preferences never expire.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, userID string) (Preferences, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), fmt.Errorf("prefs: get: %w", err)
	}
	var p Preferences
	if err := json.Unmarshal(raw, &p); err != nil {
		return Defaults(), fmt.Errorf("prefs: decode: %w", err)
	}
	return p.Normalize(), nil
}

func (s *RedisStore) Put(ctx context.Context, userID string, p Preferences) error {
	raw, err := json.Marshal(p.Normalize())
	if err != nil {
		return fmt.Errorf("prefs: encode: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+userID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("prefs: put: %w", err)
	}
	return nil
}

// MemoryStore is an in-process store for tests and local development.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Preferences
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Preferences)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[userID]
	if !ok {
		return Defaults(), nil
	}
	return p, nil
}

func (s *MemoryStore) Put(_ context.Context, userID string, p Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[userID] = p.Normalize()
	return nil
}
