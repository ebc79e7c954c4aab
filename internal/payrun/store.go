package payrun

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when no live session exists for an ID.
var ErrSessionNotFound = errors.New("payrun: session not found")

// SessionStore persists edit sessions for the duration of a view session.
// Sessions are never persisted beyond their TTL: abandoning the view simply
// lets the working state expire.
type SessionStore interface {
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RedisSessionStore keeps session snapshots in Redis as JSON with a sliding
// TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore constructs the store. A non-positive TTL falls back
// to one hour.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionRedisKey(id uuid.UUID) string {
	return "paydesk:payrun:session:" + id.String()
}

// Get loads a session snapshot and refreshes its TTL.
func (st *RedisSessionStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	data, err := st.client.Get(ctx, sessionRedisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("payrun: load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("payrun: decode session: %w", err)
	}
	_ = st.client.Expire(ctx, sessionRedisKey(id), st.ttl).Err()
	return &sess, nil
}

// Put stores a session snapshot under the store TTL.
func (st *RedisSessionStore) Put(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("payrun: encode session: %w", err)
	}
	if err := st.client.Set(ctx, sessionRedisKey(s.ID), data, st.ttl).Err(); err != nil {
		return fmt.Errorf("payrun: store session: %w", err)
	}
	return nil
}

// Delete drops a session snapshot.
func (st *RedisSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := st.client.Del(ctx, sessionRedisKey(id)).Err(); err != nil {
		return fmt.Errorf("payrun: delete session: %w", err)
	}
	return nil
}

// MemorySessionStore is an in-process store used in tests and single-node
// development runs.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewMemorySessionStore constructs an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[uuid.UUID]*Session)}
}

func (st *MemorySessionStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (st *MemorySessionStore) Put(ctx context.Context, s *Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
	return nil
}

func (st *MemorySessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
	return nil
}
