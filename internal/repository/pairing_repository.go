package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brightsteps/clinic-scheduling-api/internal/models"
)

// ErrNoSession is returned when a pairing session does not exist or expired.
var ErrNoSession = errors.New("pairing session not found")

// RedisPairingStore keeps pairing sessions in Redis with a TTL so abandoned
// handshakes expire on their own. Every write refreshes the TTL.
type RedisPairingStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPairingStore instantiates RedisPairingStore.
func NewRedisPairingStore(client *redis.Client, ttl time.Duration) *RedisPairingStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisPairingStore{client: client, ttl: ttl}
}

func pairingKey(id string) string {
	return fmt.Sprintf("pairing:session:%s", id)
}

func (s *RedisPairingStore) Save(ctx context.Context, session *models.PairingSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, pairingKey(session.ID), payload, s.ttl).Err()
}

func (s *RedisPairingStore) Find(ctx context.Context, id string) (*models.PairingSession, error) {
	payload, err := s.client.Get(ctx, pairingKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	var session models.PairingSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// MemoryPairingStore is an in-process store for tests and single-node runs
// without Redis. Entries never expire.
type MemoryPairingStore struct {
	mu       sync.RWMutex
	sessions map[string]models.PairingSession
}

// NewMemoryPairingStore instantiates MemoryPairingStore.
func NewMemoryPairingStore() *MemoryPairingStore {
	return &MemoryPairingStore{sessions: map[string]models.PairingSession{}}
}

func (s *MemoryPairingStore) Save(_ context.Context, session *models.PairingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *MemoryPairingStore) Find(_ context.Context, id string) (*models.PairingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNoSession
	}
	copied := session
	return &copied, nil
}
