package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore remembers logged-out token ids until the tokens expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const revokedKeyPrefix = "insights:revoked:"

// redisRevocationStore keeps revoked ids as keys that expire with the token.
type redisRevocationStore struct {
	client *redis.Client
}

// NewRedisRevocationStore creates a RevocationStore backed by Redis.
func NewRedisRevocationStore(client *redis.Client) RevocationStore {
	return &redisRevocationStore{client: client}
}

func (s *redisRevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *redisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// memoryRevocationStore is the single-process fallback when Redis is not
// configured.
type memoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocationStore creates an in-process RevocationStore.
func NewMemoryRevocationStore() RevocationStore {
	return &memoryRevocationStore{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *memoryRevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	if expiresAt.After(s.now()) {
		s.revoked[tokenID] = expiresAt
	}
	return nil
}

func (s *memoryRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !expiresAt.After(s.now()) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

func (s *memoryRevocationStore) pruneLocked() {
	now := s.now()
	for id, expiresAt := range s.revoked {
		if !expiresAt.After(now) {
			delete(s.revoked, id)
		}
	}
}
