package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// memoryUserRepository implements UserRepository in process memory.
type memoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]models.User
	byEmail map[string]uuid.UUID
}

// NewMemoryUserRepository creates an empty in-memory user repository.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:    make(map[uuid.UUID]models.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *models.User) error {
	email := models.NormalizeEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return apperrors.ErrConflict
	}

	now := time.Now().UTC()
	user.ID = uuid.New()
	user.Email = email
	user.CreatedAt = now
	user.UpdatedAt = now

	r.byID[user.ID] = *user
	r.byEmail[email] = user.ID
	return nil
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	user := r.byID[id]
	return &user, nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &user, nil
}

// Ensure memoryUserRepository implements UserRepository at compile time.
var _ UserRepository = (*memoryUserRepository)(nil)
