package link

import (
	"context"
	"sync"

	"github.com/saikiran76/dailyfix-core/internal/domain"
)

// Repository persists link sessions so a restart can show the last outcome
type Repository interface {
	SaveSession(ctx context.Context, session *domain.LinkSession) error
	GetSession(ctx context.Context, platform, userID string) (*domain.LinkSession, error)
	DeleteSession(ctx context.Context, platform, userID string) error
}

// MemoryRepository is an in-memory Repository for tests and DB-less runs
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.LinkSession
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]domain.LinkSession)}
}

// SaveSession stores the session under its (platform, user) key
func (r *MemoryRepository) SaveSession(ctx context.Context, session *domain.LinkSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[domain.LinkKey(session.Platform, session.UserID)] = *session
	return nil
}

// GetSession returns the stored session for (platform, user)
func (r *MemoryRepository) GetSession(ctx context.Context, platform, userID string) (*domain.LinkSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[domain.LinkKey(platform, userID)]
	if !ok {
		return nil, domain.ErrOperationNotFound
	}
	return &session, nil
}

// DeleteSession removes the stored session for (platform, user)
func (r *MemoryRepository) DeleteSession(ctx context.Context, platform, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, domain.LinkKey(platform, userID))
	return nil
}
