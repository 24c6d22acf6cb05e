package auth

import (
	"context"
	"sync"

	"github.com/saikiran76/dailyfix-core/internal/domain"
)

// Repository persists the last-known credential so a restart resumes with it
type Repository interface {
	GetCredential(ctx context.Context, principal string) (*domain.Credential, error)
	SaveCredential(ctx context.Context, cred *domain.Credential) error
	DeleteCredential(ctx context.Context, principal string) error
}

// MemoryRepository is an in-memory Repository for tests and DB-less runs
type MemoryRepository struct {
	mu    sync.RWMutex
	creds map[string]domain.Credential
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{creds: make(map[string]domain.Credential)}
}

// GetCredential returns the stored credential for principal
func (r *MemoryRepository) GetCredential(ctx context.Context, principal string) (*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cred, ok := r.creds[principal]
	if !ok {
		return nil, domain.ErrNoCredential
	}
	return &cred, nil
}

// SaveCredential stores the credential for its principal
func (r *MemoryRepository) SaveCredential(ctx context.Context, cred *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creds[cred.Principal] = *cred
	return nil
}

// DeleteCredential removes the credential for principal
func (r *MemoryRepository) DeleteCredential(ctx context.Context, principal string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.creds, principal)
	return nil
}
