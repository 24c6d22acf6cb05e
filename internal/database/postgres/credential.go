package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saikiran76/dailyfix-core/internal/domain"
)

// CredentialRepository implements auth.Repository
type CredentialRepository struct {
	db *pgxpool.Pool
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *pgxpool.Pool) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// GetCredential retrieves the stored credential for a principal
func (r *CredentialRepository) GetCredential(ctx context.Context, principal string) (*domain.Credential, error) {
	query := `
		SELECT principal, access_token, refresh_token, expires_at
		FROM credentials
		WHERE principal = $1
	`
	var cred domain.Credential
	err := r.db.QueryRow(ctx, query, principal).Scan(
		&cred.Principal,
		&cred.AccessToken,
		&cred.RefreshToken,
		&cred.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoCredential
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetCredential, err)
	}
	return &cred, nil
}

// SaveCredential stores the credential, replacing any previous one for the
// same principal. The credential is written as a whole row so readers never
// see a half-updated token pair.
func (r *CredentialRepository) SaveCredential(ctx context.Context, cred *domain.Credential) error {
	query := `
		INSERT INTO credentials (principal, access_token, refresh_token, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (principal) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query,
		cred.Principal,
		cred.AccessToken,
		cred.RefreshToken,
		cred.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToSaveCredential, err)
	}
	return nil
}

// DeleteCredential removes the stored credential for a principal
func (r *CredentialRepository) DeleteCredential(ctx context.Context, principal string) error {
	query := `
		DELETE FROM credentials
		WHERE principal = $1
	`
	_, err := r.db.Exec(ctx, query, principal)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToDeleteCredential, err)
	}
	return nil
}
