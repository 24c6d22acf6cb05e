package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saikiran76/dailyfix-core/internal/domain"
)

// LinkSessionRepository implements link.Repository
type LinkSessionRepository struct {
	db *pgxpool.Pool
}

// NewLinkSessionRepository creates a new link session repository
func NewLinkSessionRepository(db *pgxpool.Pool) *LinkSessionRepository {
	return &LinkSessionRepository{db: db}
}

// SaveSession upserts the session for its (platform, user) key. Only one row
// per key is kept so a restart resumes from the latest attempt.
func (r *LinkSessionRepository) SaveSession(ctx context.Context, session *domain.LinkSession) error {
	query := `
		INSERT INTO link_sessions (platform, user_id, state, code, session_id, issued_at, expires_at, attempt_count, last_error, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (platform, user_id) DO UPDATE
		SET state = EXCLUDED.state,
		    code = EXCLUDED.code,
		    session_id = EXCLUDED.session_id,
		    issued_at = EXCLUDED.issued_at,
		    expires_at = EXCLUDED.expires_at,
		    attempt_count = EXCLUDED.attempt_count,
		    last_error = EXCLUDED.last_error,
		    updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query,
		session.Platform,
		session.UserID,
		session.State,
		session.Code,
		session.SessionID,
		session.IssuedAt,
		session.ExpiresAt,
		session.AttemptCount,
		session.LastError,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToSaveSession, err)
	}
	return nil
}

// GetSession retrieves the session for (platform, user)
func (r *LinkSessionRepository) GetSession(ctx context.Context, platform, userID string) (*domain.LinkSession, error) {
	query := `
		SELECT platform, user_id, state,
		       COALESCE(code, ''), COALESCE(session_id, ''),
		       issued_at, expires_at, attempt_count, COALESCE(last_error, '')
		FROM link_sessions
		WHERE platform = $1 AND user_id = $2
	`
	var session domain.LinkSession
	err := r.db.QueryRow(ctx, query, platform, userID).Scan(
		&session.Platform,
		&session.UserID,
		&session.State,
		&session.Code,
		&session.SessionID,
		&session.IssuedAt,
		&session.ExpiresAt,
		&session.AttemptCount,
		&session.LastError,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOperationNotFound
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetSession, err)
	}
	return &session, nil
}

// DeleteSession removes the session for (platform, user)
func (r *LinkSessionRepository) DeleteSession(ctx context.Context, platform, userID string) error {
	query := `
		DELETE FROM link_sessions
		WHERE platform = $1 AND user_id = $2
	`
	_, err := r.db.Exec(ctx, query, platform, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToDeleteSession, err)
	}
	return nil
}

// DeleteExpiredSessions removes non-terminal sessions whose code expired more
// than an hour ago. Terminal rows are kept as the last-known link outcome.
func (r *LinkSessionRepository) DeleteExpiredSessions(ctx context.Context) error {
	query := `
		DELETE FROM link_sessions
		WHERE state NOT IN ('connected', 'expired', 'error')
		  AND expires_at < NOW() - INTERVAL '1 hour'
	`
	_, err := r.db.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToCleanupSessions, err)
	}
	return nil
}
