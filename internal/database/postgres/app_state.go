package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AppStateRepository persists small key-value application state, such as the
// last active platform, across restarts
type AppStateRepository struct {
	db *pgxpool.Pool
}

// NewAppStateRepository creates a new app state repository
func NewAppStateRepository(db *pgxpool.Pool) *AppStateRepository {
	return &AppStateRepository{db: db}
}

// Get returns the stored value for key, or "" when the key is absent
func (r *AppStateRepository) Get(ctx context.Context, key string) (string, error) {
	query := `
		SELECT value
		FROM app_state
		WHERE key = $1
	`
	var value string
	err := r.db.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("%s: %w", ErrMsgFailedToGetAppState, err)
	}
	return value, nil
}

// Set upserts the value for key
func (r *AppStateRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO app_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, key, value)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToSetAppState, err)
	}
	return nil
}
