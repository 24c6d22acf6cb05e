package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saikiran76/dailyfix-core/internal/database/schema"
)

// ApplySchema creates the application tables when they do not exist yet.
// Every statement is IF NOT EXISTS so running it on an initialized database
// is a no-op.
func ApplySchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	if _, err := dbPool.Exec(ctx, schema.SchemaSQL); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToApplySchema, err)
	}
	slog.Info(LogMsgSchemaApplied)
	return nil
}
