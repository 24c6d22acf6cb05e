package bootstrap

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saikiran76/dailyfix-core/internal/auth"
	"github.com/saikiran76/dailyfix-core/internal/database/postgres"
)

// Repositories holds all repository implementations used by the application.
// This provides a centralized location for repository initialization and
// makes dependency injection clearer. LinkSession stays concrete because the
// cleanup worker needs DeleteExpiredSessions on top of the link.Repository
// surface.
type Repositories struct {
	Credential  auth.Repository
	LinkSession *postgres.LinkSessionRepository
	AppState    *postgres.AppStateRepository
}

// InitializeRepositories creates all repository implementations.
func InitializeRepositories(dbPool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Credential:  postgres.NewCredentialRepository(dbPool),
		LinkSession: postgres.NewLinkSessionRepository(dbPool),
		AppState:    postgres.NewAppStateRepository(dbPool),
	}
}
