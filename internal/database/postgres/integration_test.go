package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saikiran76/dailyfix-core/internal/database"
	"github.com/saikiran76/dailyfix-core/internal/database/schema"
	"github.com/saikiran76/dailyfix-core/internal/domain"
)

func TestRepositories_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// Start Postgres container
	var pgContainer *postgres.PostgresContainer
	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Skipf("Skipping integration test due to panic (likely Docker issue): %v", r)
			}
		}()
		pgContainer, err = postgres.Run(ctx,
			"postgres:15-alpine",
			postgres.WithDatabase("testdb"),
			postgres.WithUsername("testuser"),
			postgres.WithPassword("testpass"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(5*time.Second)),
		)
	}()

	if pgContainer == nil {
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}
		return
	}
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	// Connect to database
	pool, err := database.NewPool(connStr, 10, 30*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Initialize schema
	if _, err := pool.Exec(ctx, schema.SchemaSQL); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	t.Run("Credentials", func(t *testing.T) {
		repo := NewCredentialRepository(pool)

		t.Run("SaveAndGet", func(t *testing.T) {
			cred := &domain.Credential{
				Principal:    "default",
				AccessToken:  "at-1",
				RefreshToken: "rt-1",
				ExpiresAt:    time.Now().Add(1 * time.Hour).UTC(),
			}

			if err := repo.SaveCredential(ctx, cred); err != nil {
				t.Fatalf("SaveCredential failed: %v", err)
			}

			retrieved, err := repo.GetCredential(ctx, "default")
			if err != nil {
				t.Fatalf("GetCredential failed: %v", err)
			}

			if retrieved.AccessToken != "at-1" {
				t.Errorf("Expected access token at-1, got %s", retrieved.AccessToken)
			}
			if retrieved.RefreshToken != "rt-1" {
				t.Errorf("Expected refresh token rt-1, got %s", retrieved.RefreshToken)
			}
		})

		t.Run("SaveReplacesWholeRow", func(t *testing.T) {
			cred := &domain.Credential{
				Principal:    "default",
				AccessToken:  "at-2",
				RefreshToken: "rt-2",
				ExpiresAt:    time.Now().Add(2 * time.Hour).UTC(),
			}

			if err := repo.SaveCredential(ctx, cred); err != nil {
				t.Fatalf("SaveCredential failed: %v", err)
			}

			retrieved, err := repo.GetCredential(ctx, "default")
			if err != nil {
				t.Fatalf("GetCredential failed: %v", err)
			}

			if retrieved.AccessToken != "at-2" || retrieved.RefreshToken != "rt-2" {
				t.Errorf("Expected replaced token pair, got %s/%s", retrieved.AccessToken, retrieved.RefreshToken)
			}
		})

		t.Run("GetMissingReturnsNoCredential", func(t *testing.T) {
			_, err := repo.GetCredential(ctx, "nobody")
			if !errors.Is(err, domain.ErrNoCredential) {
				t.Errorf("Expected ErrNoCredential, got %v", err)
			}
		})

		t.Run("Delete", func(t *testing.T) {
			if err := repo.DeleteCredential(ctx, "default"); err != nil {
				t.Fatalf("DeleteCredential failed: %v", err)
			}

			_, err := repo.GetCredential(ctx, "default")
			if !errors.Is(err, domain.ErrNoCredential) {
				t.Errorf("Expected ErrNoCredential after delete, got %v", err)
			}
		})
	})

	t.Run("LinkSessions", func(t *testing.T) {
		repo := NewLinkSessionRepository(pool)

		t.Run("SaveAndGet", func(t *testing.T) {
			session := &domain.LinkSession{
				Platform:     domain.PlatformWhatsApp,
				UserID:       "user1",
				State:        domain.LinkStateCodeReady,
				Code:         "QR-1",
				SessionID:    "sess-1",
				IssuedAt:     time.Now().UTC(),
				ExpiresAt:    time.Now().Add(1 * time.Minute).UTC(),
				AttemptCount: 1,
			}

			if err := repo.SaveSession(ctx, session); err != nil {
				t.Fatalf("SaveSession failed: %v", err)
			}

			retrieved, err := repo.GetSession(ctx, domain.PlatformWhatsApp, "user1")
			if err != nil {
				t.Fatalf("GetSession failed: %v", err)
			}

			if retrieved.State != domain.LinkStateCodeReady {
				t.Errorf("Expected state %s, got %s", domain.LinkStateCodeReady, retrieved.State)
			}
			if retrieved.Code != "QR-1" {
				t.Errorf("Expected code QR-1, got %s", retrieved.Code)
			}
		})

		t.Run("SaveUpsertsByKey", func(t *testing.T) {
			session := &domain.LinkSession{
				Platform:     domain.PlatformWhatsApp,
				UserID:       "user1",
				State:        domain.LinkStateConnected,
				IssuedAt:     time.Now().UTC(),
				ExpiresAt:    time.Now().Add(1 * time.Minute).UTC(),
				AttemptCount: 2,
			}

			if err := repo.SaveSession(ctx, session); err != nil {
				t.Fatalf("SaveSession failed: %v", err)
			}

			retrieved, err := repo.GetSession(ctx, domain.PlatformWhatsApp, "user1")
			if err != nil {
				t.Fatalf("GetSession failed: %v", err)
			}

			if retrieved.State != domain.LinkStateConnected {
				t.Errorf("Expected state %s, got %s", domain.LinkStateConnected, retrieved.State)
			}
			if retrieved.AttemptCount != 2 {
				t.Errorf("Expected attempt count 2, got %d", retrieved.AttemptCount)
			}
		})

		t.Run("GetMissingReturnsNotFound", func(t *testing.T) {
			_, err := repo.GetSession(ctx, domain.PlatformTelegram, "nobody")
			if !errors.Is(err, domain.ErrOperationNotFound) {
				t.Errorf("Expected ErrOperationNotFound, got %v", err)
			}
		})

		t.Run("DeleteExpiredKeepsTerminal", func(t *testing.T) {
			stale := &domain.LinkSession{
				Platform:     domain.PlatformTelegram,
				UserID:       "user2",
				State:        domain.LinkStateConfirming,
				IssuedAt:     time.Now().Add(-2 * time.Hour).UTC(),
				ExpiresAt:    time.Now().Add(-90 * time.Minute).UTC(),
				AttemptCount: 1,
			}
			if err := repo.SaveSession(ctx, stale); err != nil {
				t.Fatalf("SaveSession failed: %v", err)
			}

			if err := repo.DeleteExpiredSessions(ctx); err != nil {
				t.Fatalf("DeleteExpiredSessions failed: %v", err)
			}

			_, err := repo.GetSession(ctx, domain.PlatformTelegram, "user2")
			if !errors.Is(err, domain.ErrOperationNotFound) {
				t.Errorf("Expected stale session to be deleted, got %v", err)
			}

			// Terminal row older than the cutoff survives as the last outcome
			retrieved, err := repo.GetSession(ctx, domain.PlatformWhatsApp, "user1")
			if err != nil {
				t.Fatalf("GetSession failed: %v", err)
			}
			if retrieved.State != domain.LinkStateConnected {
				t.Errorf("Expected terminal session to survive cleanup, got state %s", retrieved.State)
			}
		})

		t.Run("Delete", func(t *testing.T) {
			if err := repo.DeleteSession(ctx, domain.PlatformWhatsApp, "user1"); err != nil {
				t.Fatalf("DeleteSession failed: %v", err)
			}

			_, err := repo.GetSession(ctx, domain.PlatformWhatsApp, "user1")
			if !errors.Is(err, domain.ErrOperationNotFound) {
				t.Errorf("Expected ErrOperationNotFound after delete, got %v", err)
			}
		})
	})

	t.Run("AppState", func(t *testing.T) {
		repo := NewAppStateRepository(pool)

		t.Run("GetMissingReturnsEmpty", func(t *testing.T) {
			value, err := repo.Get(ctx, domain.StateKeyLastActivePlatform)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if value != "" {
				t.Errorf("Expected empty value, got %s", value)
			}
		})

		t.Run("SetAndGet", func(t *testing.T) {
			if err := repo.Set(ctx, domain.StateKeyLastActivePlatform, domain.PlatformWhatsApp); err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			value, err := repo.Get(ctx, domain.StateKeyLastActivePlatform)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if value != domain.PlatformWhatsApp {
				t.Errorf("Expected %s, got %s", domain.PlatformWhatsApp, value)
			}
		})

		t.Run("SetOverwrites", func(t *testing.T) {
			if err := repo.Set(ctx, domain.StateKeyLastActivePlatform, domain.PlatformTelegram); err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			value, err := repo.Get(ctx, domain.StateKeyLastActivePlatform)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if value != domain.PlatformTelegram {
				t.Errorf("Expected %s, got %s", domain.PlatformTelegram, value)
			}
		})
	})
}
