package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikiran76/dailyfix-core/internal/domain"
)

func staticTokens(token string) TokenSource {
	return func(ctx context.Context) (string, error) { return token, nil }
}

func TestRefreshSession_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/refresh", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"accessToken":"at-2","refreshToken":"rt-2","expiresAt":"2026-09-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	result, err := c.RefreshSession(context.Background(), "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "at-2", result.AccessToken)
	assert.Equal(t, "rt-2", result.RefreshToken)
	assert.Equal(t, 2026, result.ExpiresAt.Year())
}

func TestRefreshSession_AuthRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.RefreshSession(context.Background(), "rt-dead")
	require.Error(t, err)

	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindAuthRejected, kind)
	assert.False(t, domain.IsRetryable(err))
}

func TestLinkConnect_SendsAuthAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		w.Write([]byte(`{"status":"qr_ready","code":"QRDATA","sessionId":"s-1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("at-1"))
	result, err := c.LinkConnect(context.Background(), domain.PlatformWhatsApp, domain.LoginTypeQR)
	require.NoError(t, err)
	assert.Equal(t, ConnectStatusQRReady, result.Status)
	assert.Equal(t, "QRDATA", result.Code)
	assert.Equal(t, "s-1", result.SessionID)
}

func TestLinkStatus_QueryEncoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, domain.PlatformTelegram, r.URL.Query().Get("platform"))
		w.Write([]byte(`{"status":"pending"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("at-1"))
	result, err := c.LinkStatus(context.Background(), domain.PlatformTelegram)
	require.NoError(t, err)
	assert.Equal(t, LinkStatusPending, result.Status)
}

func TestSyncStatus_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-7", r.URL.Query().Get("requestId"))
		w.Write([]byte(`{"progress":40,"isRunning":true,"message":"syncing rooms"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("at-1"))
	result, err := c.SyncStatus(context.Background(), "req-7")
	require.NoError(t, err)
	assert.Equal(t, 40, result.Progress)
	assert.True(t, result.IsRunning)
}

func TestFetchContactsMeta_ParsesSyncInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta":{"syncInfo":{"isRunning":false}},"contacts":[{"id":"c1"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("at-1"))
	meta, err := c.FetchContactsMeta(context.Background())
	require.NoError(t, err)
	assert.False(t, meta.Meta.SyncInfo.IsRunning)
}

func TestClassify_RateLimitedWithRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("at-1"))
	_, err := c.SyncStatus(context.Background(), "req-1")
	require.Error(t, err)

	var ce *domain.ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, domain.KindRateLimited, ce.Kind)
	assert.Equal(t, 7*time.Second, ce.RetryAfter)
	assert.True(t, domain.IsRetryable(err))
}

func TestClassify_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("at-1"))
	_, err := c.FetchContactsMeta(context.Background())
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindUnavailable, kind)
	assert.True(t, domain.IsRetryable(err))
}

func TestClassify_NetworkError(t *testing.T) {
	// Point at a closed server
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, staticTokens("at-1"))
	_, err := c.FetchContactsMeta(context.Background())
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindNetwork, kind)
}

func TestClassify_ContextCancelledIsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("at-1"))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.SyncStatus(ctx, "req-1")
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindTimeout, kind)
}

func TestClassify_BadRequestNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("at-1"))
	_, err := c.LinkStatus(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.False(t, domain.IsRetryable(err))
}
