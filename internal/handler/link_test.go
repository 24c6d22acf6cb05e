package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikiran76/dailyfix-core/internal/domain"
)

type stubLinkService struct {
	startFn  func(ctx context.Context, platform, userID, loginType string) (domain.LinkSession, error)
	retryFn  func(ctx context.Context, platform, userID, loginType string) (domain.LinkSession, error)
	statusFn func(ctx context.Context, platform, userID string) (domain.LinkSession, error)
	waitFn   func(ctx context.Context, platform, userID string) (domain.LinkSession, error)
}

func (s *stubLinkService) Start(ctx context.Context, platform, userID, loginType string) (domain.LinkSession, error) {
	return s.startFn(ctx, platform, userID, loginType)
}

func (s *stubLinkService) Retry(ctx context.Context, platform, userID, loginType string) (domain.LinkSession, error) {
	return s.retryFn(ctx, platform, userID, loginType)
}

func (s *stubLinkService) Status(ctx context.Context, platform, userID string) (domain.LinkSession, error) {
	return s.statusFn(ctx, platform, userID)
}

func (s *stubLinkService) Wait(ctx context.Context, platform, userID string) (domain.LinkSession, error) {
	return s.waitFn(ctx, platform, userID)
}

func (s *stubLinkService) IngestPush(ctx context.Context, platform, userID, state, code string) {}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHandleStartLink(t *testing.T) {
	t.Run("returns code ready session", func(t *testing.T) {
		svc := &stubLinkService{
			startFn: func(ctx context.Context, platform, userID, loginType string) (domain.LinkSession, error) {
				return domain.LinkSession{
					Platform:     platform,
					UserID:       userID,
					State:        domain.LinkStateCodeReady,
					Code:         "QR-1",
					ExpiresAt:    time.Now().Add(60 * time.Second),
					AttemptCount: 1,
				}, nil
			},
		}
		h := NewLinkHandlers(svc)

		w := postJSON(t, h.HandleStart(), "/api/v1/link/start", StartLinkRequest{
			Platform: domain.PlatformWhatsApp,
			UserID:   "u-1",
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var resp LinkSessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, domain.LinkStateCodeReady, resp.State)
		assert.Equal(t, "QR-1", resp.Code)
		assert.Equal(t, "Whatsapp", resp.PlatformDisplay)
		assert.Greater(t, resp.ExpiresIn, 0)
	})

	t.Run("rejects unknown platform before service call", func(t *testing.T) {
		called := false
		svc := &stubLinkService{
			startFn: func(ctx context.Context, platform, userID, loginType string) (domain.LinkSession, error) {
				called = true
				return domain.LinkSession{}, nil
			},
		}
		h := NewLinkHandlers(svc)

		w := postJSON(t, h.HandleStart(), "/api/v1/link/start", StartLinkRequest{
			Platform: "myspace",
			UserID:   "u-1",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, called)
	})

	t.Run("maps already linked to conflict", func(t *testing.T) {
		svc := &stubLinkService{
			startFn: func(ctx context.Context, platform, userID, loginType string) (domain.LinkSession, error) {
				return domain.LinkSession{}, domain.ErrAlreadyLinked
			},
		}
		h := NewLinkHandlers(svc)

		w := postJSON(t, h.HandleStart(), "/api/v1/link/start", StartLinkRequest{
			Platform: domain.PlatformWhatsApp,
			UserID:   "u-1",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), ErrMsgAlreadyLinkedError)
	})

	t.Run("rejects invalid body", func(t *testing.T) {
		h := NewLinkHandlers(&stubLinkService{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/link/start", bytes.NewReader([]byte("not json")))
		w := httptest.NewRecorder()
		h.HandleStart().ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleRetryLink(t *testing.T) {
	t.Run("maps attempt ceiling to too many requests", func(t *testing.T) {
		svc := &stubLinkService{
			retryFn: func(ctx context.Context, platform, userID, loginType string) (domain.LinkSession, error) {
				return domain.LinkSession{}, domain.ErrMaxAttemptsReached
			},
		}
		h := NewLinkHandlers(svc)

		w := postJSON(t, h.HandleRetry(), "/api/v1/link/retry", RetryLinkRequest{
			Platform: domain.PlatformTelegram,
			UserID:   "u-1",
		})

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}

func TestHandleLinkStatus(t *testing.T) {
	t.Run("returns current session", func(t *testing.T) {
		svc := &stubLinkService{
			statusFn: func(ctx context.Context, platform, userID string) (domain.LinkSession, error) {
				return domain.LinkSession{
					Platform: platform,
					UserID:   userID,
					State:    domain.LinkStateConnected,
				}, nil
			},
		}
		h := NewLinkHandlers(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/link/status?platform=whatsapp&user_id=u-1", nil)
		w := httptest.NewRecorder()
		h.HandleStatus().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), domain.LinkStateConnected)
	})

	t.Run("requires query parameters", func(t *testing.T) {
		h := NewLinkHandlers(&stubLinkService{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/link/status?platform=whatsapp", nil)
		w := httptest.NewRecorder()
		h.HandleStatus().ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("maps missing session to not found", func(t *testing.T) {
		svc := &stubLinkService{
			statusFn: func(ctx context.Context, platform, userID string) (domain.LinkSession, error) {
				return domain.LinkSession{}, domain.ErrOperationNotFound
			},
		}
		h := NewLinkHandlers(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/link/status?platform=whatsapp&user_id=u-1", nil)
		w := httptest.NewRecorder()
		h.HandleStatus().ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleLinkWait(t *testing.T) {
	svc := &stubLinkService{
		waitFn: func(ctx context.Context, platform, userID string) (domain.LinkSession, error) {
			return domain.LinkSession{
				Platform: platform,
				UserID:   userID,
				State:    domain.LinkStateExpired,
			}, nil
		},
	}
	h := NewLinkHandlers(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/link/wait?platform=whatsapp&user_id=u-1", nil)
	w := httptest.NewRecorder()
	h.HandleWait().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), domain.LinkStateExpired)
}
