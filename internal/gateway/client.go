package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/saikiran76/dailyfix-core/internal/domain"
	"github.com/saikiran76/dailyfix-core/internal/logger"
)

// Client handles communication with the DailyFix aggregator backend.
// It classifies failures into the closed domain.ErrorKind set and never
// retries on its own: retry and backoff discipline belong to the
// coordinators driving it.
type Client struct {
	BaseURL string
	Client  *http.Client

	// Tokens supplies the current access token for authenticated calls.
	// Nil is allowed for endpoints that authenticate differently.
	Tokens TokenSource
}

// TokenSource supplies the access token attached to outgoing calls
type TokenSource func(ctx context.Context) (string, error)

// NewClient creates a new backend API client
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: RequestTimeout,
		},
		Tokens: tokens,
	}
}

// RefreshResult is the response from the credential refresh endpoint
type RefreshResult struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ConnectResult is the response from the link connect endpoint
type ConnectResult struct {
	Status    string `json:"status"` // qr_ready | connected
	Code      string `json:"code,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// Link connect status values
const (
	ConnectStatusQRReady   = "qr_ready"
	ConnectStatusConnected = "connected"
)

// LinkStatusResult is the response from the link status endpoint
type LinkStatusResult struct {
	Status string `json:"status"` // active | pending
}

// Link status values
const (
	LinkStatusActive  = "active"
	LinkStatusPending = "pending"
)

// SyncStatusResult is the response from the sync status endpoint
type SyncStatusResult struct {
	Progress  int    `json:"progress"`
	IsRunning bool   `json:"isRunning"`
	Message   string `json:"message,omitempty"`
}

// ContactsMeta is the trimmed contacts response carrying the authoritative
// sync flag. The contact list itself is the UI layer's concern.
type ContactsMeta struct {
	Meta struct {
		SyncInfo struct {
			IsRunning bool `json:"isRunning"`
		} `json:"syncInfo"`
	} `json:"meta"`
}

// RefreshSession exchanges a refresh token for a fresh credential.
// A 401/403 here means the refresh token itself is dead: KindAuthRejected.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	body := map[string]string{"refreshToken": refreshToken}
	var result RefreshResult
	if err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", body, &result, false); err != nil {
		return nil, err
	}
	return &result, nil
}

// LinkConnect asks the backend to begin a link handshake for platform,
// returning either a fresh linking code or "connected" when the account is
// already linked.
func (c *Client) LinkConnect(ctx context.Context, platform, loginType string) (*ConnectResult, error) {
	body := map[string]string{"platform": platform}
	if loginType != "" {
		body["loginType"] = loginType
	}
	var result ConnectResult
	if err := c.doJSON(ctx, http.MethodPost, "/link/connect", body, &result, true); err != nil {
		return nil, err
	}
	return &result, nil
}

// LinkStatus polls the current handshake status for platform
func (c *Client) LinkStatus(ctx context.Context, platform string) (*LinkStatusResult, error) {
	path := "/link/status?platform=" + url.QueryEscape(platform)
	var result LinkStatusResult
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result, true); err != nil {
		return nil, err
	}
	return &result, nil
}

// SyncStatus polls the progress of a background sync job
func (c *Client) SyncStatus(ctx context.Context, requestID string) (*SyncStatusResult, error) {
	path := "/sync/status?requestId=" + url.QueryEscape(requestID)
	var result SyncStatusResult
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result, true); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchContactsMeta fetches the contacts envelope for its syncInfo flag,
// the authoritative answer to "has this sync finished".
func (c *Client) FetchContactsMeta(ctx context.Context) (*ContactsMeta, error) {
	var result ContactsMeta
	if err := c.doJSON(ctx, http.MethodGet, "/contacts", nil, &result, true); err != nil {
		return nil, err
	}
	return &result, nil
}

// doJSON performs one HTTP round trip and decodes the JSON response.
// Exactly one attempt: classification happens here, retries happen above.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}, authed bool) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if authed && c.Tokens != nil {
		token, err := c.Tokens(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		// Context expiry is the caller's local ceiling, not a network fault
		if ctx.Err() != nil {
			return domain.NewClassifiedError(domain.KindTimeout, ctx.Err())
		}
		return domain.NewClassifiedError(domain.KindNetwork, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		logger.FromContext(ctx).Debug(LogMsgRequestRejected,
			"method", method, "path", path, "status", resp.StatusCode)
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewClassifiedError(domain.KindNetwork, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// classifyStatus maps an HTTP status to the closed error-kind set.
// 2xx is success; everything else is classified, never string-matched.
func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.NewClassifiedError(domain.KindAuthRejected,
			fmt.Errorf("identity backend rejected request: %d", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		ce := domain.NewClassifiedError(domain.KindRateLimited,
			fmt.Errorf("throttled: %d", resp.StatusCode))
		if after := resp.Header.Get("Retry-After"); after != "" {
			if secs, err := strconv.Atoi(after); err == nil {
				ce.RetryAfter = time.Duration(secs) * time.Second
			}
		}
		return ce
	case resp.StatusCode >= 500:
		return domain.NewClassifiedError(domain.KindUnavailable,
			fmt.Errorf("server error: %d", resp.StatusCode))
	default:
		// Remaining 4xx: the request itself is wrong, not retryable
		return fmt.Errorf("%w: unexpected status %d", domain.ErrInvalidInput, resp.StatusCode)
	}
}
