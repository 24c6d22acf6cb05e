package handler

import (
	"net/http"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/saikiran76/dailyfix-core/internal/domain"
	"github.com/saikiran76/dailyfix-core/internal/link"
)

// LinkHandlers contains handlers for account linking
type LinkHandlers struct {
	svc link.Service
}

// NewLinkHandlers creates new link handlers
func NewLinkHandlers(svc link.Service) *LinkHandlers {
	return &LinkHandlers{svc: svc}
}

var platformTitle = cases.Title(language.English)

// StartLinkRequest is the request body for starting a handshake
type StartLinkRequest struct {
	Platform  string `json:"platform" validate:"required,platform"`
	UserID    string `json:"user_id" validate:"required,max=255,excludesall=\x00\n\r\t"`
	LoginType string `json:"login_type" validate:"login_type"`
}

// RetryLinkRequest is the request body for retrying a handshake
type RetryLinkRequest struct {
	Platform  string `json:"platform" validate:"required,platform"`
	UserID    string `json:"user_id" validate:"required,max=255,excludesall=\x00\n\r\t"`
	LoginType string `json:"login_type" validate:"login_type"`
}

// LinkSessionResponse is the wire form of a link session
type LinkSessionResponse struct {
	Platform        string `json:"platform"`
	PlatformDisplay string `json:"platform_display"`
	UserID          string `json:"user_id"`
	State           string `json:"state"`
	Code            string `json:"code,omitempty"`
	ExpiresIn       int    `json:"expires_in,omitempty"`
	AttemptCount    int    `json:"attempt_count"`
	LastError       string `json:"last_error,omitempty"`
}

func toLinkSessionResponse(session domain.LinkSession) LinkSessionResponse {
	resp := LinkSessionResponse{
		Platform:        session.Platform,
		PlatformDisplay: platformTitle.String(session.Platform),
		UserID:          session.UserID,
		State:           session.State,
		Code:            session.Code,
		AttemptCount:    session.AttemptCount,
		LastError:       session.LastError,
	}
	if session.Active() && !session.ExpiresAt.IsZero() {
		if remaining := time.Until(session.ExpiresAt); remaining > 0 {
			resp.ExpiresIn = int(remaining.Seconds())
		}
	}
	return resp
}

// HandleStart handles POST /link/start
// @Summary Start an account linking handshake
// @Description Starts (or attaches to) a handshake for the given platform and user
// @Tags link
// @Accept json
// @Produce json
// @Param request body StartLinkRequest true "Handshake parameters"
// @Success 200 {object} LinkSessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/link/start [post]
func (h *LinkHandlers) HandleStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, ErrMsgMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}

		var req StartLinkRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Start link"); err != nil {
			return
		}

		session, err := h.svc.Start(r.Context(), req.Platform, req.UserID, req.LoginType)
		if err != nil {
			respondServiceError(w, r, ErrMsgStartLinkFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, toLinkSessionResponse(session))
	}
}

// HandleRetry handles POST /link/retry
// @Summary Retry an expired or failed handshake
// @Description Issues a fresh linking code unless the attempt ceiling was reached
// @Tags link
// @Accept json
// @Produce json
// @Param request body RetryLinkRequest true "Handshake parameters"
// @Success 200 {object} LinkSessionResponse
// @Failure 429 {object} ErrorResponse
// @Router /api/v1/link/retry [post]
func (h *LinkHandlers) HandleRetry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, ErrMsgMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}

		var req RetryLinkRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Retry link"); err != nil {
			return
		}

		session, err := h.svc.Retry(r.Context(), req.Platform, req.UserID, req.LoginType)
		if err != nil {
			respondServiceError(w, r, ErrMsgRetryLinkFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, toLinkSessionResponse(session))
	}
}

// HandleStatus handles GET /link/status
// @Summary Get handshake status
// @Description Returns the current link session for (platform, user)
// @Tags link
// @Produce json
// @Param platform query string true "Platform identifier"
// @Param user_id query string true "User identifier"
// @Success 200 {object} LinkSessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/link/status [get]
func (h *LinkHandlers) HandleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		platform, ok := GetQueryParam(r, w, "platform")
		if !ok {
			return
		}
		userID, ok := GetQueryParam(r, w, "user_id")
		if !ok {
			return
		}

		session, err := h.svc.Status(r.Context(), platform, userID)
		if err != nil {
			respondServiceError(w, r, ErrMsgGetLinkStatusFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, toLinkSessionResponse(session))
	}
}

// HandleWait handles GET /link/wait
// @Summary Wait for handshake outcome
// @Description Blocks until the active handshake reaches a terminal state
// @Tags link
// @Produce json
// @Param platform query string true "Platform identifier"
// @Param user_id query string true "User identifier"
// @Success 200 {object} LinkSessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/link/wait [get]
func (h *LinkHandlers) HandleWait() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		platform, ok := GetQueryParam(r, w, "platform")
		if !ok {
			return
		}
		userID, ok := GetQueryParam(r, w, "user_id")
		if !ok {
			return
		}

		session, err := h.svc.Wait(r.Context(), platform, userID)
		if err != nil {
			respondServiceError(w, r, ErrMsgGetLinkStatusFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, toLinkSessionResponse(session))
	}
}
