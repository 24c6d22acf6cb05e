package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/saikiran76/dailyfix-core/internal/auth"
	"github.com/saikiran76/dailyfix-core/internal/domain"
)

// SessionService is the slice of the credential coordinator the handlers need
type SessionService interface {
	Peek(ctx context.Context, principal string) (domain.Credential, bool)
	SetCredential(ctx context.Context, cred domain.Credential) error
}

// SessionHandlers contains handlers for session credential state
type SessionHandlers struct {
	svc              SessionService
	defaultPrincipal string
}

// NewSessionHandlers creates new session handlers
func NewSessionHandlers(svc SessionService, defaultPrincipal string) *SessionHandlers {
	return &SessionHandlers{svc: svc, defaultPrincipal: defaultPrincipal}
}

// SessionStatusResponse reports credential validity without forcing a refresh
type SessionStatusResponse struct {
	Principal string `json:"principal"`
	Valid     bool   `json:"valid"`
	ExpiresIn int    `json:"expires_in,omitempty"`
}

// SetCredentialRequest is the request body for seeding a credential
type SetCredentialRequest struct {
	Principal    string `json:"principal" validate:"max=100,excludesall=\x00\n\r\t"`
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
	ExpiresAt    int64  `json:"expires_at" validate:"required"` // unix seconds
}

// HandleStatus handles GET /session/status
// @Summary Get session credential status
// @Description Reports whether the stored credential is still valid, without refreshing it
// @Tags session
// @Produce json
// @Param principal query string false "Credential principal (defaults to the configured one)"
// @Success 200 {object} SessionStatusResponse
// @Router /api/v1/session/status [get]
func (h *SessionHandlers) HandleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := GetOptionalQueryParam(r, "principal", h.defaultPrincipal)

		resp := SessionStatusResponse{Principal: principal}
		if cred, ok := h.svc.Peek(r.Context(), principal); ok {
			now := time.Now()
			resp.Valid = cred.ValidFor(now, auth.SafetyMargin)
			if remaining := cred.ExpiresAt.Sub(now); remaining > 0 {
				resp.ExpiresIn = int(remaining.Seconds())
			}
		}

		respondJSON(w, http.StatusOK, resp)
	}
}

// HandleSetCredential handles POST /session/credential
// @Summary Store a session credential
// @Description Seeds the coordinator with a fresh credential, reviving a dead session
// @Tags session
// @Accept json
// @Produce json
// @Param request body SetCredentialRequest true "Credential"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/session/credential [post]
func (h *SessionHandlers) HandleSetCredential() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, ErrMsgMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}

		var req SetCredentialRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Set credential"); err != nil {
			return
		}

		principal := req.Principal
		if principal == "" {
			principal = h.defaultPrincipal
		}

		cred := domain.Credential{
			Principal:    principal,
			AccessToken:  req.AccessToken,
			RefreshToken: req.RefreshToken,
			ExpiresAt:    time.Unix(req.ExpiresAt, 0),
		}
		if err := h.svc.SetCredential(r.Context(), cred); err != nil {
			respondServiceError(w, r, ErrMsgSetCredentialFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgCredentialStored})
	}
}
