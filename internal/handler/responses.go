package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/saikiran76/dailyfix-core/internal/domain"
)

// Standard response types for consistent API responses

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Helper functions for responding

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Get a buffer from the pool to reduce allocations
	buf := getBuffer()
	defer putBuffer(buf)

	// Encode to the buffer first
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		// Log the error - we can't write to response at this point since headers are sent
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}

	// Write the buffer to the response
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// User-facing error messages for service errors
const (
	// Generic messages
	ErrMsgGenericServerError = "Something went wrong"
	ErrMsgUnknownError       = "Unknown error"

	// Session messages
	ErrMsgSessionExpiredError = "Session expired. Please sign in again."
	ErrMsgNoCredentialError   = "No session credential stored. Please sign in first."

	// Link messages
	ErrMsgAlreadyLinkedError = "That account is already linked"
	ErrMsgMaxAttemptsError   = "Too many linking attempts. Please wait before retrying."
	ErrMsgLinkExpiredError   = "Linking code expired. Retry to get a new one."

	// Sync messages
	ErrMsgSyncNotFoundError = "Sync job not found"

	// Platform messages
	ErrMsgInvalidPlatformError = "Invalid platform"

	// Backend messages
	ErrMsgBackendUnavailableError = "Server is temporarily unavailable. Please try again later."
	ErrMsgTooManyRequestsError    = "Too many requests. Please try again later."

	// Input messages
	ErrMsgInvalidInputError = "Invalid request. Please check your inputs."

	// Not found messages
	ErrMsgNotFoundError = "Resource not found."
)

// mapServiceErrorToUserMessage maps domain errors to user-friendly HTTP responses.
// Handlers match on sentinel errors and classified kinds, never on message text.
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, ErrMsgSessionExpiredError
	case errors.Is(err, domain.ErrNoCredential):
		return http.StatusUnauthorized, ErrMsgNoCredentialError
	case errors.Is(err, domain.ErrAlreadyLinked):
		return http.StatusConflict, ErrMsgAlreadyLinkedError
	case errors.Is(err, domain.ErrMaxAttemptsReached):
		return http.StatusTooManyRequests, ErrMsgMaxAttemptsError
	case errors.Is(err, domain.ErrHandshakeExpired):
		return http.StatusGone, ErrMsgLinkExpiredError
	case errors.Is(err, domain.ErrSyncNotFound):
		return http.StatusNotFound, ErrMsgSyncNotFoundError
	case errors.Is(err, domain.ErrOperationNotFound):
		return http.StatusNotFound, ErrMsgNotFoundError
	case errors.Is(err, domain.ErrUnknownPlatform):
		return http.StatusBadRequest, ErrMsgInvalidPlatformError
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrMsgInvalidInputError
	}

	// Backend failures carry a kind classification
	if kind, ok := domain.KindOf(err); ok {
		switch kind {
		case domain.KindAuthRejected:
			return http.StatusUnauthorized, ErrMsgSessionExpiredError
		case domain.KindRateLimited:
			return http.StatusTooManyRequests, ErrMsgTooManyRequestsError
		case domain.KindUnavailable, domain.KindNetwork:
			return http.StatusBadGateway, ErrMsgBackendUnavailableError
		case domain.KindTimeout:
			return http.StatusGatewayTimeout, ErrMsgBackendUnavailableError
		}
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}
