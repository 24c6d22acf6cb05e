package handler

import (
	"net/http"

	"github.com/saikiran76/dailyfix-core/internal/domain"
	"github.com/saikiran76/dailyfix-core/internal/syncing"
)

// SyncHandlers contains handlers for sync progress tracking
type SyncHandlers struct {
	svc syncing.Service
}

// NewSyncHandlers creates new sync handlers
func NewSyncHandlers(svc syncing.Service) *SyncHandlers {
	return &SyncHandlers{svc: svc}
}

// TrackSyncRequest is the request body for tracking a sync job
type TrackSyncRequest struct {
	RequestID string `json:"request_id" validate:"required,max=255,excludesall=\x00\n\r\t"`
}

// SyncJobResponse is the wire form of a sync job
type SyncJobResponse struct {
	RequestID string `json:"request_id"`
	Progress  int    `json:"progress"`
	State     string `json:"state"`
	Message   string `json:"message,omitempty"`
}

func toSyncJobResponse(job domain.SyncJob) SyncJobResponse {
	return SyncJobResponse{
		RequestID: job.RequestID,
		Progress:  job.Progress,
		State:     job.State,
		Message:   job.Message,
	}
}

// HandleTrack handles POST /sync/track
// @Summary Track a server-side sync job
// @Description Starts (or attaches to) tracking and blocks until the job reaches a terminal state
// @Tags sync
// @Accept json
// @Produce json
// @Param request body TrackSyncRequest true "Sync job identifier"
// @Success 200 {object} SyncJobResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/sync/track [post]
func (h *SyncHandlers) HandleTrack() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, ErrMsgMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}

		var req TrackSyncRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Track sync"); err != nil {
			return
		}

		job, err := h.svc.Track(r.Context(), req.RequestID)
		if err != nil {
			respondServiceError(w, r, ErrMsgTrackSyncFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, toSyncJobResponse(job))
	}
}

// HandleStatus handles GET /sync/status
// @Summary Get sync job status
// @Description Returns the last observed state of a tracked sync job
// @Tags sync
// @Produce json
// @Param request_id query string true "Sync job identifier"
// @Success 200 {object} SyncJobResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/sync/status [get]
func (h *SyncHandlers) HandleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, ok := GetQueryParam(r, w, "request_id")
		if !ok {
			return
		}

		job, err := h.svc.Status(r.Context(), requestID)
		if err != nil {
			respondServiceError(w, r, ErrMsgGetSyncStatusFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, toSyncJobResponse(job))
	}
}
