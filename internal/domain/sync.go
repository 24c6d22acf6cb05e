package domain

import "time"

// Sync job states
const (
	SyncStateRunning          = "running"
	SyncStateCompleted        = "completed"
	SyncStateCompletedTimeout = "completed_timeout"
	SyncStateError            = "error"
)

// SyncJob tracks a long-running server-side contact sync.
// Progress updates move LastProgressChangeAt forward; identical consecutive
// readings grow ObservedStuckCount instead.
type SyncJob struct {
	RequestID            string    `json:"request_id"`
	Progress             int       `json:"progress"` // 0-100
	State                string    `json:"state"`
	Message              string    `json:"message,omitempty"`
	StartedAt            time.Time `json:"started_at"`
	LastProgressChangeAt time.Time `json:"last_progress_change_at"`
	ObservedStuckCount   int       `json:"observed_stuck_count"`
}

// Terminal reports whether the job left the running state
func (j *SyncJob) Terminal() bool {
	return j.State != SyncStateRunning
}
