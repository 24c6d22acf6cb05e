package syncing

import "time"

// ============================================================================
// Tracking Configuration
// ============================================================================

const (
	// DefaultPollInterval is how often the progress endpoint is polled
	DefaultPollInterval = 2 * time.Second

	// DefaultMaxPolls bounds how many progress readings one job consumes
	DefaultMaxPolls = 15

	// DefaultCeiling is the overall wall-clock bound on one tracked job
	DefaultCeiling = 120 * time.Second

	// DefaultStuckThreshold is how many consecutive identical readings force
	// the job to completed. Five readings at the default interval is ten
	// seconds of no visible progress.
	DefaultStuckThreshold = 5

	// CrossCheckEvery is how often, in polls, the authoritative contacts
	// endpoint is consulted for the "has this finished" answer
	CrossCheckEvery = 3

	// MaxConsecutiveErrors forces completed_timeout once this many polls in a
	// row fail
	MaxConsecutiveErrors = 3

	// MaxTotalErrors forces completed_timeout once this many polls have
	// failed in total
	MaxTotalErrors = 5
)

// ============================================================================
// Observation Statuses
// ============================================================================

const (
	// StatusRunning reports the job is still making (or claiming) progress
	StatusRunning = "running"

	// StatusDone reports the backend says the job finished
	StatusDone = "done"

	// StatusError reports the poll itself failed
	StatusError = "error"
)

// ============================================================================
// Log Messages
// ============================================================================

const (
	LogMsgTrackingStarted    = "Sync tracking started"
	LogMsgSyncCompleted      = "Sync completed"
	LogMsgSyncForcedStuck    = "Sync forced to completed after stalled progress"
	LogMsgSyncCrossChecked   = "Sync forced to completed by authoritative cross-check"
	LogMsgSyncTimedOut       = "Sync forced to completed_timeout"
	LogMsgCrossCheckSkipped  = "Cross-check fetch failed, keeping primary signal"
	LogMsgEventPublishFailed = "Failed to publish sync event"
)
