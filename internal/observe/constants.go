package observe

import "time"

// Stream defaults
const (
	// DefaultDedupTTL is the window in which a repeated fingerprint counts as
	// a duplicate. Kept below the usual poll interval so consecutive
	// identical polls still surface (plateau accounting needs them).
	DefaultDedupTTL = 1 * time.Second

	// DefaultStreamBuffer is the output channel capacity per stream
	DefaultStreamBuffer = 32

	// DedupCacheSize bounds the fingerprint cache per stream
	DedupCacheSize = 128
)

// Log messages
const (
	LogMsgStreamOpened       = "Observation stream opened"
	LogMsgPollSkipped        = "Poll tick skipped"
	LogMsgObservationDropped = "Observation dropped, consumer behind"
)
