package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Coordination metric names
const (
	MetricNameRefreshAttempts = "credential_refresh_attempts_total"
	MetricNameRefreshOutcomes = "credential_refresh_outcomes_total"
	MetricNameRefreshJoined   = "credential_refresh_joined_total"
	MetricNameSessionsExpired = "sessions_expired_total"

	MetricNameHandshakesStarted  = "link_handshakes_started_total"
	MetricNameHandshakeOutcomes  = "link_handshake_outcomes_total"
	MetricNameSyncPolls          = "sync_progress_polls_total"
	MetricNameSyncOutcomes       = "sync_outcomes_total"
	MetricNameObservations       = "observations_total"
	MetricNameObservationsDedup  = "observations_deduplicated_total"
	MetricNameObservationsDrop   = "observations_dropped_total"
	MetricNamePushReconnects     = "push_reconnects_total"
	MetricNamePushConnectedState = "push_connected"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Coordination metric help text
const (
	HelpTextRefreshAttempts = "Total number of credential refresh attempts sent to the backend"
	HelpTextRefreshOutcomes = "Total number of credential refresh outcomes by result"
	HelpTextRefreshJoined   = "Total number of callers that joined an in-flight refresh"
	HelpTextSessionsExpired = "Total number of sessions declared expired"

	HelpTextHandshakesStarted  = "Total number of link handshakes started"
	HelpTextHandshakeOutcomes  = "Total number of link handshake terminal outcomes"
	HelpTextSyncPolls          = "Total number of sync progress polls"
	HelpTextSyncOutcomes       = "Total number of sync jobs by terminal state"
	HelpTextObservations       = "Total number of observations ingested by source"
	HelpTextObservationsDedup  = "Total number of observations suppressed as duplicates"
	HelpTextObservationsDrop   = "Total number of observations dropped on full streams"
	HelpTextPushReconnects     = "Total number of push channel reconnect attempts"
	HelpTextPushConnectedState = "Whether the push channel is currently connected"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod   = "method"
	LabelPath     = "path"
	LabelStatus   = "status"
	LabelType     = "type"
	LabelOutcome  = "outcome"
	LabelPlatform = "platform"
	LabelState    = "state"
	LabelSource   = "source"
)

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds. These buckets range from 1ms to 10s to capture various latency
// patterns: fast (1-10ms), normal (10-100ms), slow (100ms-1s), very slow (1-10s)
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// ============================================================================
// Log Messages
// ============================================================================

// Debug log messages
const (
	LogMsgMetricsRecorded = "Metrics recorded for event"
)
