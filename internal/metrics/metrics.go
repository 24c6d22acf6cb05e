package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Coordination Metrics
var (
	RefreshAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameRefreshAttempts,
			Help: HelpTextRefreshAttempts,
		},
	)

	RefreshOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameRefreshOutcomes,
			Help: HelpTextRefreshOutcomes,
		},
		[]string{LabelOutcome},
	)

	RefreshJoined = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameRefreshJoined,
			Help: HelpTextRefreshJoined,
		},
	)

	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameSessionsExpired,
			Help: HelpTextSessionsExpired,
		},
	)

	HandshakesStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHandshakesStarted,
			Help: HelpTextHandshakesStarted,
		},
		[]string{LabelPlatform},
	)

	HandshakeOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHandshakeOutcomes,
			Help: HelpTextHandshakeOutcomes,
		},
		[]string{LabelPlatform, LabelState},
	)

	SyncPolls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameSyncPolls,
			Help: HelpTextSyncPolls,
		},
	)

	SyncOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameSyncOutcomes,
			Help: HelpTextSyncOutcomes,
		},
		[]string{LabelState},
	)

	Observations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameObservations,
			Help: HelpTextObservations,
		},
		[]string{LabelSource},
	)

	ObservationsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameObservationsDedup,
			Help: HelpTextObservationsDedup,
		},
	)

	ObservationsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameObservationsDrop,
			Help: HelpTextObservationsDrop,
		},
	)

	PushReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNamePushReconnects,
			Help: HelpTextPushReconnects,
		},
	)

	PushConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNamePushConnectedState,
			Help: HelpTextPushConnectedState,
		},
	)
)

// RecordRefreshAttempt counts one refresh request sent to the backend
func RecordRefreshAttempt() {
	RefreshAttempts.Inc()
}

// RecordRefreshOutcome counts one refresh result
func RecordRefreshOutcome(outcome string) {
	RefreshOutcomes.WithLabelValues(outcome).Inc()
}

// RecordRefreshJoined counts a caller that attached to an in-flight refresh
// instead of starting its own
func RecordRefreshJoined() {
	RefreshJoined.Inc()
}

// RecordSessionExpired counts one session declared expired
func RecordSessionExpired() {
	SessionsExpired.Inc()
}

// RecordHandshakeStarted counts a new link handshake
func RecordHandshakeStarted(platform string) {
	HandshakesStarted.WithLabelValues(platform).Inc()
}

// RecordHandshakeOutcome counts a handshake reaching a terminal state
func RecordHandshakeOutcome(platform, state string) {
	HandshakeOutcomes.WithLabelValues(platform, state).Inc()
}

// RecordSyncPoll counts one progress poll
func RecordSyncPoll() {
	SyncPolls.Inc()
}

// RecordSyncOutcome counts a sync job reaching a terminal state
func RecordSyncOutcome(state string) {
	SyncOutcomes.WithLabelValues(state).Inc()
}

// RecordObservation counts one ingested observation
func RecordObservation(source string) {
	Observations.WithLabelValues(source).Inc()
}

// RecordObservationDeduplicated counts one suppressed duplicate
func RecordObservationDeduplicated() {
	ObservationsDeduplicated.Inc()
}

// RecordObservationDropped counts one observation lost to a full stream
func RecordObservationDropped() {
	ObservationsDropped.Inc()
}

// RecordPushReconnect counts one push reconnect attempt
func RecordPushReconnect() {
	PushReconnects.Inc()
}

// SetPushConnected reflects the current push channel state
func SetPushConnected(connected bool) {
	if connected {
		PushConnected.Set(1)
	} else {
		PushConnected.Set(0)
	}
}
