// Package metrics provides Prometheus metrics for the arena battle engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds all Prometheus metrics for the arena service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Directive handling
	directivesParsed *prometheus.CounterVec
	parseErrors      prometheus.Counter

	// Battle lifecycle
	battlesStarted   prometheus.Counter
	battleTurns      prometheus.Counter
	outcomesRecorded *prometheus.CounterVec
	lockTimeouts     prometheus.Counter

	// State gauges
	sessionsOpen   prometheus.Gauge
	sessionsLocked prometheus.Gauge
	modelsTracked  prometheus.Gauge

	// Outcome journal
	journalDepth  prometheus.Gauge
	journalWrites prometheus.Counter
	journalErrors prometheus.Counter

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem for all metrics.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithHistogramBuckets sets custom buckets for latency histograms.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithPrometheusRegistry sets a custom Prometheus registry.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "arena",
		subsystem:        "battle",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.directivesParsed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "directives_parsed_total",
		Help:      "Directives successfully parsed, by kind",
	}, []string{"kind"})

	m.parseErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "parse_errors_total",
		Help:      "Messages rejected for a malformed directive prefix",
	})

	m.battlesStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "battles_started_total",
		Help:      "Sessions successfully created",
	})

	m.battleTurns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "battle_turns_total",
		Help:      "Battle directives resolved to a speaking model",
	})

	m.outcomesRecorded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "outcomes_recorded_total",
		Help:      "Outcomes applied, by category",
	}, []string{"outcome"})

	m.lockTimeouts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "lock_timeouts_total",
		Help:      "Directive attempts that timed out waiting for a lock",
	})

	m.sessionsOpen = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_open",
		Help:      "Sessions currently accepting directives",
	})

	m.sessionsLocked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_locked",
		Help:      "Sessions resolved and locked",
	})

	m.modelsTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "models_tracked",
		Help:      "Models with a rating record",
	})

	m.journalDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "journal_queue_depth",
		Help:      "Outcome events waiting to be journaled",
	})

	m.journalWrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "journal_writes_total",
		Help:      "Outcome events persisted to the history journal",
	})

	m.journalErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "journal_errors_total",
		Help:      "Failed or dropped journal writes",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests, by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// RecordDirectiveParsed increments the directive counter for kind.
func RecordDirectiveParsed(kind string) {
	globalManager.directivesParsed.WithLabelValues(kind).Inc()
}

// RecordParseError increments the malformed-directive counter.
func RecordParseError() {
	globalManager.parseErrors.Inc()
}

// RecordBattleStarted increments the started-sessions counter.
func RecordBattleStarted() {
	globalManager.battlesStarted.Inc()
}

// RecordBattleTurn increments the resolved-turn counter.
func RecordBattleTurn() {
	globalManager.battleTurns.Inc()
}

// RecordOutcome increments the outcome counter for the given category.
func RecordOutcome(outcome string) {
	globalManager.outcomesRecorded.WithLabelValues(outcome).Inc()
}

// RecordLockTimeout increments the lock-timeout counter.
func RecordLockTimeout() {
	globalManager.lockTimeouts.Inc()
}

// UpdateSessionCounts sets the open and locked session gauges.
func UpdateSessionCounts(open, locked int) {
	globalManager.sessionsOpen.Set(float64(open))
	globalManager.sessionsLocked.Set(float64(locked))
}

// UpdateModelsTracked sets the tracked-model gauge.
func UpdateModelsTracked(count int) {
	globalManager.modelsTracked.Set(float64(count))
}

// UpdateJournalDepth sets the journal queue depth gauge.
func UpdateJournalDepth(depth int) {
	globalManager.journalDepth.Set(float64(depth))
}

// RecordJournalWrite increments the journal write counter.
func RecordJournalWrite() {
	globalManager.journalWrites.Inc()
}

// RecordJournalError increments the journal error counter.
func RecordJournalError() {
	globalManager.journalErrors.Inc()
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, status string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(durationMs)
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
