package navigation

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics of the query-parameter
// layer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "querysync").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for parameters per flush.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures NewMetrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "querysync",
		Buckets:   []float64{1, 2, 4, 8, 16, 32},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus metrics for navigation batching and
// query-parameter bindings. A nil *Metrics records nothing.
//
// Metrics collected:
//   - querysync_navigation_flushes_total: batches sent to a router
//   - querysync_navigation_params_per_flush: parameters per batch
//   - querysync_navigation_errors_total: failed navigations
//   - querysync_queryparam_updates_total: binding updates by direction and param
//   - querysync_queryparam_decode_errors_total: undecodable values by param
type Metrics struct {
	flushes        prometheus.Counter
	paramsPerFlush prometheus.Histogram
	errors         prometheus.Counter
	updates        *prometheus.CounterVec
	decodeErrors   *prometheus.CounterVec
}

var (
	defaultMetrics   *Metrics
	defaultMetricsMu sync.Mutex
)

// NewMetrics creates and registers the metrics. With the default
// registerer the metrics are created once per process and shared: later
// calls return the first instance and their options are ignored. Pass
// WithRegistry to get an independent set.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	if config.Registry != prometheus.DefaultRegisterer {
		return initMetrics(config)
	}

	defaultMetricsMu.Lock()
	defer defaultMetricsMu.Unlock()
	if defaultMetrics == nil {
		defaultMetrics = initMetrics(config)
	}
	return defaultMetrics
}

func initMetrics(config MetricsConfig) *Metrics {
	factory := promauto.With(config.Registry)

	return &Metrics{
		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_flushes_total",
			Help:        "Total number of batched navigations sent to a router",
			ConstLabels: config.ConstLabels,
		}),

		paramsPerFlush: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_params_per_flush",
			Help:        "Number of query parameters carried by one batched navigation",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		errors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_errors_total",
			Help:        "Total number of navigations rejected by a router",
			ConstLabels: config.ConstLabels,
		}),

		updates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "queryparam_updates_total",
			Help:        "Total number of query-parameter binding updates",
			ConstLabels: config.ConstLabels,
		}, []string{"direction", "param"}),

		decodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "queryparam_decode_errors_total",
			Help:        "Total number of query-parameter values that could not be decoded",
			ConstLabels: config.ConstLabels,
		}, []string{"param"}),
	}
}

// Update directions.
const (
	Inbound  = "inbound"
	Outbound = "outbound"
)

// ObserveFlush records one batched navigation carrying n parameters.
func (m *Metrics) ObserveFlush(n int) {
	if m == nil {
		return
	}
	m.flushes.Inc()
	m.paramsPerFlush.Observe(float64(n))
}

// NavigationError records a failed navigation.
func (m *Metrics) NavigationError() {
	if m == nil {
		return
	}
	m.errors.Inc()
}

// ParamUpdate records a binding update for param in direction
// (Inbound or Outbound).
func (m *Metrics) ParamUpdate(direction, param string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(direction, param).Inc()
}

// DecodeError records an undecodable value for param.
func (m *Metrics) DecodeError(param string) {
	if m == nil {
		return
	}
	m.decodeErrors.WithLabelValues(param).Inc()
}

// UpdatesFor returns the update counter for direction and param. On a
// nil *Metrics it returns an unregistered counter.
func (m *Metrics) UpdatesFor(direction, param string) prometheus.Counter {
	if m == nil {
		return unregisteredCounter()
	}
	return m.updates.WithLabelValues(direction, param)
}

// DecodeErrorsFor returns the decode error counter for param. On a nil
// *Metrics it returns an unregistered counter.
func (m *Metrics) DecodeErrorsFor(param string) prometheus.Counter {
	if m == nil {
		return unregisteredCounter()
	}
	return m.decodeErrors.WithLabelValues(param)
}

func unregisteredCounter() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{Name: "unregistered"})
}
