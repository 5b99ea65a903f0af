package observability

import (
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "capitafund"

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	platformMetricsOnce sync.Once
	platformRegistry    *PlatformMetrics
)

// ModuleMetrics returns the lazily-initialised registry used to record
// JSON-RPC activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = newModuleMetrics(prometheus.DefaultRegisterer)
	})
	return moduleRegistry
}

func newModuleMetrics(reg prometheus.Registerer) *moduleMetrics {
	m := &moduleMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total JSON-RPC requests segmented by module, method and outcome.",
		}, []string{"module", "method", "outcome"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "errors_total",
			Help:      "Total JSON-RPC errors segmented by module, method and error code.",
		}, []string{"module", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for JSON-RPC handlers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"module", "method"}),
		throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "throttles_total",
			Help:      "Count of requests rejected due to throttling policies.",
		}, []string{"module", "reason"}),
	}
	reg.MustRegister(m.requests, m.errors, m.latency, m.throttles)
	return m
}

// Observe records the outcome of a request. code is the JSON-RPC error code,
// zero on success.
func (m *moduleMetrics) Observe(module, method string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	module = labelOrUnknown(module)
	method = labelOrUnknown(method)
	outcome := "success"
	if code != 0 {
		outcome = "error"
		m.errors.WithLabelValues(module, method, itoa(code)).Inc()
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter. Reasons should be stable
// strings such as "rate_limit".
func (m *moduleMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(labelOrUnknown(module), reason).Inc()
}

// PlatformMetrics captures transaction execution and funding flows.
type PlatformMetrics struct {
	txTotal            *prometheus.CounterVec
	txLatency          *prometheus.HistogramVec
	deposits           *prometheus.CounterVec
	withdrawalFailures *prometheus.CounterVec
	pointsCredited     prometheus.Counter
	height             prometheus.Gauge
}

// Platform returns the singleton platform metrics registered on the default
// registerer.
func Platform() *PlatformMetrics {
	platformMetricsOnce.Do(func() {
		platformRegistry = NewPlatformMetrics(prometheus.DefaultRegisterer)
	})
	return platformRegistry
}

// NewPlatformMetrics builds platform collectors registered on reg.
func NewPlatformMetrics(reg prometheus.Registerer) *PlatformMetrics {
	m := &PlatformMetrics{
		txTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "transactions_total",
			Help:      "Executed transactions segmented by method and outcome.",
		}, []string{"method", "outcome"}),
		txLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "transaction_duration_seconds",
			Help:      "Latency distribution for transaction execution.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		deposits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "campaign",
			Name:      "deposits_total",
			Help:      "Count of settled campaign deposits segmented by asset.",
		}, []string{"asset"}),
		withdrawalFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "campaign",
			Name:      "withdrawal_failures_total",
			Help:      "Count of token transfers skipped during creator withdrawals.",
		}, []string{"asset"}),
		pointsCredited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "points",
			Name:      "credited_total",
			Help:      "Whole points credited to users.",
		}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "height",
			Help:      "Number of committed transactions.",
		}),
	}
	reg.MustRegister(m.txTotal, m.txLatency, m.deposits, m.withdrawalFailures, m.pointsCredited, m.height)
	return m
}

// ObserveTx records the execution of a transaction.
func (m *PlatformMetrics) ObserveTx(method string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	method = labelOrUnknown(method)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.txTotal.WithLabelValues(method, outcome).Inc()
	m.txLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordDeposit counts a settled deposit of asset.
func (m *PlatformMetrics) RecordDeposit(asset string) {
	if m == nil {
		return
	}
	m.deposits.WithLabelValues(labelAsset(asset)).Inc()
}

// RecordWithdrawalFailure counts a token skipped during a withdrawal.
func (m *PlatformMetrics) RecordWithdrawalFailure(asset string) {
	if m == nil {
		return
	}
	m.withdrawalFailures.WithLabelValues(labelAsset(asset)).Inc()
}

// AddPoints adds an 18-decimal points amount to the credited counter.
func (m *PlatformMetrics) AddPoints(points *big.Int) {
	if m == nil || points == nil || points.Sign() <= 0 {
		return
	}
	whole := new(big.Float).Quo(new(big.Float).SetInt(points), big.NewFloat(1e18))
	m.pointsCredited.Add(bigFloat(whole))
}

// SetHeight updates the committed-transaction gauge.
func (m *PlatformMetrics) SetHeight(height uint64) {
	if m == nil {
		return
	}
	m.height.Set(float64(height))
}

func labelOrUnknown(value string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return "unknown"
}

func labelAsset(asset string) string {
	trimmed := strings.TrimSpace(asset)
	if trimmed == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(trimmed)
}

func itoa(v int) string {
	return big.NewInt(int64(v)).String()
}

func bigFloat(value *big.Float) float64 {
	floatVal, _ := value.Float64()
	if math.IsNaN(floatVal) || math.IsInf(floatVal, 0) {
		return 0
	}
	return floatVal
}
