package observability

import (
	"time"

	"github.com/boddenberg/wecom-agent-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	platformErrors  *prometheus.CounterVec
	messagesSent    *prometheus.CounterVec
	tokenFetches    prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wecom_request_duration_seconds",
				Help:    "Duration of platform operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		platformErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wecom_errors_total",
				Help: "Total failed operations by error kind.",
			},
			[]string{"kind"},
		),
		messagesSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wecom_messages_total",
				Help: "Total messages by channel (direct, chat), msgtype and status.",
			},
			[]string{"channel", "msgtype", "status"},
		),
		tokenFetches: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wecom_token_fetches_total",
				Help: "Total access tokens fetched from the platform.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrError increments the error counter for the kind of err.
func (m *Metrics) IncrError(err error) {
	m.platformErrors.WithLabelValues(string(domain.KindOf(err))).Inc()
}

// IncrMessage counts a send attempt.
func (m *Metrics) IncrMessage(channel string, msgType domain.MsgType, status string) {
	m.messagesSent.WithLabelValues(channel, string(msgType), status).Inc()
}

// IncrTokenFetch counts one access-token fetch. Satisfies wecom.TokenObserver.
func (m *Metrics) IncrTokenFetch() {
	m.tokenFetches.Inc()
}

// Snapshot aggregates the message counters for GET /v1/metrics/messages.
func (m *Metrics) Snapshot() *domain.MessageMetrics {
	snap := &domain.MessageMetrics{
		ByType:         map[string]int64{},
		PlatformErrors: map[string]int64{},
		Period:         "all_time",
	}

	for _, metric := range gather(m.messagesSent) {
		labels := labelMap(metric)
		v := int64(metric.GetCounter().GetValue())
		switch labels["status"] {
		case "success":
			snap.MessagesSent += v
			snap.ByType[labels["msgtype"]] += v
		case "error":
			snap.MessagesFailed += v
		}
	}
	for _, metric := range gather(m.platformErrors) {
		snap.PlatformErrors[labelMap(metric)["kind"]] += int64(metric.GetCounter().GetValue())
	}
	snap.TokenFetches = int64(counterValue(m.tokenFetches))

	if total := snap.MessagesSent + snap.MessagesFailed; total > 0 {
		snap.ErrorRate = float64(snap.MessagesFailed) / float64(total)
	}
	return snap
}

// gather collects every child series of a collector.
func gather(c prometheus.Collector) []*dto.Metric {
	ch := make(chan prometheus.Metric, 64)
	go func() {
		c.Collect(ch)
		close(ch)
	}()

	var out []*dto.Metric
	for pm := range ch {
		m := &dto.Metric{}
		if err := pm.Write(m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

func labelMap(m *dto.Metric) map[string]string {
	labels := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	return labels
}

// counterValue extracts the current float64 value from a single counter.
func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
