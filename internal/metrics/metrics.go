package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for backend round trips
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	SnapshotWrites  *prometheus.CounterVec
}

// New creates all metrics and registers them on reg.
// A nil reg falls back to the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recruit_client_requests_total",
			Help: "Total number of backend requests by method and status",
		}, []string{"method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recruit_client_request_duration_seconds",
			Help:    "Backend request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		SnapshotWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recruit_client_snapshot_writes_total",
			Help: "Total number of persisted state snapshots by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveRequest records one round trip. status 0 means the request never
// got a response (transport failure).
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.Requests.WithLabelValues(method, label).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveSnapshotWrite records a snapshot flush
func (m *Metrics) ObserveSnapshotWrite(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.SnapshotWrites.WithLabelValues(outcome).Inc()
}
