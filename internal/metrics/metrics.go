package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	UpstreamOverpass  = "overpass"
	UpstreamNominatim = "nominatim"

	StatusSuccess = "success"
	StatusFailure = "failure"
)

type Metrics struct {
	UpstreamSeconds  *prometheus.HistogramVec
	UpstreamErrors   *prometheus.CounterVec
	Enrichments      *prometheus.CounterVec
	StationsReturned prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		UpstreamSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "postofinder_upstream_request_duration_seconds",
			Help:    "Duration of requests to upstream map data services.",
			Buckets: prometheus.DefBuckets,
		}, []string{"upstream"}),
		UpstreamErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "postofinder_upstream_errors_total",
			Help: "Total number of failed requests to upstream map data services.",
		}, []string{"upstream"}),
		Enrichments: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "postofinder_address_enrichments_total",
			Help: "Total number of reverse geocoding attempts by outcome.",
		}, []string{"status"}),
		StationsReturned: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "postofinder_stations_returned",
			Help:    "Number of stations returned per lookup.",
			Buckets: []float64{0, 1, 5, 10, 15, 20},
		}),
	}
}

// The methods below accept a nil receiver so callers can run without metrics.

func (m *Metrics) ObserveUpstream(upstream string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.UpstreamSeconds.WithLabelValues(upstream).Observe(time.Since(started).Seconds())
	if err != nil {
		m.UpstreamErrors.WithLabelValues(upstream).Inc()
	}
}

func (m *Metrics) ObserveEnrichment(ok bool) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if !ok {
		status = StatusFailure
	}
	m.Enrichments.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveStations(n int) {
	if m == nil {
		return
	}
	m.StationsReturned.Observe(float64(n))
}
