package metrics

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bridge"

var (
	hostname, _ = os.Hostname()
	registry    = prometheus.NewRegistry()
)

var (
	// VenueRequests counts correlated venue requests by payload type and outcome.
	VenueRequests = GetCounter(namespace, "venue_requests_total", []string{"payload_type", "outcome"})
	// InFlight is the number of requests waiting for a venue response.
	InFlight = GetGauge(namespace, "venue_requests_in_flight", nil)
	// SessionStage is the current handshake stage as an ordinal.
	SessionStage = GetGauge(namespace, "session_stage", nil)
	// Orders counts placement outcomes.
	Orders = GetCounter(namespace, "orders_total", []string{"kind", "status", "detail"})
	// StaleSnapshots counts reconciliation calls served from the last known snapshot.
	StaleSnapshots = GetCounter(namespace, "reconcile_stale_total", []string{"kind"})
	// BrokerLatency observes broker facade calls in milliseconds.
	BrokerLatency = GetHistogram(namespace, "broker_call_duration_ms", []string{"method", "outcome"})
	// Decisions counts decider verdicts.
	Decisions = GetCounter(namespace, "decisions_total", []string{"signal"})
)

func GetCounter(namespace, metricName string, labelNames []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        metricName,
		ConstLabels: prometheus.Labels{"hostname": hostname},
	}, labelNames)
	registry.MustRegister(counter)
	return counter
}

func GetGauge(namespace, metricName string, labelNames []string) *prometheus.GaugeVec {
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        metricName,
		ConstLabels: prometheus.Labels{"hostname": hostname},
	}, labelNames)
	registry.MustRegister(gauge)
	return gauge
}

func GetHistogram(namespace, metricName string, labelNames []string) *prometheus.HistogramVec {
	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Name:        metricName,
		ConstLabels: prometheus.Labels{"hostname": hostname},
		Buckets:     []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 25000}, // milliseconds
	}, labelNames)
	registry.MustRegister(histogram)
	return histogram
}

// Handler exposes the private registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
