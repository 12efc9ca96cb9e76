package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	AlertsChecked             prometheus.Counter
	DealsFound                prometheus.Counter
	NotificationsSent         prometheus.Counter
	NotificationsDeduplicated prometheus.Counter
	CycleDuration             prometheus.Histogram
	UndeliveredBacklog        prometheus.Gauge
	ErrorsCount               *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		AlertsChecked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_checked_total",
			Help:      "The total number of alert evaluations",
		}),
		DealsFound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deals_found_total",
			Help:      "The total number of qualifying deals found",
		}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "The total number of notifications sent to channels",
		}),
		NotificationsDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_deduplicated_total",
			Help:      "The total number of dispatches short-circuited by the dedup gate",
		}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Time taken to run one scheduling cycle",
			Buckets:   prometheus.DefBuckets,
		}),
		UndeliveredBacklog: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "undelivered_backlog",
			Help:      "Notification records with sent=true but no delivery confirmation",
		}),
		ErrorsCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
