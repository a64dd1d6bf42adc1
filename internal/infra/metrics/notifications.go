package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		notificationsTotal,
		alertsTotal,
		sweepRunsTotal,
	)
}

var (
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "User notifications by event and delivery status.",
		},
		[]string{"event", "status"}, // status: sent|error|dropped
	)

	alertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_alerts_total",
			Help: "Admin alerts by delivery status.",
		},
		[]string{"status"},
	)

	sweepRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expiry_sweep_runs_total",
			Help: "Expiry sweep executions by result.",
		},
		[]string{"result"}, // ok|error|skipped
	)
)

func IncNotification(event, status string) {
	notificationsTotal.WithLabelValues(norm(event), norm(status)).Inc()
}

func IncAlert(status string) {
	alertsTotal.WithLabelValues(norm(status)).Inc()
}

func IncSweepRun(result string) {
	sweepRunsTotal.WithLabelValues(norm(result)).Inc()
}
