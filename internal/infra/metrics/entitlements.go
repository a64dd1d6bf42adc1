package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		accessChecksTotal,
		entitlementsGrantedTotal,
	)
}

var (
	accessChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_checks_total",
			Help: "Access decisions by outcome.",
		},
		[]string{"outcome"}, // free|granted|denied
	)

	entitlementsGrantedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlements_granted_total",
			Help: "Entitlements created, labelled by source payment method.",
		},
		[]string{"source"},
	)
)

func IncAccessCheck(outcome string) {
	accessChecksTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncEntitlementGranted(source string) {
	entitlementsGrantedTotal.WithLabelValues(norm(source)).Inc()
}
