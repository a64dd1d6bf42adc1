package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		redemptionsTotal,
		codesGeneratedTotal,
		codeCollisionsTotal,
	)
}

var (
	// result: success|not_found|already_used|expired|misconfigured|set_missing|error
	redemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redeem_attempts_total",
			Help: "Redeem code attempts by result.",
		},
		[]string{"result"},
	)

	codesGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "redeem_codes_generated_total",
			Help: "Redeem codes inserted by admin batches.",
		},
	)

	codeCollisionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "redeem_code_collisions_total",
			Help: "Generated codes that collided with an existing code and were regenerated.",
		},
	)
)

func IncRedemption(result string) {
	redemptionsTotal.WithLabelValues(norm(result)).Inc()
}

func AddCodesGenerated(n int) {
	codesGeneratedTotal.Add(float64(n))
}

func IncCodeCollision() {
	codeCollisionsTotal.Inc()
}
