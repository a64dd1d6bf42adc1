package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

func init() {
	register(
		purchasesTotal,
		purchasesRevenueTotal,
	)
}

var (
	purchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_total",
			Help: "Purchase transitions by resulting status.",
		},
		[]string{"status"},
	)

	purchasesRevenueTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "purchases_revenue_total",
			Help: "The total monetary value of completed purchases.",
		},
	)
)

func IncPurchase(status string) {
	purchasesTotal.WithLabelValues(norm(status)).Inc()
}

func AddPurchaseRevenue(amount decimal.Decimal) {
	f, _ := amount.Float64()
	if f > 0 {
		purchasesRevenueTotal.Add(f)
	}
}
