package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventhub",
		Subsystem: "payment",
		Name:      "payments_total",
		Help:      "Payment state changes by provider and resulting status.",
	}, []string{"provider", "status"})

	refundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventhub",
		Subsystem: "payment",
		Name:      "refunds_total",
		Help:      "Refunds issued by provider.",
	}, []string{"provider"})
)
