package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventhub",
		Subsystem: "ticket",
		Name:      "tickets_issued_total",
		Help:      "Tickets issued for paid orders.",
	})

	ticketsRefundedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventhub",
		Subsystem: "ticket",
		Name:      "tickets_refunded_total",
		Help:      "Tickets moved to REFUNDED after an order refund.",
	})
)
