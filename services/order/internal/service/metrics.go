package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservationsHeld = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventhub",
		Subsystem: "order",
		Name:      "reservations_held_total",
		Help:      "Reservations placed or refreshed.",
	})

	reservationsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventhub",
		Subsystem: "order",
		Name:      "reservations_expired_total",
		Help:      "Reservations moved to EXPIRED by the sweeper.",
	})

	ordersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventhub",
		Subsystem: "order",
		Name:      "orders_created_total",
		Help:      "Checkout attempts by result.",
	}, []string{"result"})

	ordersPaid = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventhub",
		Subsystem: "order",
		Name:      "orders_paid_total",
		Help:      "Orders moved to PAID.",
	})
)
