// Package metrics exposes prometheus counters for ledger activity.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "larder"

var (
	OrdersPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Orders committed with their ingredient deductions.",
	})

	OrdersReversed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_reversed_total",
		Help:      "Orders cancelled with their stock restored.",
	})

	ReceiptsRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_receipts_total",
		Help:      "Stock-in receipts booked.",
	})

	ReceiptsReversed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_receipts_reversed_total",
		Help:      "Stock-in receipts reversed.",
	})

	// InsufficientStock counts rejections by the operation that hit the floor.
	InsufficientStock = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "insufficient_stock_total",
		Help:      "Operations rejected because an ingredient balance was too low.",
	}, []string{"operation"})

	LedgerConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_conflicts_total",
		Help:      "Optimistic version conflicts on ingredient balances that triggered a retry.",
	})

	NotificationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Order events the notifier failed to accept.",
	})
)

func init() {
	prometheus.MustRegister(
		OrdersPlaced,
		OrdersReversed,
		ReceiptsRecorded,
		ReceiptsReversed,
		InsufficientStock,
		LedgerConflicts,
		NotificationFailures,
	)
}
