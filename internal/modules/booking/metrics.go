package booking

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"railbook/internal/domain"
)

var (
	ledgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "railbook_ledger_operations_total",
		Help: "Booking ledger operations by outcome",
	}, []string{"operation", "outcome"})

	ledgerRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "railbook_ledger_retries_total",
		Help: "Ledger transactions retried after a version conflict",
	}, []string{"operation"})

	paymentLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "railbook_payment_authorize_seconds",
		Help:    "Latency of payment authorization calls",
		Buckets: prometheus.DefBuckets,
	})
)

func observe(operation string, err error) {
	ledgerOperations.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrNoAvailability):
		return "sold_out"
	case errors.Is(err, ErrSeatTaken):
		return "seat_taken"
	case errors.Is(err, domain.ErrAlreadyCancelled):
		return "already_cancelled"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return "conflict"
	case errors.Is(err, domain.ErrPaymentTimeout):
		return "payment_timeout"
	case errors.Is(err, domain.ErrPaymentRequired):
		return "payment_refused"
	}
	return "error"
}
