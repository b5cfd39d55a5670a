package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/set-night/bountyhub/internal/domain"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bountyhub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	ResponseTimeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bountyhub_http_response_time_seconds",
			Help:    "Histogram of response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	LedgerEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bountyhub_ledger_entries_total",
			Help: "Committed ledger entries",
		},
		[]string{"type", "status"},
	)

	LedgerAmountTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bountyhub_ledger_amount_total",
			Help: "Absolute amount moved by committed ledger entries",
		},
		[]string{"type"},
	)

	CommissionCreditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bountyhub_commission_credits_total",
			Help: "Commission fan-out outcomes per referral level",
		},
		[]string{"level", "outcome"},
	)

	AuditDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bountyhub_audit_decisions_total",
			Help: "Claim audit decisions",
		},
		[]string{"decision"},
	)

	JoinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bountyhub_joins_total",
			Help: "Platform join attempts by outcome",
		},
		[]string{"outcome"},
	)

	EventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bountyhub_events_dropped_total",
			Help: "Ledger events dropped because a subscriber was full",
		},
	)
)

func ObserveEntry(e domain.Transaction) {
	LedgerEntriesTotal.WithLabelValues(string(e.Type), string(e.Status)).Inc()
	amount, _ := e.Amount.Abs().Float64()
	LedgerAmountTotal.WithLabelValues(string(e.Type)).Add(amount)
}

func ObserveCommission(level int, outcome string) {
	CommissionCreditsTotal.WithLabelValues(strconv.Itoa(level), outcome).Inc()
}
