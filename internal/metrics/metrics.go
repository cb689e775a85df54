package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Route metrics
	RouteExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_engine_route_executions_total",
			Help: "Total number of route execution attempts",
		},
		[]string{"status", "reason"},
	)

	RouteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_engine_route_duration_seconds",
		Help:    "Route execution duration in seconds, open to commit or abort",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	RouteHops = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_engine_route_hops",
		Help:    "Number of hops per submitted route plan",
		Buckets: []float64{1, 2, 3, 4, 5, 6, 8},
	})

	// Hop metrics
	HopDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arb_engine_hop_duration_seconds",
			Help:    "Single venue hop duration in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		},
		[]string{"venue"},
	)

	HopFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_engine_hop_failures_total",
			Help: "Total number of failed venue hops",
		},
		[]string{"venue", "reason"},
	)

	ReportMismatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_engine_report_mismatches_total",
			Help: "Hops where the venue-reported output differed from the balance delta",
		},
		[]string{"venue"},
	)

	// Profit metrics
	Profit = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_engine_profit_atoms",
		Help:    "Accepted route profit in input-token atoms",
		Buckets: prometheus.ExponentialBuckets(1, 10, 12),
	})

	LedgerTrades = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "arb_engine_ledger_trades",
			Help: "Total accepted trades per ledger",
		},
		[]string{"ledger"},
	)

	// Session metrics
	OpenSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_engine_open_sessions",
		Help: "Number of sessions currently open",
	})

	// Cache metrics
	AccountCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_engine_account_cache_size",
		Help: "Current number of entries in the token account metadata cache",
	})

	AccountCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_engine_account_cache_hits_total",
		Help: "Total number of token account metadata cache hits",
	})

	AccountCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_engine_account_cache_misses_total",
		Help: "Total number of token account metadata cache misses",
	})

	BankAccounts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_engine_bank_accounts",
		Help: "Number of token accounts held by the host bank",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_engine_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arb_engine_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
