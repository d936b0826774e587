package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	EntriesCreated *prometheus.CounterVec
	EntryAmount    prometheus.Histogram
	LedgerErrors   *prometheus.CounterVec

	// Account metrics
	AccountsCreated prometheus.Counter

	// Escrow metrics
	EscrowsLocked   prometheus.Counter
	EscrowsReleased prometheus.Counter
	EscrowsRefunded prometheus.Counter
	EscrowDuration  prometheus.Histogram

	// Withdrawal metrics
	WithdrawalsRequested prometheus.Counter
	WithdrawalsDecided   *prometheus.CounterVec
	WithdrawalsSettled   *prometheus.CounterVec

	// Referral metrics
	ReferralEarnings *prometheus.CounterVec

	// Webhook metrics
	WebhooksReceived  *prometheus.CounterVec
	WebhookDuplicates prometheus.Counter
	WebhookFailures   *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisDuration   *prometheus.HistogramVec
	RedisErrors     *prometheus.CounterVec

	// Gateway metrics
	GatewayRequests *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Ledger metrics
		EntriesCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_entries_created_total",
				Help: "Total number of ledger entries created by direction and category",
			},
			[]string{"direction", "category"},
		),
		EntryAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_entry_amount",
			Help:    "Ledger entry amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		LedgerErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_errors_total",
				Help: "Total number of ledger errors by type",
			},
			[]string{"error_type"},
		),

		// Account metrics
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),

		// Escrow metrics
		EscrowsLocked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_escrows_locked_total",
			Help: "Total number of escrows locked",
		}),
		EscrowsReleased: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_escrows_released_total",
			Help: "Total number of escrows released",
		}),
		EscrowsRefunded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_escrows_refunded_total",
			Help: "Total number of escrows refunded",
		}),
		EscrowDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_escrow_lock_duration_seconds",
			Help:    "Time escrows spend locked before release or refund",
			Buckets: []float64{60, 600, 3600, 21600, 86400, 259200, 604800},
		}),

		// Withdrawal metrics
		WithdrawalsRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_withdrawals_requested_total",
			Help: "Total number of withdrawal requests created",
		}),
		WithdrawalsDecided: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_withdrawals_decided_total",
				Help: "Total number of withdrawal decisions by outcome",
			},
			[]string{"outcome"},
		),
		WithdrawalsSettled: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_withdrawals_settled_total",
				Help: "Total number of withdrawal settlements by outcome",
			},
			[]string{"outcome"},
		),

		// Referral metrics
		ReferralEarnings: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_referral_earnings_total",
				Help: "Total number of referral earnings by level and type",
			},
			[]string{"level", "type"},
		),

		// Webhook metrics
		WebhooksReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_webhooks_received_total",
				Help: "Total number of webhook events received by gateway and type",
			},
			[]string{"gateway", "event_type"},
		),
		WebhookDuplicates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_webhook_duplicates_total",
			Help: "Total number of duplicate webhook deliveries ignored",
		}),
		WebhookFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_webhook_failures_total",
				Help: "Total number of webhook processing failures by reason",
			},
			[]string{"reason"},
		),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_http_requests_total",
				Help: "Total HTTP requests by method, path, and status",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_db_queries_total",
				Help: "Total database queries by operation",
			},
			[]string{"operation"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_db_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_db_errors_total",
				Help: "Total database errors by type",
			},
			[]string{"error_type"},
		),

		// Redis metrics
		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_redis_operations_total",
				Help: "Total Redis operations by type",
			},
			[]string{"operation"},
		),
		RedisDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_redis_duration_seconds",
				Help:    "Redis operation duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_redis_errors_total",
				Help: "Total Redis errors by type",
			},
			[]string{"error_type"},
		),

		// Gateway metrics
		GatewayRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_gateway_requests_total",
				Help: "Total payment gateway requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		GatewayDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_gateway_duration_seconds",
				Help:    "Payment gateway request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		// Audit metrics
		AuditLogsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_audit_logs_total",
				Help: "Total audit logs created by action",
			},
			[]string{"action"},
		),
	}
}
