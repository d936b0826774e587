package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ccmarketers/ledger/internal/adapter/http/handler"
	"github.com/ccmarketers/ledger/internal/adapter/http/middleware"
	"github.com/ccmarketers/ledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	WalletHandler         *handler.WalletHandler
	EscrowHandler         *handler.EscrowHandler
	WithdrawalHandler     *handler.WithdrawalHandler
	ReferralHandler       *handler.ReferralHandler
	WebhookHandler        *handler.WebhookHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler
	IdempotencyStore      usecase.IdempotencyStore
	Logger                zerolog.Logger
	RateLimiter           *middleware.RateLimiter
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and operational endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// Gateway callbacks authenticate by signature, not by idempotency
	// key; the insert guard inside handles redelivery.
	r.Post("/webhooks/paystack", cfg.WebhookHandler.HandlePaystack)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Wallets and funding
		r.Get("/wallets/{ownerID}/balance", cfg.WalletHandler.GetBalance)
		r.Post("/wallets/transfer", cfg.WalletHandler.Transfer)
		r.Get("/accounts/{accountID}/entries", cfg.WalletHandler.ListEntries)
		r.Post("/funding", cfg.WalletHandler.InitiateFunding)
		r.Get("/funding/{reference}", cfg.WalletHandler.VerifyFunding)

		// Escrows
		r.Route("/escrows", func(r chi.Router) {
			r.Post("/", cfg.EscrowHandler.Lock)
			r.Get("/{id}", cfg.EscrowHandler.Get)
			r.Post("/{id}/release", cfg.EscrowHandler.Release)
			r.Post("/{id}/refund", cfg.EscrowHandler.Refund)
		})
		r.Get("/tasks/{taskID}/escrow", cfg.EscrowHandler.GetByTask)
		r.Get("/advertisers/{advertiserID}/escrows", cfg.EscrowHandler.ListByAdvertiser)

		// Withdrawals
		r.Route("/withdrawals", func(r chi.Router) {
			r.Post("/", cfg.WithdrawalHandler.Request)
			r.Get("/{id}", cfg.WithdrawalHandler.Get)
			r.Post("/{id}/approve", cfg.WithdrawalHandler.Approve)
			r.Post("/{id}/reject", cfg.WithdrawalHandler.Reject)
		})
		r.Get("/users/{userID}/withdrawals", cfg.WithdrawalHandler.ListByUser)
		r.Post("/banks/resolve", cfg.WithdrawalHandler.ResolveAccount)

		// Referrals
		r.Get("/users/{userID}/referral-code", cfg.ReferralHandler.GetCode)
		r.Post("/referrals/link", cfg.ReferralHandler.Link)
		r.Get("/users/{userID}/earnings", cfg.ReferralHandler.ListEarnings)
		r.Get("/users/{userID}/referral-stats", cfg.ReferralHandler.GetStats)
		r.Post("/earnings/{id}/approve", cfg.ReferralHandler.ApproveEarning)
		r.Post("/earnings/{id}/cancel", cfg.ReferralHandler.CancelEarning)

		// Reconciliation
		r.Get("/admin/reconciliation", cfg.ReconciliationHandler.ReplayAll)
		r.Get("/admin/reconciliation/{accountID}", cfg.ReconciliationHandler.ReplayAccount)
	})

	return r
}
