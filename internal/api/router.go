package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sikafe/rentpay/internal/payment"
	"github.com/sikafe/rentpay/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	paymentRepo *repository.PaymentRepo,
	transferRepo *repository.TransferRepo,
	auditRepo *repository.AuditRepo,
	machine *payment.Machine,
) http.Handler {
	h := &Handlers{
		paymentRepo:  paymentRepo,
		transferRepo: transferRepo,
		auditRepo:    auditRepo,
		machine:      machine,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Inbound provider webhooks.
		r.Post("/webhooks/payment", h.PaymentWebhook)
		r.Options("/webhooks/payment", h.PaymentWebhookPreflight)

		// Payments.
		r.Get("/payments", h.ListPayments)
		r.Get("/payments/{reference}", h.GetPayment)

		// Transfers.
		r.Get("/transfers", h.ListTransfers)

		// Dashboard.
		r.Get("/dashboard", h.GetDashboard)
	})

	return r
}
