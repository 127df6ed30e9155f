package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sikafe/rentpay/internal/domain"
	"github.com/sikafe/rentpay/internal/payment"
	"github.com/sikafe/rentpay/internal/repository"
	"github.com/sikafe/rentpay/internal/webhook"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	paymentRepo  *repository.PaymentRepo
	transferRepo *repository.TransferRepo
	auditRepo    *repository.AuditRepo
	machine      *payment.Machine
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil
		}
	}
	return &t
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func (h *Handlers) audit(endpoint, reference string, status int, detail string) {
	if err := h.auditRepo.LogApiUsage(endpoint, reference, status, detail); err != nil {
		log.Printf("[api] WARNING: audit log failed: %v", err)
	}
}

// --- PaymentWebhook ---

// PaymentWebhook receives one provider payment-status event and reconciles
// it against the ledger. 200 covers both applied transitions and accepted
// no-ops so the provider stops redelivering.
func (h *Handlers) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	ev, err := webhook.Validate(body)
	if err != nil {
		h.audit("/webhooks/payment", "", http.StatusBadRequest, err.Error())
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.machine.ApplyWebhook(r.Context(), ev)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			h.audit("/webhooks/payment", ev.Reference, http.StatusNotFound, "unknown reference")
			writeError(w, http.StatusNotFound, "no payment for reference "+ev.Reference)
			return
		}
		log.Printf("[api] webhook for %s failed: %v", ev.Reference, err)
		h.audit("/webhooks/payment", ev.Reference, http.StatusInternalServerError, err.Error())
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.audit("/webhooks/payment", ev.Reference, http.StatusOK, string(result.NewStatus))
	writeJSON(w, http.StatusOK, result)
}

// PaymentWebhookPreflight answers the CORS preflight.
func (h *Handlers) PaymentWebhookPreflight(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// --- ListPayments ---

func (h *Handlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.PaymentFilter{
		Status:   q.Get("status"),
		Provider: q.Get("provider"),
		TenantID: q.Get("tenant_id"),
		From:     parseTime(q.Get("from")),
		To:       parseTime(q.Get("to")),
		Page:     parseIntDefault(q.Get("page"), 1),
		Limit:    parseIntDefault(q.Get("limit"), 50),
	}

	payments, total, err := h.paymentRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"payments": payments,
		"total":    total,
		"page":     filter.Page,
		"limit":    filter.Limit,
	})
}

// --- GetPayment ---

func (h *Handlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		writeError(w, http.StatusBadRequest, "reference is required")
		return
	}

	p, err := h.paymentRepo.FindByReference(reference)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			writeError(w, http.StatusNotFound, "payment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	t, err := h.transferRepo.FindByPaymentID(p.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]any{"payment": p}
	if t != nil {
		resp["transfer"] = t
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- ListTransfers ---

func (h *Handlers) ListTransfers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.TransferFilter{
		Status:     q.Get("status"),
		LandlordID: q.Get("landlord_id"),
		Page:       parseIntDefault(q.Get("page"), 1),
		Limit:      parseIntDefault(q.Get("limit"), 50),
	}

	transfers, total, err := h.transferRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transfers": transfers,
		"total":     total,
		"page":      filter.Page,
		"limit":     filter.Limit,
	})
}

// --- GetDashboard ---

func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.paymentRepo.GetLedgerStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	totals, err := h.transferRepo.GetTotals()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	providerVols, err := h.paymentRepo.GetVolumeByProvider()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dashboard := map[string]any{
		"payments": map[string]int{
			"total":      stats.Total,
			"pending":    stats.Pending,
			"processing": stats.Processing,
			"completed":  stats.Completed,
			"failed":     stats.Failed,
			"cancelled":  stats.Cancelled,
		},
		"volume": map[string]int64{
			"collected":   stats.Collected,
			"outstanding": stats.Outstanding,
		},
		"transfers": map[string]int64{
			"count": int64(totals.Count),
			"gross": totals.GrossSum,
			"fees":  totals.FeeSum,
			"net":   totals.NetSum,
		},
		"by_provider": providerVols,
	}

	writeJSON(w, http.StatusOK, dashboard)
}

// --- Health ---

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
