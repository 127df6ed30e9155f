package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sikafe/rentpay/internal/domain"
	"github.com/sikafe/rentpay/internal/fallback"
	"github.com/sikafe/rentpay/internal/notify"
	"github.com/sikafe/rentpay/internal/payment"
	"github.com/sikafe/rentpay/internal/repository"
	"github.com/sikafe/rentpay/internal/transfer"
)

type okGateway struct {
	mu   sync.Mutex
	sent int
}

func (g *okGateway) Name() string    { return "test-gateway" }
func (g *okGateway) MaxRetries() int { return 0 }

func (g *okGateway) Attempt(ctx context.Context, msg fallback.Message) (*fallback.Result, error) {
	g.mu.Lock()
	g.sent++
	g.mu.Unlock()
	return &fallback.Result{Provider: g.Name(), MessageID: "m-1"}, nil
}

func newTestServer(t *testing.T) (http.Handler, *okGateway) {
	t.Helper()

	db, err := repository.InitDB(":memory:")
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	// A second pool connection would see its own empty in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	paymentRepo := repository.NewPaymentRepo(db)
	transferRepo := repository.NewTransferRepo(db)
	leaseRepo := repository.NewLeaseRepo(db)
	auditRepo := repository.NewAuditRepo(db)

	if err := leaseRepo.InsertProperty(&domain.Property{
		ID: "PROP-001", OwnerID: "LL-001", OwnerPhone: "+22507010001", Label: "Appartement 1",
	}); err != nil {
		t.Fatalf("InsertProperty: %v", err)
	}
	if err := leaseRepo.InsertLease(&domain.Lease{
		ID: "LEASE-001", PropertyID: "PROP-001", TenantID: "TN-001", RentAmount: 150000,
	}); err != nil {
		t.Fatalf("InsertLease: %v", err)
	}

	now := time.Now().UTC()
	if err := paymentRepo.Insert(&domain.Payment{
		ID: "PAY-001", TransactionReference: "ref-001",
		Status: domain.StatusPending, Amount: 150000, Currency: "XOF",
		TenantID: "TN-001", LeaseID: "LEASE-001",
		Provider: domain.ProviderOrangeMoney, PayerPhone: "+22501020003",
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("Insert payment: %v", err)
	}

	gateway := &okGateway{}
	executor := fallback.NewExecutor("sms", time.Second, gateway)
	calc := transfer.NewCalculator(transferRepo, leaseRepo, 500, 150)
	dispatcher := notify.NewDispatcher(executor)
	machine := payment.NewMachine(paymentRepo, calc, dispatcher)

	return NewRouter(paymentRepo, transferRepo, auditRepo, machine), gateway
}

func postWebhook(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/webhooks/payment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const webhookBody = `{"provider_transaction_id":"OM-900","partner_transaction_id":"ref-001","status":"SUCCESS","amount":150000}`

func TestPaymentWebhook_Accepted(t *testing.T) {
	h, _ := newTestServer(t)

	w := postWebhook(t, h, webhookBody)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}

	var result payment.ReconcileResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !result.Applied || result.NewStatus != domain.StatusCompleted {
		t.Errorf("result = %+v, want applied completion", result)
	}
	if result.NetAmount != 140250 {
		t.Errorf("NetAmount = %d, want 140250", result.NetAmount)
	}
}

func TestPaymentWebhook_DuplicateDeliveryIsNoOp(t *testing.T) {
	h, _ := newTestServer(t)

	if w := postWebhook(t, h, webhookBody); w.Code != http.StatusOK {
		t.Fatalf("first delivery status = %d, want 200", w.Code)
	}

	w := postWebhook(t, h, webhookBody)
	if w.Code != http.StatusOK {
		t.Fatalf("second delivery status = %d, want 200", w.Code)
	}

	var result payment.ReconcileResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !result.NoOp {
		t.Errorf("second delivery result = %+v, want no-op indicator", result)
	}

	// Still exactly one transfer.
	req := httptest.NewRequest("GET", "/api/v1/transfers", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var listing struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("unmarshal transfers: %v", err)
	}
	if listing.Total != 1 {
		t.Errorf("transfers total = %d, want 1", listing.Total)
	}
}

func TestPaymentWebhook_ValidationFailure(t *testing.T) {
	h, gateway := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `garbage`},
		{"missing amount", `{"provider_transaction_id":"OM-1","partner_transaction_id":"ref-001","status":"SUCCESS"}`},
		{"mistyped amount", `{"provider_transaction_id":"OM-1","partner_transaction_id":"ref-001","status":"SUCCESS","amount":"150000"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postWebhook(t, h, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}

	// Rejected events must not touch the ledger or send anything.
	req := httptest.NewRequest("GET", "/api/v1/payments/ref-001", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp struct {
		Payment domain.Payment `json:"payment"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal payment: %v", err)
	}
	if resp.Payment.Status != domain.StatusPending {
		t.Errorf("payment status = %s, want untouched pending", resp.Payment.Status)
	}
	if gateway.sent != 0 {
		t.Errorf("notifications sent = %d, want 0", gateway.sent)
	}
}

func TestPaymentWebhook_UnknownReference(t *testing.T) {
	h, gateway := newTestServer(t)

	w := postWebhook(t, h, `{"provider_transaction_id":"OM-1","partner_transaction_id":"ref-999","status":"SUCCESS","amount":150000}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if gateway.sent != 0 {
		t.Errorf("notifications sent = %d, want 0", gateway.sent)
	}
}

func TestPaymentWebhook_Preflight(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/api/v1/webhooks/payment", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("Access-Control-Allow-Methods = %q, want POST allowed", got)
	}
}

func TestListPayments(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/payments?status=pending", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var listing struct {
		Total    int              `json:"total"`
		Payments []domain.Payment `json:"payments"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listing); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if listing.Total != 1 || len(listing.Payments) != 1 {
		t.Fatalf("listing = total %d len %d, want 1/1", listing.Total, len(listing.Payments))
	}
	if listing.Payments[0].TransactionReference != "ref-001" {
		t.Errorf("reference = %q, want ref-001", listing.Payments[0].TransactionReference)
	}
}

func TestGetDashboard(t *testing.T) {
	h, _ := newTestServer(t)

	if w := postWebhook(t, h, webhookBody); w.Code != http.StatusOK {
		t.Fatalf("webhook status = %d, want 200", w.Code)
	}

	req := httptest.NewRequest("GET", "/api/v1/dashboard", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var dash struct {
		Payments  map[string]int   `json:"payments"`
		Volume    map[string]int64 `json:"volume"`
		Transfers map[string]int64 `json:"transfers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &dash); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if dash.Payments["completed"] != 1 {
		t.Errorf("completed = %d, want 1", dash.Payments["completed"])
	}
	if dash.Volume["collected"] != 150000 {
		t.Errorf("collected = %d, want 150000", dash.Volume["collected"])
	}
	if dash.Transfers["net"] != 140250 {
		t.Errorf("transfers net = %d, want 140250", dash.Transfers["net"])
	}
}
