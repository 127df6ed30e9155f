package payment

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sikafe/rentpay/internal/domain"
	"github.com/sikafe/rentpay/internal/notify"
	"github.com/sikafe/rentpay/internal/repository"
	"github.com/sikafe/rentpay/internal/transfer"
)

// statusMap is the fixed provider-vocabulary lookup table. Anything not
// listed maps to processing: an unrecognized provider status must never
// fabricate a terminal outcome.
var statusMap = map[string]domain.PaymentStatus{
	"SUCCESS":    domain.StatusCompleted,
	"SUCCESSFUL": domain.StatusCompleted,
	"COMPLETED":  domain.StatusCompleted,
	"FAILED":     domain.StatusFailed,
	"FAILURE":    domain.StatusFailed,
	"REJECTED":   domain.StatusFailed,
	"CANCELLED":  domain.StatusCancelled,
	"CANCELED":   domain.StatusCancelled,
	"EXPIRED":    domain.StatusCancelled,
	"PENDING":    domain.StatusProcessing,
	"PROCESSING": domain.StatusProcessing,
	"INITIATED":  domain.StatusProcessing,
}

// MapProviderStatus maps a provider-reported status string to a canonical
// state. The mapping is case-insensitive and deterministic.
func MapProviderStatus(providerStatus string) domain.PaymentStatus {
	if s, ok := statusMap[strings.ToUpper(strings.TrimSpace(providerStatus))]; ok {
		return s
	}
	return domain.StatusProcessing
}

// ReconcileResult summarises one webhook application.
type ReconcileResult struct {
	Reference       string               `json:"reference"`
	PreviousStatus  domain.PaymentStatus `json:"previous_status"`
	NewStatus       domain.PaymentStatus `json:"new_status"`
	Applied         bool                 `json:"applied"`
	NoOp            bool                 `json:"noop"`
	TransferCreated bool                 `json:"transfer_created,omitempty"`
	TransferID      string               `json:"transfer_id,omitempty"`
	NetAmount       int64                `json:"net_amount,omitempty"`
	Warnings        []string             `json:"warnings,omitempty"`
}

// Machine owns the authoritative status of payment records and applies
// webhook-driven transitions under idempotency and terminal-state guards.
type Machine struct {
	payments   *repository.PaymentRepo
	calculator *transfer.Calculator
	dispatcher *notify.Dispatcher
}

func NewMachine(payments *repository.PaymentRepo, calculator *transfer.Calculator, dispatcher *notify.Dispatcher) *Machine {
	return &Machine{payments: payments, calculator: calculator, dispatcher: dispatcher}
}

// ApplyWebhook reconciles one validated event against the ledger.
//
// Webhook delivery is at-least-once, so every downstream effect is gated
// behind winning the transition into a terminal state, never behind merely
// observing an event that carries a terminal status. A record that is
// already terminal accepts the event as a no-op success so the provider
// stops retrying delivery.
func (m *Machine) ApplyWebhook(ctx context.Context, ev *domain.CanonicalEvent) (*ReconcileResult, error) {
	p, err := m.payments.FindByReference(ev.Reference)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{
		Reference:      ev.Reference,
		PreviousStatus: p.Status,
		NewStatus:      p.Status,
	}

	if p.Status.Terminal() {
		if err := m.payments.AppendAuditPayload(ev.Reference, string(ev.Raw)); err != nil {
			log.Printf("[payment] WARNING: audit append for %s failed: %v", ev.Reference, err)
		}
		result.NoOp = true
		log.Printf("[payment] %s already %s, event %s accepted as no-op",
			ev.Reference, p.Status, ev.ProviderTransactionID)
		return result, nil
	}

	next := MapProviderStatus(ev.ProviderStatus)
	result.NewStatus = next

	var paidAt *time.Time
	if next == domain.StatusCompleted {
		t := ev.Timestamp
		if t.IsZero() {
			t = time.Now().UTC()
		}
		paidAt = &t
	}

	won, err := m.payments.TransitionIfNotTerminal(ev.Reference, next, paidAt, string(ev.Raw))
	if err != nil {
		return nil, fmt.Errorf("apply transition: %w", err)
	}
	if !won {
		// A concurrent delivery finalized the record between our read and
		// the conditional update. Same outcome as the terminal guard above.
		result.NoOp = true
		result.NewStatus = result.PreviousStatus
		log.Printf("[payment] %s finalized concurrently, event %s accepted as no-op",
			ev.Reference, ev.ProviderTransactionID)
		return result, nil
	}

	result.Applied = true
	log.Printf("[payment] %s: %s -> %s (provider txn %s)",
		ev.Reference, result.PreviousStatus, next, ev.ProviderTransactionID)

	// Only the CAS winner reaches this point, so each terminal effect
	// fires at most once per payment.
	switch next {
	case domain.StatusCompleted:
		if err := m.onCompleted(ctx, p, paidAt, result); err != nil {
			return nil, err
		}
	case domain.StatusFailed:
		result.Warnings = append(result.Warnings, m.dispatcher.PaymentFailed(ctx, p)...)
	}

	return result, nil
}

func (m *Machine) onCompleted(ctx context.Context, p *domain.Payment, paidAt *time.Time, result *ReconcileResult) error {
	p.Status = domain.StatusCompleted
	p.PaidAt = paidAt

	t, created, err := m.calculator.MaterializeTransfer(p)
	if err != nil {
		// Financial state: always surfaced, never swallowed.
		return fmt.Errorf("materialize transfer for %s: %w", p.TransactionReference, err)
	}
	result.TransferCreated = created
	if t != nil {
		result.TransferID = t.ID
		result.NetAmount = t.NetAmount
	}

	result.Warnings = append(result.Warnings, m.dispatcher.PaymentCompleted(ctx, p, t)...)
	return nil
}
