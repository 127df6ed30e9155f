package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/sikafe/rentpay/internal/domain"
	"github.com/sikafe/rentpay/internal/fallback"
)

// smsMaxLen is the single-segment GSM-7 limit; longer bodies are truncated
// rather than split.
const smsMaxLen = 160

// Dispatcher composes and sends tenant/landlord notifications on terminal
// payment outcomes. Delivery goes through the message-capability fallback
// executor; an exhausted executor is a warning, never a reason to touch
// the ledger transition that triggered it.
type Dispatcher struct {
	executor *fallback.Executor
}

func NewDispatcher(executor *fallback.Executor) *Dispatcher {
	return &Dispatcher{executor: executor}
}

// PaymentCompleted sends the tenant confirmation and the landlord
// payout-pending notice. Returned warnings describe sends that exhausted
// every provider.
func (d *Dispatcher) PaymentCompleted(ctx context.Context, p *domain.Payment, t *domain.LandlordTransfer) []string {
	var warnings []string

	tenantMsg := fmt.Sprintf(
		"Votre loyer de %d %s a ete recu. Reference: %s. Merci!",
		p.Amount, p.Currency, p.TransactionReference,
	)
	if w := d.send(ctx, p.PayerPhone, tenantMsg, "tenant confirmation", p.TransactionReference); w != "" {
		warnings = append(warnings, w)
	}

	if t != nil && t.DestinationPhone != "" {
		landlordMsg := fmt.Sprintf(
			"Loyer percu: %d %s net (ref %s). Virement %s en preparation.",
			t.NetAmount, t.Currency, p.TransactionReference, t.PartnerTransactionID,
		)
		if w := d.send(ctx, t.DestinationPhone, landlordMsg, "landlord payout notice", p.TransactionReference); w != "" {
			warnings = append(warnings, w)
		}
	}

	return warnings
}

// PaymentFailed sends the tenant failure notice.
func (d *Dispatcher) PaymentFailed(ctx context.Context, p *domain.Payment) []string {
	var warnings []string

	msg := fmt.Sprintf(
		"Le paiement de votre loyer (ref %s) a echoue. Veuillez reessayer.",
		p.TransactionReference,
	)
	if w := d.send(ctx, p.PayerPhone, msg, "tenant failure notice", p.TransactionReference); w != "" {
		warnings = append(warnings, w)
	}

	return warnings
}

func (d *Dispatcher) send(ctx context.Context, to, body, kind, reference string) string {
	if to == "" {
		log.Printf("[notify] WARNING: no phone for %s (ref %s), skipping", kind, reference)
		return fmt.Sprintf("%s skipped: no destination phone", kind)
	}

	res, err := d.executor.Execute(ctx, fallback.Message{To: to, Body: truncate(body, smsMaxLen)})
	if err != nil {
		log.Printf("[notify] WARNING: %s for %s not delivered: %v", kind, reference, err)
		return fmt.Sprintf("%s not delivered: %v", kind, err)
	}

	log.Printf("[notify] Sent %s for %s via %s (message_id=%s)",
		kind, reference, res.Provider, res.MessageID)
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
