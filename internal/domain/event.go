package domain

import "time"

// CanonicalEvent is a validated, normalized inbound payment-status
// notification. It is ephemeral: consumed by the state machine and kept
// only as the raw audit payload on the payment record.
type CanonicalEvent struct {
	ProviderTransactionID string    `json:"provider_transaction_id"`
	Reference             string    `json:"partner_transaction_id"`
	ProviderStatus        string    `json:"status"`
	Amount                int64     `json:"amount"`
	PayerPhone            string    `json:"customer_phone,omitempty"`
	Timestamp             time.Time `json:"timestamp"`
	ErrorMessage          string    `json:"error_message,omitempty"`

	// Raw is the verbatim inbound body, stored for audit.
	Raw []byte `json:"-"`
}
