package domain

import "time"

type PaymentStatus string

const (
	StatusPending    PaymentStatus = "pending"
	StatusProcessing PaymentStatus = "processing"
	StatusCompleted  PaymentStatus = "completed"
	StatusFailed     PaymentStatus = "failed"
	StatusCancelled  PaymentStatus = "cancelled"
)

// Terminal reports whether no further transition is permitted from s.
func (s PaymentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

type Provider string

const (
	ProviderOrangeMoney Provider = "orange_money"
	ProviderMTNMoMo     Provider = "mtn_momo"
	ProviderWave        Provider = "wave"
	ProviderMoov        Provider = "moov_money"
)

// Payment is one rent payment obligation. Amount is in minor currency
// units (XOF has none, so 1 unit = 1 franc). TransactionReference is
// assigned by the initiating flow and doubles as the idempotency key for
// webhook reconciliation.
type Payment struct {
	ID                   string        `json:"id"`
	TransactionReference string        `json:"transaction_reference"`
	Status               PaymentStatus `json:"status"`
	Amount               int64         `json:"amount"`
	Currency             string        `json:"currency"`
	TenantID             string        `json:"tenant_id"`
	LeaseID              string        `json:"lease_id"`
	Provider             Provider      `json:"provider"`
	PayerPhone           string        `json:"payer_phone"`
	ResponsePayload      string        `json:"response_payload,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
	PaidAt               *time.Time    `json:"paid_at,omitempty"`
}
