package webhook

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/sikafe/rentpay/internal/domain"
)

// inboundEvent mirrors the provider webhook body. Required fields are
// pointers so a missing key is distinguishable from a zero value.
type inboundEvent struct {
	ProviderTransactionID *string `json:"provider_transaction_id"`
	PartnerTransactionID  *string `json:"partner_transaction_id"`
	Status                *string `json:"status"`
	Amount                *int64  `json:"amount"`
	CustomerPhone         string  `json:"customer_phone"`
	Timestamp             string  `json:"timestamp"`
	ErrorMessage          string  `json:"error_message"`
}

// Validate structurally checks an inbound payment-status payload and
// normalizes it into a canonical event. Any missing or mistyped required
// field yields a *domain.ValidationError; failure has no side effects.
func Validate(raw []byte) (*domain.CanonicalEvent, error) {
	var in inboundEvent
	if err := json.Unmarshal(raw, &in); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, &domain.ValidationError{Field: typeErr.Field, Reason: "has the wrong type"}
		}
		return nil, &domain.ValidationError{Field: "body", Reason: "is not a structured JSON object"}
	}

	if in.ProviderTransactionID == nil || *in.ProviderTransactionID == "" {
		return nil, &domain.ValidationError{Field: "provider_transaction_id", Reason: "is required"}
	}
	if in.PartnerTransactionID == nil || *in.PartnerTransactionID == "" {
		return nil, &domain.ValidationError{Field: "partner_transaction_id", Reason: "is required"}
	}
	if in.Status == nil || *in.Status == "" {
		return nil, &domain.ValidationError{Field: "status", Reason: "is required"}
	}
	if in.Amount == nil {
		return nil, &domain.ValidationError{Field: "amount", Reason: "is required"}
	}
	if *in.Amount <= 0 {
		return nil, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	ev := &domain.CanonicalEvent{
		ProviderTransactionID: *in.ProviderTransactionID,
		Reference:             *in.PartnerTransactionID,
		ProviderStatus:        *in.Status,
		Amount:                *in.Amount,
		PayerPhone:            in.CustomerPhone,
		ErrorMessage:          in.ErrorMessage,
		Raw:                   raw,
	}

	ev.Timestamp = time.Now().UTC()
	if in.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339, in.Timestamp); err == nil {
			ev.Timestamp = t
		}
	}

	return ev, nil
}
