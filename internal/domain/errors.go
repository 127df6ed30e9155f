package domain

import (
	"errors"
	"fmt"
)

// ErrPaymentNotFound means no payment matches the partner transaction
// reference. Surfaced distinctly from validation errors: it can indicate a
// race with record creation or a probe.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrLandlordUnresolved means neither the lease nor its property carries a
// payout destination.
var ErrLandlordUnresolved = errors.New("no landlord resolvable for lease")

// ValidationError describes a malformed inbound event. Producing one must
// have no side effects on the ledger.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid webhook payload: %s %s", e.Field, e.Reason)
}
