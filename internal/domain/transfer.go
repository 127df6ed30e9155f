package domain

import "time"

type TransferStatus string

const (
	TransferPending TransferStatus = "pending"
	TransferSent    TransferStatus = "sent"
	TransferFailed  TransferStatus = "failed"
)

// LandlordTransfer is one payout obligation derived from exactly one
// completed payment. PaymentID is unique at the storage layer, which is
// what enforces "at most one transfer per payment" under concurrency.
// NetAmount is always GrossAmount - FeeAmount.
type LandlordTransfer struct {
	ID                   string         `json:"id"`
	PaymentID            string         `json:"payment_id"`
	LandlordID           string         `json:"landlord_id"`
	GrossAmount          int64          `json:"gross_amount"`
	FeeAmount            int64          `json:"fee_amount"`
	NetAmount            int64          `json:"net_amount"`
	Currency             string         `json:"currency"`
	DestinationPhone     string         `json:"destination_phone"`
	PartnerTransactionID string         `json:"partner_transaction_id"`
	Status               TransferStatus `json:"status"`
	CreatedAt            time.Time      `json:"created_at"`
}
