package transfer

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sikafe/rentpay/internal/domain"
	"github.com/sikafe/rentpay/internal/repository"
)

// Calculator derives platform and provider fees from a completed payment
// and materializes the landlord transfer exactly once.
type Calculator struct {
	transfers *repository.TransferRepo
	leases    *repository.LeaseRepo

	platformFeeBps int64
	providerFeeBps int64
}

func NewCalculator(transfers *repository.TransferRepo, leases *repository.LeaseRepo, platformFeeBps, providerFeeBps int64) *Calculator {
	return &Calculator{
		transfers:      transfers,
		leases:         leases,
		platformFeeBps: platformFeeBps,
		providerFeeBps: providerFeeBps,
	}
}

// Fees splits a gross amount into fee and net portions. Integer basis-point
// arithmetic floors to the minor unit, and net is derived by subtraction,
// so fees+net == amount holds for every amount.
func (c *Calculator) Fees(amount int64) (fees, net int64) {
	fees = amount * (c.platformFeeBps + c.providerFeeBps) / 10000
	net = amount - fees
	return fees, net
}

// MaterializeTransfer creates the payout obligation for a completed
// payment. It is idempotent: if a transfer already exists for the payment
// (including one created by a concurrent racer), that transfer is returned
// with created == false and no error.
func (c *Calculator) MaterializeTransfer(p *domain.Payment) (*domain.LandlordTransfer, bool, error) {
	existing, err := c.transfers.FindByPaymentID(p.ID)
	if err != nil {
		return nil, false, fmt.Errorf("find transfer: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	target, err := c.leases.ResolvePayoutTarget(p.LeaseID)
	if err != nil {
		return nil, false, fmt.Errorf("resolve landlord: %w", err)
	}

	fees, net := c.Fees(p.Amount)

	t := &domain.LandlordTransfer{
		ID:                   "TR-" + uuid.NewString(),
		PaymentID:            p.ID,
		LandlordID:           target.LandlordID,
		GrossAmount:          p.Amount,
		FeeAmount:            fees,
		NetAmount:            net,
		Currency:             p.Currency,
		DestinationPhone:     target.Phone,
		PartnerTransactionID: newPartnerTransactionID(),
		Status:               domain.TransferPending,
		CreatedAt:            time.Now().UTC(),
	}

	created, err := c.transfers.InsertIdempotent(t)
	if err != nil {
		return nil, false, fmt.Errorf("insert transfer: %w", err)
	}
	if !created {
		// Lost the race; the other writer's transfer is authoritative.
		winner, err := c.transfers.FindByPaymentID(p.ID)
		if err != nil {
			return nil, false, fmt.Errorf("refetch transfer: %w", err)
		}
		return winner, false, nil
	}

	log.Printf("[transfer] Materialized %s for payment %s: gross=%d fees=%d net=%d landlord=%s",
		t.ID, p.ID, t.GrossAmount, t.FeeAmount, t.NetAmount, t.LandlordID)

	return t, true, nil
}

// newPartnerTransactionID combines a millisecond timestamp with a random
// suffix. A collision surfaces as a duplicate-key insert, which callers
// already treat as "transfer exists".
func newPartnerTransactionID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("TRF-%d-%s", time.Now().UnixMilli(), suffix)
}
