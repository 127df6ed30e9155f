package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sikafe/rentpay/internal/domain"
)

type TransferRepo struct {
	db *sql.DB
}

func NewTransferRepo(db *sql.DB) *TransferRepo {
	return &TransferRepo{db: db}
}

// InsertIdempotent inserts the transfer unless one already exists for the
// same payment. The UNIQUE(payment_id) constraint plus OR IGNORE turns a
// lost race into rows-affected == 0, which callers treat as "transfer
// already exists", never as a failure.
func (r *TransferRepo) InsertIdempotent(t *domain.LandlordTransfer) (bool, error) {
	res, err := r.db.Exec(
		`INSERT OR IGNORE INTO transfers
		(id, payment_id, landlord_id, gross_amount, fee_amount, net_amount,
		 currency, destination_phone, partner_transaction_id, status, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.PaymentID, t.LandlordID, t.GrossAmount, t.FeeAmount,
		t.NetAmount, t.Currency, t.DestinationPhone, t.PartnerTransactionID,
		string(t.Status), t.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("insert transfer: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return ra == 1, nil
}

// FindByPaymentID returns the transfer for a payment, or nil if none exists.
func (r *TransferRepo) FindByPaymentID(paymentID string) (*domain.LandlordTransfer, error) {
	row := r.db.QueryRow(
		"SELECT * FROM transfers WHERE payment_id = ?", paymentID,
	)
	t, err := scanTransfer(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

type TransferFilter struct {
	Status     string
	LandlordID string
	Page       int
	Limit      int
}

func (r *TransferRepo) List(f TransferFilter) ([]domain.LandlordTransfer, int, error) {
	where, args := buildTransferWhere(f)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM transfers"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	q := "SELECT * FROM transfers" + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var transfers []domain.LandlordTransfer
	for rows.Next() {
		t, err := scanTransfer(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		transfers = append(transfers, *t)
	}
	return transfers, total, rows.Err()
}

// TransferTotals holds aggregate payout statistics for the dashboard.
type TransferTotals struct {
	Count    int
	GrossSum int64
	FeeSum   int64
	NetSum   int64
}

func (r *TransferRepo) GetTotals() (*TransferTotals, error) {
	t := &TransferTotals{}
	err := r.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(gross_amount), 0),
			COALESCE(SUM(fee_amount), 0),
			COALESCE(SUM(net_amount), 0)
		FROM transfers
	`).Scan(&t.Count, &t.GrossSum, &t.FeeSum, &t.NetSum)
	return t, err
}

func buildTransferWhere(f TransferFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.LandlordID != "" {
		clauses = append(clauses, "landlord_id = ?")
		args = append(args, f.LandlordID)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanTransfer(scan func(...any) error) (*domain.LandlordTransfer, error) {
	var t domain.LandlordTransfer
	var status, createdAt string

	err := scan(
		&t.ID, &t.PaymentID, &t.LandlordID, &t.GrossAmount, &t.FeeAmount,
		&t.NetAmount, &t.Currency, &t.DestinationPhone,
		&t.PartnerTransactionID, &status, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	t.Status = domain.TransferStatus(status)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return &t, nil
}
