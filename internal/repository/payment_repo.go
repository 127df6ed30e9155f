package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sikafe/rentpay/internal/domain"
)

type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) Insert(p *domain.Payment) error {
	_, err := r.db.Exec(
		`INSERT OR IGNORE INTO payments
		(id, transaction_reference, status, amount, currency, tenant_id,
		 lease_id, provider, payer_phone, response_payload, created_at,
		 updated_at, paid_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.TransactionReference, string(p.Status), p.Amount, p.Currency,
		p.TenantID, p.LeaseID, string(p.Provider), p.PayerPhone,
		nullableString(p.ResponsePayload), p.CreatedAt.Format(time.RFC3339),
		p.UpdatedAt.Format(time.RFC3339), formatNullableTime(p.PaidAt),
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) BulkInsert(payments []domain.Payment) (int, error) {
	inserted := 0
	sqlTx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.Prepare(
		`INSERT OR IGNORE INTO payments
		(id, transaction_reference, status, amount, currency, tenant_id,
		 lease_id, provider, payer_phone, response_payload, created_at,
		 updated_at, paid_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range payments {
		p := &payments[i]
		res, err := stmt.Exec(
			p.ID, p.TransactionReference, string(p.Status), p.Amount, p.Currency,
			p.TenantID, p.LeaseID, string(p.Provider), p.PayerPhone,
			nullableString(p.ResponsePayload), p.CreatedAt.Format(time.RFC3339),
			p.UpdatedAt.Format(time.RFC3339), formatNullableTime(p.PaidAt),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert row %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *PaymentRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM payments").Scan(&count)
	return count, err
}

// FindByReference looks a payment up by its partner transaction reference.
// Returns domain.ErrPaymentNotFound if no record matches.
func (r *PaymentRepo) FindByReference(reference string) (*domain.Payment, error) {
	row := r.db.QueryRow(
		"SELECT * FROM payments WHERE transaction_reference = ?", reference,
	)
	p, err := scanPayment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	return p, err
}

// TransitionIfNotTerminal atomically moves the payment to next unless it is
// already in a terminal state. The single conditional UPDATE is the
// compare-and-swap: under concurrent delivery of the same event exactly one
// caller sees rows-affected == 1 and owns the downstream effects; everyone
// else observes the now-terminal row and takes the no-op path.
func (r *PaymentRepo) TransitionIfNotTerminal(reference string, next domain.PaymentStatus, paidAt *time.Time, payload string) (bool, error) {
	res, err := r.db.Exec(
		`UPDATE payments
		 SET status = ?, updated_at = ?, paid_at = COALESCE(?, paid_at),
		     response_payload = ?
		 WHERE transaction_reference = ?
		   AND status NOT IN ('completed','failed','cancelled')`,
		string(next), time.Now().UTC().Format(time.RFC3339),
		formatNullableTime(paidAt), nullableString(payload), reference,
	)
	if err != nil {
		return false, fmt.Errorf("transition payment: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return ra == 1, nil
}

// AppendAuditPayload records the raw event on an already-terminal payment.
// Terminal rows are immutable except for this audit metadata.
func (r *PaymentRepo) AppendAuditPayload(reference, payload string) error {
	_, err := r.db.Exec(
		"UPDATE payments SET response_payload = ?, updated_at = ? WHERE transaction_reference = ?",
		payload, time.Now().UTC().Format(time.RFC3339), reference,
	)
	return err
}

type PaymentFilter struct {
	Status   string
	Provider string
	TenantID string
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
}

func (r *PaymentRepo) List(f PaymentFilter) ([]domain.Payment, int, error) {
	where, args := buildPaymentWhere(f)

	var total int
	countSQL := "SELECT COUNT(*) FROM payments" + where
	if err := r.db.QueryRow(countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	querySQL := "SELECT * FROM payments" + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(querySQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, total, rows.Err()
}

// LedgerStats holds aggregate payment statistics for the dashboard.
type LedgerStats struct {
	Total       int
	Pending     int
	Processing  int
	Completed   int
	Failed      int
	Cancelled   int
	Collected   int64
	Outstanding int64
}

func (r *PaymentRepo) GetLedgerStats() (*LedgerStats, error) {
	s := &LedgerStats{}
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status='pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status='processing' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status='completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status='failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status='cancelled' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status='completed' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status IN ('pending','processing') THEN amount ELSE 0 END), 0)
		FROM payments
	`).Scan(&s.Total, &s.Pending, &s.Processing, &s.Completed, &s.Failed,
		&s.Cancelled, &s.Collected, &s.Outstanding)
	return s, err
}

type ProviderVolume struct {
	Provider  string `json:"provider"`
	Completed int    `json:"completed"`
	Collected int64  `json:"collected"`
}

func (r *PaymentRepo) GetVolumeByProvider() ([]ProviderVolume, error) {
	rows, err := r.db.Query(`
		SELECT provider,
			COALESCE(SUM(CASE WHEN status='completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status='completed' THEN amount ELSE 0 END), 0)
		FROM payments GROUP BY provider
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ProviderVolume
	for rows.Next() {
		var pv ProviderVolume
		if err := rows.Scan(&pv.Provider, &pv.Completed, &pv.Collected); err != nil {
			return nil, err
		}
		result = append(result, pv)
	}
	return result, rows.Err()
}

// --- helpers ---

func buildPaymentWhere(f PaymentFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.Provider != "" {
		clauses = append(clauses, "provider = ?")
		args = append(args, f.Provider)
	}
	if f.TenantID != "" {
		clauses = append(clauses, "tenant_id = ?")
		args = append(args, f.TenantID)
	}
	if f.From != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.From.Format(time.RFC3339))
	}
	if f.To != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, f.To.Format(time.RFC3339))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanPayment(scan func(...any) error) (*domain.Payment, error) {
	var p domain.Payment
	var status, provider, createdAt, updatedAt string
	var payloadNull, paidAtNull sql.NullString

	err := scan(
		&p.ID, &p.TransactionReference, &status, &p.Amount, &p.Currency,
		&p.TenantID, &p.LeaseID, &provider, &p.PayerPhone, &payloadNull,
		&createdAt, &updatedAt, &paidAtNull,
	)
	if err != nil {
		return nil, err
	}

	p.Status = domain.PaymentStatus(status)
	p.Provider = domain.Provider(provider)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	if payloadNull.Valid {
		p.ResponsePayload = payloadNull.String
	}
	if paidAtNull.Valid {
		t, _ := time.Parse(time.RFC3339, paidAtNull.String)
		p.PaidAt = &t
	}

	return &p, nil
}
