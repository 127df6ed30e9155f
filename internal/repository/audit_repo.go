package repository

import (
	"database/sql"
	"fmt"
	"time"
)

// AuditRepo appends API usage entries for manual reconciliation. The log is
// append-only; failures to write it never fail the request being logged.
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) LogApiUsage(endpoint, reference string, statusCode int, detail string) error {
	_, err := r.db.Exec(
		`INSERT INTO api_usage (endpoint, reference, status_code, detail, created_at)
		 VALUES (?,?,?,?,?)`,
		endpoint, nullableString(reference), statusCode, nullableString(detail),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("log api usage: %w", err)
	}
	return nil
}

func (r *AuditRepo) CountByEndpoint(endpoint string) (int, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM api_usage WHERE endpoint = ?", endpoint,
	).Scan(&count)
	return count, err
}
