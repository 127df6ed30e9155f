package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/sikafe/rentpay/internal/domain"
)

type LeaseRepo struct {
	db *sql.DB
}

func NewLeaseRepo(db *sql.DB) *LeaseRepo {
	return &LeaseRepo{db: db}
}

func (r *LeaseRepo) InsertProperty(p *domain.Property) error {
	_, err := r.db.Exec(
		`INSERT OR IGNORE INTO properties (id, owner_id, owner_phone, label)
		 VALUES (?,?,?,?)`,
		p.ID, p.OwnerID, p.OwnerPhone, p.Label,
	)
	if err != nil {
		return fmt.Errorf("insert property: %w", err)
	}
	return nil
}

func (r *LeaseRepo) InsertLease(l *domain.Lease) error {
	_, err := r.db.Exec(
		`INSERT OR IGNORE INTO leases
		(id, property_id, tenant_id, landlord_id, landlord_phone, rent_amount)
		VALUES (?,?,?,?,?,?)`,
		l.ID, l.PropertyID, l.TenantID, nullableString(l.LandlordID),
		nullableString(l.LandlordPhone), l.RentAmount,
	)
	if err != nil {
		return fmt.Errorf("insert lease: %w", err)
	}
	return nil
}

// PayoutTarget is the resolved destination for a landlord transfer.
type PayoutTarget struct {
	LandlordID string
	Phone      string
}

// ResolvePayoutTarget resolves the landlord for a lease. The lease's own
// landlord takes precedence; the owning property's owner is the fallback.
// The first non-empty identifier in that order wins.
func (r *LeaseRepo) ResolvePayoutTarget(leaseID string) (*PayoutTarget, error) {
	row := r.db.QueryRow(`
		SELECT l.landlord_id, l.landlord_phone, p.owner_id, p.owner_phone
		FROM leases l
		LEFT JOIN properties p ON p.id = l.property_id
		WHERE l.id = ?
	`, leaseID)

	var leaseLandlord, leasePhone, ownerID, ownerPhone sql.NullString
	err := row.Scan(&leaseLandlord, &leasePhone, &ownerID, &ownerPhone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lease %s: %w", leaseID, domain.ErrLandlordUnresolved)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve lease %s: %w", leaseID, err)
	}

	if leaseLandlord.Valid && leaseLandlord.String != "" {
		target := &PayoutTarget{LandlordID: leaseLandlord.String}
		if leasePhone.Valid {
			target.Phone = leasePhone.String
		}
		if target.Phone == "" && ownerPhone.Valid {
			target.Phone = ownerPhone.String
		}
		return target, nil
	}

	if ownerID.Valid && ownerID.String != "" {
		target := &PayoutTarget{LandlordID: ownerID.String}
		if ownerPhone.Valid {
			target.Phone = ownerPhone.String
		}
		return target, nil
	}

	return nil, fmt.Errorf("lease %s: %w", leaseID, domain.ErrLandlordUnresolved)
}
