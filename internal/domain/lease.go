package domain

// Lease links a tenant to a property. LandlordID and LandlordPhone may be
// empty, in which case the owning property's owner is the payout target.
type Lease struct {
	ID            string `json:"id"`
	PropertyID    string `json:"property_id"`
	TenantID      string `json:"tenant_id"`
	LandlordID    string `json:"landlord_id,omitempty"`
	LandlordPhone string `json:"landlord_phone,omitempty"`
	RentAmount    int64  `json:"rent_amount"`
}

type Property struct {
	ID         string `json:"id"`
	OwnerID    string `json:"owner_id"`
	OwnerPhone string `json:"owner_phone"`
	Label      string `json:"label"`
}
