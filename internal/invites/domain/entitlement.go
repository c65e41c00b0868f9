package domain

import "time"

// Entitlement grants one product to one user. At most one row exists per
// (UserID, ProductID); re-granting reactivates it.
type Entitlement struct {
	ID             string
	UserID         string
	ProductID      string
	OrganizationID string
	GrantedBy      string
	GrantedAt      time.Time
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
