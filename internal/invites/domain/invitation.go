package domain

import (
	"slices"
	"time"
)

// Kind discriminates the invitation families sharing one lifecycle.
type Kind string

const (
	KindProduct Kind = "product"
	KindGuard   Kind = "guard"
)

// ProductGuardManagement is the only product a guard invitation grants.
const ProductGuardManagement = "guard-management"

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindProduct || k == KindGuard
}

// Status of an invitation. Transitions only move away from pending.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusExpired  Status = "expired"
	StatusRevoked  Status = "revoked"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusExpired, StatusRevoked:
		return true
	}
	return false
}

// IdentityHint is contact data captured when the invitation was issued.
// Either field may be empty.
type IdentityHint struct {
	Email string
	Name  string
}

type Invitation struct {
	ID                string
	Code              string
	Kind              Kind
	OrganizationID    string
	RequestedProducts []string // ignored for guard invitations, see Products
	Hint              IdentityHint
	Status            Status
	ExpiresAt         time.Time
	AcceptedBy        string // empty until accepted
	AcceptedAt        *time.Time
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Products returns the ordered, de-duplicated set of products an acceptance
// grants. Guard invitations always map to guard-management.
func (i Invitation) Products() []string {
	if i.Kind == KindGuard {
		return []string{ProductGuardManagement}
	}

	out := make([]string, 0, len(i.RequestedProducts))
	for _, p := range i.RequestedProducts {
		if p == "" || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// IsExpired reports whether the invitation is past its expiry at now,
// independent of the stored status. The boundary instant counts as expired.
func (i Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// AcceptedByUser reports whether the invitation was claimed by userID.
func (i Invitation) AcceptedByUser(userID string) bool {
	return i.Status == StatusAccepted && userID != "" && i.AcceptedBy == userID
}
