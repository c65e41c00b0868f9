package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrIntegrity is returned when stored rows violate an invariant the
	// schema can't enforce on its own.
	ErrIntegrity = errors.New("store: data integrity violation")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories hang off it so a Tx-scoped Store can't be
// mixed up with the outer one halfway through an operation.
type Store interface {
	Organizations() Organizations
	Invitations() Invitations
	Entitlements() Entitlements
	Accounts() Accounts

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Organizations interface {
	// GetOrganizationByID returns ErrNotFound when the tenant no longer exists.
	GetOrganizationByID(ctx context.Context, id string) (domain.Organization, error)

	CreateOrganization(ctx context.Context, o domain.Organization) error
}

type Invitations interface {
	// CreateInvitation inserts a pending invitation. A (kind, code) pair that
	// already exists yields ErrAlreadyExists.
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)

	// FindInvitationsByCode returns every invitation carrying code, across
	// kinds. An empty result is not an error.
	FindInvitationsByCode(ctx context.Context, code string) ([]domain.Invitation, error)

	// ClaimInvitation moves a pending, unexpired invitation to accepted. It is
	// a single conditional update; false means another state won or the
	// invitation expired, and the caller must re-read to find out which.
	ClaimInvitation(ctx context.Context, id, userID string, now time.Time) (bool, error)

	// RevokeInvitation moves a pending invitation to revoked.
	RevokeInvitation(ctx context.Context, id string, now time.Time) (bool, error)

	// ExpirePendingInvitations marks pending rows with expires_at <= now as
	// expired and returns how many changed.
	ExpirePendingInvitations(ctx context.Context, now time.Time) (int64, error)
}

type Entitlements interface {
	// UpsertEntitlement inserts the grant, or on a (user, product) conflict
	// refreshes granted_by and granted_at and reactivates it.
	UpsertEntitlement(ctx context.Context, e domain.Entitlement) error

	GetEntitlement(ctx context.Context, userID, productID string) (domain.Entitlement, error)

	// ListEntitlementsByUser returns the user's grants ordered by product.
	ListEntitlementsByUser(ctx context.Context, userID string) ([]domain.Entitlement, error)
}

type Accounts interface {
	// GetAccountByEmail matches case-insensitively.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// RememberAccount records an account seen through the provider. Repeat
	// calls for the same id refresh the email.
	RememberAccount(ctx context.Context, a domain.Account) error
}
