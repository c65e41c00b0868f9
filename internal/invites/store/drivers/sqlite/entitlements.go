package sqlite

import (
	"context"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
)

const entitlementColumns = `id, user_id, product_id, organization_id, granted_by, granted_at,
	is_active, created_at, updated_at`

type entitlementsRepo struct {
	db dbtx
}

// UpsertEntitlement leaves organization_id and id alone on conflict; the
// first grant owns them.
func (r *entitlementsRepo) UpsertEntitlement(ctx context.Context, e domain.Entitlement) error {
	grantedAt := utc(e.GrantedAt)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO entitlements (`+entitlementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			granted_by = excluded.granted_by,
			granted_at = excluded.granted_at,
			is_active  = 1,
			updated_at = excluded.updated_at`,
		e.ID,
		e.UserID,
		e.ProductID,
		e.OrganizationID,
		e.GrantedBy,
		grantedAt,
		grantedAt,
		grantedAt,
	)
	return err
}

func (r *entitlementsRepo) GetEntitlement(ctx context.Context, userID, productID string) (domain.Entitlement, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+entitlementColumns+` FROM entitlements
		WHERE user_id = ? AND product_id = ?`,
		userID, productID,
	)
	e, err := scanEntitlement(row)
	if err != nil {
		return domain.Entitlement{}, mapNotFound(err)
	}
	return e, nil
}

func (r *entitlementsRepo) ListEntitlementsByUser(ctx context.Context, userID string) ([]domain.Entitlement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entitlementColumns+` FROM entitlements
		WHERE user_id = ? ORDER BY product_id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Entitlement
	for rows.Next() {
		e, err := scanEntitlement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntitlement(row rowScanner) (domain.Entitlement, error) {
	var e domain.Entitlement
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.ProductID,
		&e.OrganizationID,
		&e.GrantedBy,
		&e.GrantedAt,
		&e.IsActive,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return domain.Entitlement{}, err
	}
	e.GrantedAt = e.GrantedAt.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}
