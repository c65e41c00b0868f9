package postgres

import (
	"context"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
	"github.com/jackc/pgx/v5"
)

const entitlementColumns = `id, user_id, product_id, organization_id, granted_by, granted_at,
	is_active, created_at, updated_at`

type entitlementsRepo struct {
	db dbtx
}

func (r *entitlementsRepo) UpsertEntitlement(ctx context.Context, e domain.Entitlement) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO entitlements (`+entitlementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $6, $6)
		ON CONFLICT ON CONSTRAINT entitlements_user_product_key DO UPDATE SET
			granted_by = EXCLUDED.granted_by,
			granted_at = EXCLUDED.granted_at,
			is_active  = TRUE,
			updated_at = EXCLUDED.updated_at`,
		e.ID,
		e.UserID,
		e.ProductID,
		e.OrganizationID,
		e.GrantedBy,
		e.GrantedAt,
	)
	return mapPostgresError(err)
}

func (r *entitlementsRepo) GetEntitlement(ctx context.Context, userID, productID string) (domain.Entitlement, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+entitlementColumns+` FROM entitlements
		WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	e, err := scanEntitlement(row)
	if err != nil {
		return domain.Entitlement{}, mapPostgresError(err)
	}
	return e, nil
}

func (r *entitlementsRepo) ListEntitlementsByUser(ctx context.Context, userID string) ([]domain.Entitlement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+entitlementColumns+` FROM entitlements
		WHERE user_id = $1 ORDER BY product_id`,
		userID,
	)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var out []domain.Entitlement
	for rows.Next() {
		e, err := scanEntitlement(rows)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		out = append(out, e)
	}
	return out, mapPostgresError(rows.Err())
}

func scanEntitlement(row pgx.Row) (domain.Entitlement, error) {
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
