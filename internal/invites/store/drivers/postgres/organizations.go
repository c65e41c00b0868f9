package postgres

import (
	"context"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
)

type organizationsRepo struct {
	db dbtx
}

func (r *organizationsRepo) GetOrganizationByID(ctx context.Context, id string) (domain.Organization, error) {
	var o domain.Organization
	err := r.db.QueryRow(ctx,
		`SELECT id, name, created_at FROM organizations WHERE id = $1`, id,
	).Scan(&o.ID, &o.Name, &o.CreatedAt)
	if err != nil {
		return domain.Organization{}, mapPostgresError(err)
	}
	o.CreatedAt = o.CreatedAt.UTC()
	return o, nil
}

func (r *organizationsRepo) CreateOrganization(ctx context.Context, o domain.Organization) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO organizations (id, name, created_at) VALUES ($1, $2, $3)`,
		o.ID, o.Name, o.CreatedAt,
	)
	return mapPostgresError(err)
}
