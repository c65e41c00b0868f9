package sqlite

import (
	"context"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
)

type organizationsRepo struct {
	db dbtx
}

func (r *organizationsRepo) GetOrganizationByID(ctx context.Context, id string) (domain.Organization, error) {
	var o domain.Organization
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM organizations WHERE id = ?`, id,
	).Scan(&o.ID, &o.Name, &o.CreatedAt)
	if err != nil {
		return domain.Organization{}, mapNotFound(err)
	}
	o.CreatedAt = o.CreatedAt.UTC()
	return o, nil
}

func (r *organizationsRepo) CreateOrganization(ctx context.Context, o domain.Organization) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name, created_at) VALUES (?, ?, ?)`,
		o.ID, o.Name, utc(o.CreatedAt),
	)
	return mapConstraint(err)
}
