package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
	"github.com/jackc/pgx/v5"
)

const invitationColumns = `id, code, kind, organization_id, requested_products, hint_email, hint_name,
	status, expires_at, accepted_by, accepted_at, created_by, created_at, updated_at`

type invitationsRepo struct {
	db dbtx
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	products := inv.RequestedProducts
	if products == nil {
		products = []string{}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO invitations (`+invitationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8, NULL, NULL, $9, $10, $10)`,
		inv.ID,
		inv.Code,
		string(inv.Kind),
		inv.OrganizationID,
		products,
		nullable(inv.Hint.Email),
		nullable(inv.Hint.Name),
		inv.ExpiresAt,
		inv.CreatedBy,
		inv.CreatedAt,
	)
	return mapPostgresError(err)
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE id = $1`, id)
	inv, err := scanInvitation(row)
	if err != nil {
		return domain.Invitation{}, mapPostgresError(err)
	}
	return inv, nil
}

func (r *invitationsRepo) FindInvitationsByCode(ctx context.Context, code string) ([]domain.Invitation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE code = $1 ORDER BY kind`, code)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var out []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		out = append(out, inv)
	}
	return out, mapPostgresError(rows.Err())
}

func (r *invitationsRepo) ClaimInvitation(ctx context.Context, id, userID string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE invitations
		SET status = 'accepted', accepted_by = $2, accepted_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'pending' AND expires_at > $3`,
		id, userID, now,
	)
	if err != nil {
		return false, mapPostgresError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *invitationsRepo) RevokeInvitation(ctx context.Context, id string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE invitations SET status = 'revoked', updated_at = $2
		WHERE id = $1 AND status = 'pending'`,
		id, now,
	)
	if err != nil {
		return false, mapPostgresError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *invitationsRepo) ExpirePendingInvitations(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE invitations SET status = 'expired', updated_at = $1
		WHERE status = 'pending' AND expires_at <= $1`,
		now,
	)
	if err != nil {
		return 0, mapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}

func scanInvitation(row pgx.Row) (domain.Invitation, error) {
	var (
		inv        domain.Invitation
		kind       string
		status     string
		hintEmail  *string
		hintName   *string
		acceptedBy *string
		acceptedAt *time.Time
	)

	err := row.Scan(
		&inv.ID,
		&inv.Code,
		&kind,
		&inv.OrganizationID,
		&inv.RequestedProducts,
		&hintEmail,
		&hintName,
		&status,
		&inv.ExpiresAt,
		&acceptedBy,
		&acceptedAt,
		&inv.CreatedBy,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return domain.Invitation{}, err
	}

	inv.Kind = domain.Kind(kind)
	inv.Status = domain.Status(status)
	inv.Hint = domain.IdentityHint{Email: deref(hintEmail), Name: deref(hintName)}
	inv.AcceptedBy = deref(acceptedBy)
	if acceptedAt != nil {
		t := acceptedAt.UTC()
		inv.AcceptedAt = &t
	}
	if len(inv.RequestedProducts) == 0 {
		inv.RequestedProducts = nil
	}
	inv.ExpiresAt = inv.ExpiresAt.UTC()
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.UpdatedAt = inv.UpdatedAt.UTC()
	return inv, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
