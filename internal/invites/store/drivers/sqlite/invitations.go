package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
)

const invitationColumns = `id, code, kind, organization_id, requested_products, hint_email, hint_name,
	status, expires_at, accepted_by, accepted_at, created_by, created_at, updated_at`

type invitationsRepo struct {
	db dbtx
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invitations (`+invitationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?, ?, ?)`,
		inv.ID,
		inv.Code,
		string(inv.Kind),
		inv.OrganizationID,
		joinProducts(inv.RequestedProducts),
		mapStringNull(inv.Hint.Email),
		mapStringNull(inv.Hint.Name),
		string(domain.StatusPending),
		utc(inv.ExpiresAt),
		inv.CreatedBy,
		utc(inv.CreatedAt),
		utc(inv.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE id = ?`, id)
	inv, err := scanInvitation(row)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitationsRepo) FindInvitationsByCode(ctx context.Context, code string) ([]domain.Invitation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE code = ? ORDER BY kind`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invitationsRepo) ClaimInvitation(ctx context.Context, id, userID string, now time.Time) (bool, error) {
	now = utc(now)
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations
		SET status = 'accepted', accepted_by = ?, accepted_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending' AND expires_at > ?`,
		userID, now, now, id, now,
	)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

func (r *invitationsRepo) RevokeInvitation(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations SET status = 'revoked', updated_at = ?
		WHERE id = ? AND status = 'pending'`,
		utc(now), id,
	)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

func (r *invitationsRepo) ExpirePendingInvitations(ctx context.Context, now time.Time) (int64, error) {
	now = utc(now)
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations SET status = 'expired', updated_at = ?
		WHERE status = 'pending' AND expires_at <= ?`,
		now, now,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvitation(row rowScanner) (domain.Invitation, error) {
	var (
		inv        domain.Invitation
		kind       string
		status     string
		products   string
		hintEmail  sql.NullString
		hintName   sql.NullString
		acceptedBy sql.NullString
		acceptedAt sql.NullTime
	)

	err := row.Scan(
		&inv.ID,
		&inv.Code,
		&kind,
		&inv.OrganizationID,
		&products,
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
	inv.RequestedProducts = splitAndFilter(products)
	inv.Hint = domain.IdentityHint{Email: mapNullString(hintEmail), Name: mapNullString(hintName)}
	inv.AcceptedBy = mapNullString(acceptedBy)
	inv.AcceptedAt = mapNullTimePtr(acceptedAt)
	inv.ExpiresAt = inv.ExpiresAt.UTC()
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.UpdatedAt = inv.UpdatedAt.UTC()
	return inv, nil
}
