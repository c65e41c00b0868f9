package sqlite

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
)

type accountsRepo struct {
	db dbtx
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	var a domain.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM accounts WHERE email = ?`,
		strings.ToLower(email),
	).Scan(&a.ID, &a.Email, &a.CreatedAt)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

func (r *accountsRepo) RememberAccount(ctx context.Context, a domain.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, created_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET email = excluded.email`,
		a.ID, strings.ToLower(a.Email), utc(a.CreatedAt),
	)
	return mapConstraint(err)
}
