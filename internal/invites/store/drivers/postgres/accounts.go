package postgres

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
	err := r.db.QueryRow(ctx,
		`SELECT id, email, created_at FROM accounts WHERE email = $1`,
		strings.ToLower(email),
	).Scan(&a.ID, &a.Email, &a.CreatedAt)
	if err != nil {
		return domain.Account{}, mapPostgresError(err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

func (r *accountsRepo) RememberAccount(ctx context.Context, a domain.Account) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (id, email, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email`,
		a.ID, strings.ToLower(a.Email), a.CreatedAt,
	)
	return mapPostgresError(err)
}
