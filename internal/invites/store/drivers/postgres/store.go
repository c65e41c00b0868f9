package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/muster/internal/invites/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is satisfied by both the pool and a pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool    *pgxpool.Pool
	connStr string
}

// NewStore connects a pool using cfg. The connection string is kept for
// migrations, which open their own connection.
func NewStore(ctx context.Context, cfg PoolConfig) (*Store, error) {
	pool, err := NewPool(ctx, &cfg)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, connStr: cfg.ConnString}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return &txStore{ctx: ctx, tx: tx}, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Organizations() store.Organizations { return &organizationsRepo{db: s.pool} }
func (s *Store) Invitations() store.Invitations     { return &invitationsRepo{db: s.pool} }
func (s *Store) Entitlements() store.Entitlements   { return &entitlementsRepo{db: s.pool} }
func (s *Store) Accounts() store.Accounts           { return &accountsRepo{db: s.pool} }

// txStore carries the context the transaction was opened with, since the
// store.Tx Commit/Rollback signatures don't take one.
type txStore struct {
	ctx context.Context
	tx  pgx.Tx
}

func (t *txStore) Commit() error {
	return mapPostgresError(t.tx.Commit(t.ctx))
}

func (t *txStore) Rollback() error {
	err := t.tx.Rollback(t.ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }
func (t *txStore) ApplyMigrations() error         { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, fmt.Errorf("postgres: nested transactions are not supported")
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return fmt.Errorf("postgres: nested transactions are not supported")
}

func (t *txStore) Organizations() store.Organizations { return &organizationsRepo{db: t.tx} }
func (t *txStore) Invitations() store.Invitations     { return &invitationsRepo{db: t.tx} }
func (t *txStore) Entitlements() store.Entitlements   { return &entitlementsRepo{db: t.tx} }
func (t *txStore) Accounts() store.Accounts           { return &accountsRepo{db: t.tx} }
