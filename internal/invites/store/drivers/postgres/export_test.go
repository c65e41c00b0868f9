package postgres

import "context"

// Truncate empties every table between conformance runs.
func (s *Store) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE organizations, invitations, entitlements, accounts`)
	return err
}
