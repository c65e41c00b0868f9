package sqlite_test

import (
	"testing"

	"github.com/aussiebroadwan/muster/internal/invites/store"
	"github.com/aussiebroadwan/muster/internal/invites/store/drivers/sqlite"
	"github.com/aussiebroadwan/muster/internal/invites/store/storetest"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, newStore)
}

func TestApplyMigrationsIsRepeatable(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.ApplyMigrations())
}

func TestFileDSN(t *testing.T) {
	require.Equal(t,
		"file:/var/lib/muster.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		sqlite.FileDSN("/var/lib/muster.db"),
	)
}
