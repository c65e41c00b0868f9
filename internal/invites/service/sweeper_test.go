package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	stale := f.guardInvitation(t, func(i *domain.Invitation) { i.ExpiresAt = testNow.Add(-time.Minute) })
	fresh := f.guardInvitation(t, func(i *domain.Invitation) { i.Code = "GRD-FRESH" })
	accepted := f.guardInvitation(t, func(i *domain.Invitation) {
		i.Code = "GRD-TAKEN"
		i.ExpiresAt = testNow.Add(time.Minute)
	})
	_, err := f.granter.GrantAndAccept(ctx, "GRD-TAKEN", "user_42")
	require.NoError(t, err)

	sweeper := NewSweeper(f.store, discardLogger(), time.Hour, nil)
	sweeper.Now = func() time.Time { return testNow.Add(time.Hour) }

	n, err := sweeper.SweepExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	require.Equal(t, domain.StatusExpired, f.invitation(t, stale.ID).Status)
	require.Equal(t, domain.StatusPending, f.invitation(t, fresh.ID).Status)
	require.Equal(t, domain.StatusAccepted, f.invitation(t, accepted.ID).Status)

	n, err = sweeper.SweepExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSweeperDefaultsInterval(t *testing.T) {
	s := NewSweeper(newTestStore(t), discardLogger(), 0, nil)
	require.Equal(t, 15*time.Minute, s.Interval)
}

func TestSweeperStartStop(t *testing.T) {
	f := newFixture(t)
	inv := f.guardInvitation(t, func(i *domain.Invitation) { i.ExpiresAt = testNow.Add(-time.Minute) })

	s := NewSweeper(f.store, discardLogger(), time.Hour, nil)
	s.Now = fixedClock
	s.Start()

	require.Eventually(t, func() bool {
		return f.invitation(t, inv.ID).Status == domain.StatusExpired
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop()
}
