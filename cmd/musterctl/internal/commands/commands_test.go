package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/service"
	"github.com/stretchr/testify/require"
)

func newGlobals(t *testing.T) (*Globals, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	return &Globals{
		Version: "test",
		Database: Database{
			Driver: "sqlite",
			File:   filepath.Join(t.TempDir(), "muster.db"),
		},
		Out: out,
	}, out
}

func decode(t *testing.T, out *bytes.Buffer, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(out).Decode(v))
	out.Reset()
}

func TestOperatorFlow(t *testing.T) {
	ctx := context.Background()
	g, out := newGlobals(t)

	require.NoError(t, (&OrgCreateCmd{Name: "Night Shift"}).Run(ctx, g))
	var org map[string]string
	decode(t, out, &org)
	require.NotEmpty(t, org["id"])

	issue := &IssueCmd{
		Kind:      "product",
		Org:       org["id"],
		Product:   []string{"tasks", "tasks", "rostering"},
		TTL:       time.Hour,
		CreatedBy: "user_admin",
	}
	require.NoError(t, issue.Run(ctx, g))
	var issued invitationView
	decode(t, out, &issued)
	require.Equal(t, []string{"tasks", "rostering"}, issued.Products)
	require.Equal(t, "pending", issued.Status)

	require.NoError(t, (&ValidateCmd{Code: issued.Code}).Run(ctx, g))
	var validated invitationView
	decode(t, out, &validated)
	require.Equal(t, issued.ID, validated.ID)
	require.False(t, validated.IsExpired)

	require.NoError(t, (&CompleteCmd{Code: issued.Code, UserID: "user_7"}).Run(ctx, g))
	var completed map[string]any
	decode(t, out, &completed)
	require.Equal(t, "user_7", completed["user_id"])
	require.Equal(t, false, completed["already_accepted"])

	err := (&RevokeCmd{Code: issued.Code}).Run(ctx, g)
	require.ErrorIs(t, err, service.ErrInvitationAlreadyClaimed)

	require.NoError(t, (&SweepCmd{}).Run(ctx, g))
	var swept map[string]int64
	decode(t, out, &swept)
	require.Zero(t, swept["expired"])
}

func TestRevokeThenValidate(t *testing.T) {
	ctx := context.Background()
	g, out := newGlobals(t)

	require.NoError(t, (&OrgCreateCmd{Name: "Day Shift"}).Run(ctx, g))
	var org map[string]string
	decode(t, out, &org)

	require.NoError(t, (&IssueCmd{Kind: "guard", Org: org["id"], TTL: time.Hour, CreatedBy: "user_admin", Code: "GRD-DOOR"}).Run(ctx, g))
	out.Reset()

	require.NoError(t, (&RevokeCmd{Code: "GRD-DOOR"}).Run(ctx, g))
	var revoked invitationView
	decode(t, out, &revoked)
	require.Equal(t, "revoked", revoked.Status)

	err := (&CompleteCmd{Code: "GRD-DOOR", UserID: "user_1"}).Run(ctx, g)
	require.ErrorIs(t, err, service.ErrInvitationRevoked)

	err = (&ValidateCmd{Code: "GRD-NONE"}).Run(ctx, g)
	require.ErrorIs(t, err, service.ErrInvitationNotFound)
}
