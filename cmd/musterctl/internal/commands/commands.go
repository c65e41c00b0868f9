package commands

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/app"
	"github.com/aussiebroadwan/muster/internal/invites/service"
	"github.com/aussiebroadwan/muster/internal/invites/store"
	"github.com/aussiebroadwan/muster/pkg/slogx"
)

type Globals struct {
	Debug    bool
	Version  string
	Database Database

	// Out receives command results. Defaults to stdout.
	Out io.Writer
}

// Database selects the store, using the same variables as the server.
type Database struct {
	Driver string `help:"Database driver" enum:"sqlite,postgres" default:"sqlite" env:"MUSTER_DATABASE_DRIVER"`
	File   string `help:"SQLite database file" default:"muster.db" env:"MUSTER_DATABASE_FILE" type:"path"`
	URL    string `help:"PostgreSQL connection URL" env:"MUSTER_DATABASE_URL"`
}

func (g *Globals) logger() *slog.Logger {
	level := "warn"
	if g.Debug {
		level = "debug"
	}
	return slogx.New(slogx.Config{
		Service: "musterctl",
		Version: g.Version,
		Env:     "cli",
		Level:   level,
		Format:  "text",
		Output:  os.Stderr,
	})
}

func (g *Globals) open(ctx context.Context) (store.Store, *slog.Logger, error) {
	log := g.logger()
	st, err := app.OpenStore(ctx, app.Config{
		DatabaseDriver:   g.Database.Driver,
		DatabaseFile:     g.Database.File,
		DatabaseURL:      g.Database.URL,
		DatabaseMaxConns: 2,
	}, log)
	return st, log, err
}

func (g *Globals) print(v any) error {
	out := g.Out
	if out == nil {
		out = os.Stdout
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type invitationView struct {
	ID             string     `json:"id"`
	Code           string     `json:"code"`
	Kind           string     `json:"kind"`
	OrganizationID string     `json:"organization_id"`
	Products       []string   `json:"products"`
	Status         string     `json:"status"`
	IsExpired      bool       `json:"is_expired"`
	ExpiresAt      time.Time  `json:"expires_at"`
	AcceptedBy     string     `json:"accepted_by,omitempty"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	HintEmail      string     `json:"hint_email,omitempty"`
	HintName       string     `json:"hint_name,omitempty"`
}

func viewOf(inv service.ValidatedInvitation) invitationView {
	return invitationView{
		ID:             inv.ID,
		Code:           inv.Code,
		Kind:           string(inv.Kind),
		OrganizationID: inv.OrganizationID,
		Products:       inv.Products(),
		Status:         string(inv.Status),
		IsExpired:      inv.IsExpired,
		ExpiresAt:      inv.ExpiresAt,
		AcceptedBy:     inv.AcceptedBy,
		AcceptedAt:     inv.AcceptedAt,
		HintEmail:      inv.Hint.Email,
		HintName:       inv.Hint.Name,
	}
}
