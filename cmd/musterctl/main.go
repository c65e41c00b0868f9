package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/aussiebroadwan/muster/cmd/musterctl/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Database commands.Database `embed:"" prefix:"db-"`

		Sweep    commands.SweepCmd    `cmd:"" help:"Expire every overdue pending invitation"`
		Validate commands.ValidateCmd `cmd:"" help:"Look an invitation code up"`
		Complete commands.CompleteCmd `cmd:"" help:"Accept an invitation for a known user id"`
		Issue    commands.IssueCmd    `cmd:"" help:"Create an invitation"`
		Revoke   commands.RevokeCmd   `cmd:"" help:"Withdraw a pending invitation"`
		Org      commands.OrgCmd      `cmd:"" help:"Manage organizations"`
		Debug    bool                 `help:"Enable debug logging."`
		Version  kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("musterctl"),
		kong.Description("Operator tooling for the muster invitation store."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version, Database: cli.Database})
	cmd.FatalIfErrorf(err)
}
