package commands

import (
	"context"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
	"github.com/aussiebroadwan/muster/pkg/idx"
)

type OrgCmd struct {
	Create OrgCreateCmd `cmd:"" help:"Create an organization"`
}

type OrgCreateCmd struct {
	Name string `arg:"" help:"Organization name"`
}

func (c *OrgCreateCmd) Run(ctx context.Context, globals *Globals) error {
	st, _, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	org := domain.Organization{
		ID:        idx.New().String(),
		Name:      c.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := st.Organizations().CreateOrganization(ctx, org); err != nil {
		return err
	}
	return globals.print(map[string]string{"id": org.ID, "name": org.Name})
}
