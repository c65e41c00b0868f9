package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
	"github.com/aussiebroadwan/muster/internal/invites/service"
	"github.com/aussiebroadwan/muster/internal/invites/store"
)

func newSweeper(st store.Store, log *slog.Logger) *service.Sweeper {
	return service.NewSweeper(st, log, 0, nil)
}

type ValidateCmd struct {
	Code string `arg:"" help:"Invitation code"`
}

func (c *ValidateCmd) Run(ctx context.Context, globals *Globals) error {
	st, _, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	inv, err := (&service.Validator{Store: st}).Validate(ctx, c.Code)
	if err != nil {
		return err
	}
	return globals.print(viewOf(inv))
}

// CompleteCmd grants an invitation to an existing account, for support
// cases where the user cannot finish acceptance themselves.
type CompleteCmd struct {
	Code   string `arg:"" help:"Invitation code"`
	UserID string `help:"Identity provider user id" required:""`
}

func (c *CompleteCmd) Run(ctx context.Context, globals *Globals) error {
	st, _, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := (&service.Granter{Store: st}).GrantAndAccept(ctx, c.Code, c.UserID)
	if err != nil {
		return err
	}
	return globals.print(map[string]any{
		"invitation_id":    res.Invitation.ID,
		"user_id":          res.UserID,
		"granted_products": res.GrantedProducts,
		"already_accepted": res.AlreadyAccepted,
	})
}

type IssueCmd struct {
	Kind      string        `help:"Invitation kind" enum:"guard,product" default:"guard"`
	Org       string        `help:"Organization id" required:""`
	Product   []string      `help:"Product to grant (product invitations, repeatable)"`
	TTL       time.Duration `help:"Time until the invitation expires" default:"168h"`
	HintEmail string        `help:"Email the invitee is expected to use"`
	HintName  string        `help:"Display name for the invitee"`
	CreatedBy string        `help:"User id recorded as the issuer" required:""`
	Code      string        `help:"Use this code instead of generating one"`
}

func (c *IssueCmd) Run(ctx context.Context, globals *Globals) error {
	st, _, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	inv, err := (&service.Issuer{Store: st}).IssueInvitation(ctx, service.IssueRequest{
		Kind:           domain.Kind(c.Kind),
		OrganizationID: c.Org,
		Products:       c.Product,
		Hint:           domain.IdentityHint{Email: c.HintEmail, Name: c.HintName},
		TTL:            c.TTL,
		CreatedBy:      c.CreatedBy,
		Code:           c.Code,
	})
	if err != nil {
		return err
	}
	return globals.print(viewOf(service.ValidatedInvitation{Invitation: inv}))
}

type RevokeCmd struct {
	Code string `arg:"" help:"Invitation code"`
}

func (c *RevokeCmd) Run(ctx context.Context, globals *Globals) error {
	st, _, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	inv, err := (&service.Issuer{Store: st}).RevokeInvitation(ctx, c.Code)
	if err != nil {
		return err
	}
	return globals.print(viewOf(service.ValidatedInvitation{Invitation: inv}))
}
