package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
	"github.com/aussiebroadwan/muster/internal/invites/metrics"
	"github.com/aussiebroadwan/muster/internal/invites/store"
	"github.com/aussiebroadwan/muster/pkg/cryptox"
	"github.com/aussiebroadwan/muster/pkg/slogx"
)

// ValidatedInvitation is an invitation as stored plus the computed expiry
// overlay. Status is never rewritten here: a pending invitation past its
// expiry reads as Status=pending, IsExpired=true until the sweeper runs.
type ValidatedInvitation struct {
	domain.Invitation
	IsExpired bool
}

// Validator looks invitation codes up without changing anything.
type Validator struct {
	Store   store.Store
	Metrics metrics.Recorder
	Now     func() time.Time
}

// Validate resolves code across both invitation kinds.
func (v *Validator) Validate(ctx context.Context, code string) (ValidatedInvitation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return ValidatedInvitation{}, ErrInvalidRequest
	}

	inv, err := findInvitation(ctx, v.Store, code)
	switch {
	case errors.Is(err, ErrInvitationNotFound):
		recorder(v.Metrics).RecordValidation("not_found")
		return ValidatedInvitation{}, err
	case errors.Is(err, store.ErrIntegrity):
		recorder(v.Metrics).RecordValidation("integrity")
		return ValidatedInvitation{}, err
	case err != nil:
		return ValidatedInvitation{}, err
	}

	recorder(v.Metrics).RecordValidation("found")
	return ValidatedInvitation{
		Invitation: inv,
		IsExpired:  inv.IsExpired(clock(v.Now)),
	}, nil
}

// findInvitation returns the single invitation carrying code. Codes are
// unique per kind only, so a match in both kinds is surfaced rather than
// picking one.
func findInvitation(ctx context.Context, s store.Store, code string) (domain.Invitation, error) {
	log := slogx.FromContext(ctx)

	found, err := s.Invitations().FindInvitationsByCode(ctx, code)
	if err != nil {
		log.Error("failed to look up invitation", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	switch len(found) {
	case 0:
		log.Debug("invitation code not found", slog.String("code", cryptox.LogFingerprint(code)))
		return domain.Invitation{}, ErrInvitationNotFound
	case 1:
		return found[0], nil
	default:
		ids := make([]string, len(found))
		for i, inv := range found {
			ids[i] = inv.ID
		}
		log.Error("invitation code matches several invitations",
			slog.String("code", cryptox.LogFingerprint(code)),
			slog.Any("invitation_ids", ids),
		)
		return domain.Invitation{}, ErrDuplicateInvitationCode
	}
}

// checkOrganization maps a vanished tenant to ErrInvitationInvalid.
func checkOrganization(ctx context.Context, s store.Store, inv domain.Invitation) error {
	_, err := s.Organizations().GetOrganizationByID(ctx, inv.OrganizationID)
	if errors.Is(err, store.ErrNotFound) {
		slogx.FromContext(ctx).Warn("invitation references missing organization",
			slog.String("invitation_id", inv.ID),
			slog.String("organization_id", inv.OrganizationID),
		)
		return ErrInvitationInvalid
	}
	return err
}
