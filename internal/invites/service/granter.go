package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
	"github.com/aussiebroadwan/muster/internal/invites/metrics"
	"github.com/aussiebroadwan/muster/internal/invites/store"
	"github.com/aussiebroadwan/muster/pkg/cryptox"
	"github.com/aussiebroadwan/muster/pkg/idx"
	"github.com/aussiebroadwan/muster/pkg/slogx"
)

// GrantResult describes a successful GrantAndAccept.
type GrantResult struct {
	Invitation      domain.Invitation
	UserID          string
	GrantedProducts []string

	// AlreadyAccepted is true when this user had claimed the invitation on
	// an earlier call and only the entitlement step ran.
	AlreadyAccepted bool
}

// Granter is the only component that writes. It claims the invitation with
// a conditional update, then upserts one entitlement per product. The two
// steps are separately idempotent: a retry by the same user after a crash
// between them finds the invitation already claimed and finishes the grants.
type Granter struct {
	Store   store.Store
	Metrics metrics.Recorder
	Now     func() time.Time
}

// GrantAndAccept claims the invitation behind code for userID and grants
// its products. Expiry is checked before anything else, whatever the stored
// status.
func (g *Granter) GrantAndAccept(ctx context.Context, code, userID string) (GrantResult, error) {
	code = strings.TrimSpace(code)
	if code == "" || userID == "" {
		return GrantResult{}, ErrInvalidRequest
	}

	inv, err := findInvitation(ctx, g.Store, code)
	if err != nil {
		return GrantResult{}, err
	}

	ctx = slogx.With(withInvitationLog(ctx, inv), slog.String("user_id", userID))
	log := slogx.FromContext(ctx)

	now := clock(g.Now)
	if inv.IsExpired(now) {
		log.Warn("grant rejected: invitation expired", slog.Time("expires_at", inv.ExpiresAt))
		return GrantResult{}, ErrInvitationExpired
	}

	if err := checkOrganization(ctx, g.Store, inv); err != nil {
		return GrantResult{}, err
	}

	already := false
	if inv.Status == domain.StatusPending {
		claimed, err := g.Store.Invitations().ClaimInvitation(ctx, inv.ID, userID, now)
		if err != nil {
			log.Error("failed to claim invitation", slog.Any("error", err))
			return GrantResult{}, err
		}
		if claimed {
			inv.Status = domain.StatusAccepted
			inv.AcceptedBy = userID
			inv.AcceptedAt = &now
		} else {
			// Lost a race or expiry moved under us; the row says which.
			inv, err = g.Store.Invitations().GetInvitationByID(ctx, inv.ID)
			if err != nil {
				log.Error("failed to re-read invitation after claim", slog.Any("error", err))
				return GrantResult{}, err
			}
			if already, err = classifyUnclaimed(inv, userID); err != nil {
				log.Warn("grant rejected", slog.String("status", string(inv.Status)), slog.Any("error", err))
				return GrantResult{}, err
			}
		}
	} else if already, err = classifyUnclaimed(inv, userID); err != nil {
		log.Warn("grant rejected", slog.String("status", string(inv.Status)), slog.Any("error", err))
		return GrantResult{}, err
	}

	products := inv.Products()
	err = g.Store.WithTx(ctx, func(tx store.Tx) error {
		for _, product := range products {
			e := domain.Entitlement{
				ID:             idx.NewAt(now).String(),
				UserID:         userID,
				ProductID:      product,
				OrganizationID: inv.OrganizationID,
				GrantedBy:      inv.CreatedBy,
				GrantedAt:      now,
				IsActive:       true,
			}
			if err := tx.Entitlements().UpsertEntitlement(ctx, e); err != nil {
				return fmt.Errorf("upsert entitlement %s: %w", product, err)
			}
		}
		return nil
	})
	if err != nil {
		// The claim stands; a retry by the same user re-enters here.
		log.Error("failed to grant entitlements", slog.Any("error", err))
		return GrantResult{}, err
	}

	recorder(g.Metrics).RecordGrant(len(products))
	log.Info("invitation accepted",
		slog.String("organization_id", inv.OrganizationID),
		slog.Any("products", products),
		slog.Bool("already_accepted", already),
	)

	return GrantResult{
		Invitation:      inv,
		UserID:          userID,
		GrantedProducts: products,
		AlreadyAccepted: already,
	}, nil
}

// classifyUnclaimed explains why a claim didn't apply. A nil error means the
// invitation is already accepted by userID and the grant may proceed.
func classifyUnclaimed(inv domain.Invitation, userID string) (bool, error) {
	switch inv.Status {
	case domain.StatusAccepted:
		if inv.AcceptedBy == userID {
			return true, nil
		}
		return false, ErrInvitationAlreadyClaimed
	case domain.StatusRevoked:
		return false, ErrInvitationRevoked
	case domain.StatusExpired, domain.StatusPending:
		// Still pending after a failed claim means expires_at <= now.
		return false, ErrInvitationExpired
	default:
		return false, fmt.Errorf("%w: unknown status %q", ErrInvitationInvalid, inv.Status)
	}
}

type invitationLogKey struct{}

// withInvitationLog attaches the invitation's id and code fingerprint to the
// context logger. A context already scoped to inv is returned unchanged.
func withInvitationLog(ctx context.Context, inv domain.Invitation) context.Context {
	if id, _ := ctx.Value(invitationLogKey{}).(string); id == inv.ID {
		return ctx
	}
	ctx = slogx.With(ctx,
		slog.String("invitation_id", inv.ID),
		slog.String("code", cryptox.LogFingerprint(inv.Code)),
	)
	return context.WithValue(ctx, invitationLogKey{}, inv.ID)
}
