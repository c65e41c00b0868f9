package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
	"github.com/aussiebroadwan/muster/internal/invites/store"
	"github.com/aussiebroadwan/muster/pkg/cryptox"
	"github.com/aussiebroadwan/muster/pkg/idx"
	"github.com/aussiebroadwan/muster/pkg/slogx"
)

// IssueRequest describes an invitation to create. Code is generated when
// empty. Products is ignored for guard invitations.
type IssueRequest struct {
	Kind           domain.Kind
	OrganizationID string
	Products       []string
	Hint           domain.IdentityHint
	TTL            time.Duration
	CreatedBy      string
	Code           string
}

// Issuer is operator tooling for seeding and withdrawing invitations.
// Acceptance never goes through it.
type Issuer struct {
	Store store.Store
	Now   func() time.Time
}

var codePrefix = map[domain.Kind]string{
	domain.KindGuard:   "GRD-",
	domain.KindProduct: "PRD-",
}

func (s *Issuer) IssueInvitation(ctx context.Context, req IssueRequest) (domain.Invitation, error) {
	log := slogx.FromContext(ctx)

	if err := validateIssue(req); err != nil {
		log.Warn("invalid invitation request", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	if _, err := s.Store.Organizations().GetOrganizationByID(ctx, req.OrganizationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, fmt.Errorf("%w: unknown organization %s", ErrInvalidRequest, req.OrganizationID)
		}
		return domain.Invitation{}, err
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		var err error
		if code, err = cryptox.GenerateCode(codePrefix[req.Kind], 8); err != nil {
			return domain.Invitation{}, err
		}
	}

	now := clock(s.Now)
	inv := domain.Invitation{
		ID:                idx.NewAt(now).String(),
		Code:              code,
		Kind:              req.Kind,
		OrganizationID:    req.OrganizationID,
		RequestedProducts: req.Products,
		Hint:              req.Hint,
		Status:            domain.StatusPending,
		ExpiresAt:         now.Add(req.TTL),
		CreatedBy:         req.CreatedBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if inv.Kind == domain.KindGuard {
		inv.RequestedProducts = nil
	}

	// A code shared across kinds would make acceptance ambiguous.
	existing, err := s.Store.Invitations().FindInvitationsByCode(ctx, code)
	if err != nil {
		return domain.Invitation{}, err
	}
	if len(existing) > 0 {
		return domain.Invitation{}, fmt.Errorf("%w: code already issued", ErrInvalidRequest)
	}

	if err := s.Store.Invitations().CreateInvitation(ctx, inv); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Invitation{}, fmt.Errorf("%w: code already issued", ErrInvalidRequest)
		}
		log.Error("failed to create invitation", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	log.Info("invitation issued",
		slog.String("invitation_id", inv.ID),
		slog.String("kind", string(inv.Kind)),
		slog.String("organization_id", inv.OrganizationID),
		slog.Time("expires_at", inv.ExpiresAt),
	)
	return inv, nil
}

// RevokeInvitation withdraws a pending invitation. Revoking twice is a no-op.
func (s *Issuer) RevokeInvitation(ctx context.Context, code string) (domain.Invitation, error) {
	inv, err := findInvitation(ctx, s.Store, strings.TrimSpace(code))
	if err != nil {
		return domain.Invitation{}, err
	}

	ok, err := s.Store.Invitations().RevokeInvitation(ctx, inv.ID, clock(s.Now))
	if err != nil {
		return domain.Invitation{}, err
	}

	inv, err = s.Store.Invitations().GetInvitationByID(ctx, inv.ID)
	if err != nil {
		return domain.Invitation{}, err
	}
	if ok {
		slogx.FromContext(ctx).Info("invitation revoked", slog.String("invitation_id", inv.ID))
		return inv, nil
	}

	switch inv.Status {
	case domain.StatusRevoked:
		return inv, nil
	case domain.StatusAccepted:
		return inv, ErrInvitationAlreadyClaimed
	default:
		return inv, ErrInvitationExpired
	}
}

// explicitCode matches operator-chosen codes. Upper case only, and only
// characters FallbackEmail keeps, so distinct codes never share an address.
var explicitCode = regexp.MustCompile(`^[A-Z0-9][A-Z0-9._-]{0,63}$`)

func validateIssue(req IssueRequest) error {
	if !req.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, req.Kind)
	}
	if req.OrganizationID == "" || req.CreatedBy == "" {
		return fmt.Errorf("%w: organization and issuer are required", ErrInvalidRequest)
	}
	if req.TTL <= 0 {
		return fmt.Errorf("%w: ttl must be positive", ErrInvalidRequest)
	}
	if code := strings.TrimSpace(req.Code); code != "" && !explicitCode.MatchString(code) {
		return fmt.Errorf("%w: code %q must be upper-case letters, digits, '.', '_' or '-'", ErrInvalidRequest, code)
	}
	if req.Kind == domain.KindProduct {
		if len(req.Products) == 0 {
			return fmt.Errorf("%w: product invitations need at least one product", ErrInvalidRequest)
		}
		for _, p := range req.Products {
			if p == "" || strings.ContainsAny(p, " \t\n") {
				return fmt.Errorf("%w: invalid product id %q", ErrInvalidRequest, p)
			}
		}
	}
	if req.Hint.Email != "" {
		if _, err := mail.ParseAddress(req.Hint.Email); err != nil {
			return fmt.Errorf("%w: hint email: %v", ErrInvalidRequest, err)
		}
	}
	return nil
}
