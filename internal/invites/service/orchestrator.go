package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
	"github.com/aussiebroadwan/muster/internal/invites/identity"
	"github.com/aussiebroadwan/muster/internal/invites/metrics"
	"github.com/aussiebroadwan/muster/internal/invites/store"
	"github.com/aussiebroadwan/muster/pkg/cryptox"
	"github.com/aussiebroadwan/muster/pkg/slogx"
)

// AcceptanceState is the non-error outcome of an acceptance attempt.
type AcceptanceState string

const (
	StateAccepted              AcceptanceState = "accepted"
	StateAlreadyAcceptedBySelf AcceptanceState = "already_accepted"
	StateDeferredCompletion    AcceptanceState = "deferred_completion"
	StateSignInRequired        AcceptanceState = "sign_in_required"
)

// Reasons attached to StateDeferredCompletion.
const (
	DeferredAlreadyRegistered    = "already_registered"
	DeferredConfirmationRequired = "confirmation_required"
	DeferredNoSession            = "no_session"
	DeferredGrantFailed          = "grant_failed"
)

// AcceptanceResult is what a client gets back from one attempt. Errors are
// returned separately; DeferredCompletion and SignInRequired are not errors.
type AcceptanceResult struct {
	State          AcceptanceState
	InvitationID   string
	Kind           domain.Kind
	OrganizationID string

	// UserID is the account the grant went to, or the account awaiting
	// confirmation for a deferred result when the provider reported one.
	UserID          string
	Email           string
	GrantedProducts []string

	// Session is set when an account was created and signed in during this
	// attempt, so the client can carry on as that user.
	Session *identity.Session

	// Reason qualifies StateDeferredCompletion.
	Reason        string
	SuggestSignIn bool
}

// Orchestrator sequences Validator, Resolver, the identity provider and
// Granter. It holds no per-request state.
type Orchestrator struct {
	Store       store.Store
	Validator   *Validator
	Resolver    *Resolver
	Granter     *Granter
	Provisioner identity.Provisioner
	Sessions    identity.SessionResolver
	Metrics     metrics.Recorder
}

// AcceptInvitation runs one end-to-end acceptance. sessionToken may be empty.
func (o *Orchestrator) AcceptInvitation(ctx context.Context, code, sessionToken string) (res AcceptanceResult, err error) {
	start := time.Now()
	defer func() { o.record(res, err, start) }()

	var session *identity.Session
	if sessionToken != "" {
		s, err := o.Sessions.CurrentSession(ctx, sessionToken)
		if err != nil {
			slogx.FromContext(ctx).Warn("acceptance with unverifiable session", slog.Any("error", err))
			return AcceptanceResult{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
		}
		session = &s
	}

	inv, err := o.Validator.Validate(ctx, code)
	if err != nil {
		return AcceptanceResult{}, err
	}

	ctx = withInvitationLog(ctx, inv.Invitation)
	log := slogx.FromContext(ctx)

	if err := o.precheck(ctx, inv, session); err != nil {
		log.Warn("acceptance rejected", slog.String("status", string(inv.Status)), slog.Any("error", err))
		return AcceptanceResult{}, err
	}

	if session != nil {
		o.remember(ctx, session.UserID, session.Email)
	}

	resolution, err := o.Resolver.Resolve(ctx, inv, session)
	if err != nil {
		return AcceptanceResult{}, err
	}
	log.Debug("identity resolved", slog.String("decision", resolution.Decision.String()))

	base := AcceptanceResult{
		InvitationID:   inv.ID,
		Kind:           inv.Kind,
		OrganizationID: inv.OrganizationID,
		Email:          resolution.Email,
	}

	switch resolution.Decision {
	case DecisionSatisfied:
		return o.grant(ctx, base, inv.Code, resolution.UserID, nil)

	case DecisionSignIn:
		base.State = StateSignInRequired
		base.SuggestSignIn = true
		return base, nil

	case DecisionSignUp:
		return o.signUp(ctx, base, inv, resolution)

	default:
		return AcceptanceResult{}, fmt.Errorf("unhandled decision %d", resolution.Decision)
	}
}

// CompleteAfterAuth finishes a deferred acceptance once userID has signed in.
func (o *Orchestrator) CompleteAfterAuth(ctx context.Context, code, userID string) (res AcceptanceResult, err error) {
	start := time.Now()
	defer func() { o.record(res, err, start) }()

	if strings.TrimSpace(code) == "" || userID == "" {
		return AcceptanceResult{}, ErrInvalidRequest
	}
	return o.grant(ctx, AcceptanceResult{}, code, userID, nil)
}

// precheck rejects attempts that can't succeed before anything is created
// at the provider. The Granter enforces the same rules on its own.
func (o *Orchestrator) precheck(ctx context.Context, inv ValidatedInvitation, session *identity.Session) error {
	if inv.IsExpired {
		return ErrInvitationExpired
	}

	switch inv.Status {
	case domain.StatusRevoked:
		return ErrInvitationRevoked
	case domain.StatusExpired:
		return ErrInvitationExpired
	case domain.StatusAccepted:
		if session == nil || !inv.AcceptedByUser(session.UserID) {
			return ErrInvitationAlreadyClaimed
		}
	}

	return checkOrganization(ctx, o.Store, inv.Invitation)
}

func (o *Orchestrator) signUp(ctx context.Context, base AcceptanceResult, inv ValidatedInvitation, r Resolution) (AcceptanceResult, error) {
	log := slogx.FromContext(ctx)

	// The credential is never shown to anyone; the account is reached
	// through the returned session or a provider password reset.
	credential, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return AcceptanceResult{}, err
	}

	acct, err := o.Provisioner.CreateAccount(ctx, r.Email, r.Name, credential)
	if err != nil {
		var pe *identity.ProvisionError
		if !errors.As(err, &pe) {
			pe = &identity.ProvisionError{Kind: identity.ProvisionUnknown, Err: err}
		}
		recorder(o.Metrics).RecordProvisioning(pe.Kind.String())

		switch pe.Kind {
		case identity.ProvisionAlreadyRegistered:
			log.Info("auto-signup found existing account, deferring")
			base.State = StateDeferredCompletion
			base.Reason = DeferredAlreadyRegistered
			base.SuggestSignIn = true
			return base, nil

		case identity.ProvisionConfirmationRequired:
			log.Info("auto-signup awaits confirmation, deferring", slog.String("user_id", pe.UserID))
			if pe.UserID != "" {
				o.remember(ctx, pe.UserID, r.Email)
			}
			base.State = StateDeferredCompletion
			base.Reason = DeferredConfirmationRequired
			base.UserID = pe.UserID
			return base, nil

		case identity.ProvisionUnavailable, identity.ProvisionUnknown:
			log.Error("auto-signup failed", slog.String("kind", pe.Kind.String()), slog.Any("error", err))
			return AcceptanceResult{}, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)

		default:
			log.Error("auto-signup failed with unrecognised kind", slog.Any("error", err))
			return AcceptanceResult{}, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
		}
	}

	recorder(o.Metrics).RecordProvisioning("created")
	o.remember(ctx, acct.UserID, acct.Email)

	if acct.Session == nil {
		log.Info("account created without session, deferring", slog.String("user_id", acct.UserID))
		base.State = StateDeferredCompletion
		base.Reason = DeferredNoSession
		base.UserID = acct.UserID
		base.SuggestSignIn = true
		return base, nil
	}

	res, err := o.grant(ctx, base, inv.Code, acct.UserID, acct.Session)
	if err != nil && !isRejection(err) {
		// The account exists and its credential is gone. Hand back what the
		// caller needs to finish through completeAfterAuth.
		log.Error("grant failed after auto-signup, deferring",
			slog.String("user_id", acct.UserID),
			slog.Any("error", err),
		)
		base.State = StateDeferredCompletion
		base.Reason = DeferredGrantFailed
		base.UserID = acct.UserID
		base.Session = acct.Session
		base.SuggestSignIn = acct.Session == nil
		return base, nil
	}
	return res, err
}

// isRejection reports whether err is a business outcome rather than a fault.
func isRejection(err error) bool {
	for _, target := range []error{
		ErrInvitationNotFound,
		ErrInvitationInvalid,
		ErrInvitationExpired,
		ErrInvitationRevoked,
		ErrInvitationAlreadyClaimed,
		ErrInvalidRequest,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) grant(ctx context.Context, base AcceptanceResult, code, userID string, session *identity.Session) (AcceptanceResult, error) {
	g, err := o.Granter.GrantAndAccept(ctx, code, userID)
	if err != nil {
		return AcceptanceResult{}, err
	}

	base.State = StateAccepted
	if g.AlreadyAccepted {
		base.State = StateAlreadyAcceptedBySelf
	}
	base.InvitationID = g.Invitation.ID
	base.Kind = g.Invitation.Kind
	base.OrganizationID = g.Invitation.OrganizationID
	base.UserID = userID
	base.GrantedProducts = g.GrantedProducts
	base.Session = session
	return base, nil
}

// remember records an account in the known-accounts cache. Failures only
// cost a later sign-in hint, so they are logged and dropped.
func (o *Orchestrator) remember(ctx context.Context, userID, email string) {
	if userID == "" || email == "" {
		return
	}
	err := o.Store.Accounts().RememberAccount(ctx, domain.Account{
		ID:        userID,
		Email:     email,
		CreatedAt: clock(o.Granter.Now),
	})
	if err != nil {
		slogx.FromContext(ctx).Warn("failed to remember account",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
}

func (o *Orchestrator) record(res AcceptanceResult, err error, start time.Time) {
	label := string(res.State)
	if err != nil {
		label = ErrorLabel(err)
	}
	recorder(o.Metrics).RecordAcceptance(label, time.Since(start))
}
