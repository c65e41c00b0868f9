package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/metrics"
	"github.com/aussiebroadwan/muster/internal/invites/store"
)

var (
	ErrInvitationNotFound       = errors.New("invitation not found")
	ErrInvitationInvalid        = errors.New("invitation is not valid")
	ErrInvitationExpired        = errors.New("invitation has expired")
	ErrInvitationRevoked        = errors.New("invitation has been revoked")
	ErrInvitationAlreadyClaimed = errors.New("invitation was accepted by another account")
	ErrProvisioningFailed       = errors.New("account provisioning failed")
	ErrInvalidSession           = errors.New("invalid session")
	ErrInvalidRequest           = errors.New("invalid request")

	// ErrDuplicateInvitationCode means one code matched invitations of both
	// kinds. It wraps store.ErrIntegrity.
	ErrDuplicateInvitationCode = fmt.Errorf("invitation code matches more than one invitation: %w", store.ErrIntegrity)
)

// ErrorLabel is the short, stable name used for err in metrics and API
// error bodies. Unrecognised errors are "internal".
func ErrorLabel(err error) string {
	switch {
	case errors.Is(err, ErrInvitationNotFound):
		return "invitation_not_found"
	case errors.Is(err, ErrInvitationInvalid):
		return "invitation_invalid"
	case errors.Is(err, ErrInvitationExpired):
		return "invitation_expired"
	case errors.Is(err, ErrInvitationRevoked):
		return "invitation_revoked"
	case errors.Is(err, ErrInvitationAlreadyClaimed):
		return "invitation_already_claimed"
	case errors.Is(err, ErrProvisioningFailed):
		return "provisioning_failed"
	case errors.Is(err, ErrInvalidSession):
		return "invalid_token"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, store.ErrIntegrity):
		return "integrity_violation"
	default:
		return "internal"
	}
}

func clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}

func recorder(r metrics.Recorder) metrics.Recorder {
	if r == nil {
		return metrics.Noop{}
	}
	return r
}
