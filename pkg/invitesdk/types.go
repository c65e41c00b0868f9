package invitesdk

import "time"

// Acceptance states.
const (
	StateAccepted           = "accepted"
	StateAlreadyAccepted    = "already_accepted"
	StateDeferredCompletion = "deferred_completion"
	StateSignInRequired     = "sign_in_required"
)

// Reasons for StateDeferredCompletion.
const (
	ReasonAlreadyRegistered    = "already_registered"
	ReasonConfirmationRequired = "confirmation_required"
	ReasonNoSession            = "no_session"
	ReasonGrantFailed          = "grant_failed"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// InvitationResponse is returned by GET /v1/invitations/{code}.
type InvitationResponse struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	OrganizationID string    `json:"organization_id"`
	Products       []string  `json:"products"`
	Status         string    `json:"status"`
	ExpiresAt      time.Time `json:"expires_at"`

	// IsExpired is computed at read time. Status may still say pending.
	IsExpired bool `json:"is_expired"`

	HintEmail string `json:"hint_email,omitempty"`
	HintName  string `json:"hint_name,omitempty"`
}

// SessionResponse carries a provider session created during acceptance.
type SessionResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// AcceptanceResponse is returned by the accept and complete endpoints.
type AcceptanceResponse struct {
	State           string           `json:"state"`
	InvitationID    string           `json:"invitation_id"`
	Kind            string           `json:"kind"`
	OrganizationID  string           `json:"organization_id"`
	UserID          string           `json:"user_id,omitempty"`
	Email           string           `json:"email,omitempty"`
	GrantedProducts []string         `json:"granted_products,omitempty"`
	Session         *SessionResponse `json:"session,omitempty"`
	Reason          string           `json:"reason,omitempty"`
	SuggestSignIn   bool             `json:"suggest_sign_in,omitempty"`
}

// Done reports whether the invitation is now held by the caller.
func (r AcceptanceResponse) Done() bool {
	return r.State == StateAccepted || r.State == StateAlreadyAccepted
}

// SweepResponse is returned by POST /v1/invitations/sweep.
type SweepResponse struct {
	Expired int64 `json:"expired"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks lists readiness of each dependency.
type HealthChecks struct {
	Database string `json:"database"`
	Keys     string `json:"keys"`
}
