package http

import (
	"net/http"

	"github.com/aussiebroadwan/muster/internal/invites/service"
	"github.com/aussiebroadwan/muster/pkg/httpx"
	"github.com/aussiebroadwan/muster/pkg/invitesdk"
)

type AcceptHandler struct {
	Orchestrator *service.Orchestrator
}

// HandleAccept godoc
//
//	@Summary		Accept Invitation
//	@Description	Accepts an invitation for the signed-in caller, or creates an account for an
//	@Description	anonymous caller and accepts on its behalf. Deferred and sign-in outcomes
//	@Description	are returned with 202 and a state field.
//	@Tags			Invitations
//	@Produce		json
//	@Security		BearerAuth
//	@Param			code	path		string							true	"Invitation code"
//	@Success		200		{object}	invitesdk.AcceptanceResponse	"accepted, already_accepted"
//	@Success		202		{object}	invitesdk.AcceptanceResponse	"deferred_completion, sign_in_required"
//	@Failure		401		{object}	invitesdk.ErrorResponse			"invalid_token"
//	@Failure		404		{object}	invitesdk.ErrorResponse			"invitation_not_found"
//	@Failure		409		{object}	invitesdk.ErrorResponse			"invitation_already_claimed"
//	@Failure		410		{object}	invitesdk.ErrorResponse			"invitation_expired, invitation_revoked"
//	@Failure		422		{object}	invitesdk.ErrorResponse			"invitation_invalid"
//	@Failure		502		{object}	invitesdk.ErrorResponse			"provisioning_failed"
//	@Router			/v1/invitations/{code}/accept [post].
func (h *AcceptHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := h.Orchestrator.AcceptInvitation(ctx, r.PathValue("code"), httpx.BearerFromContext(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeAcceptance(w, res)
}

// HandleComplete godoc
//
//	@Summary		Complete Deferred Acceptance
//	@Description	Finishes an acceptance after the caller has signed in or confirmed their account.
//	@Tags			Invitations
//	@Produce		json
//	@Security		BearerAuth
//	@Param			code	path		string							true	"Invitation code"
//	@Success		200		{object}	invitesdk.AcceptanceResponse	"accepted, already_accepted"
//	@Failure		401		{object}	invitesdk.ErrorResponse			"invalid_token"
//	@Failure		404		{object}	invitesdk.ErrorResponse			"invitation_not_found"
//	@Failure		409		{object}	invitesdk.ErrorResponse			"invitation_already_claimed"
//	@Failure		410		{object}	invitesdk.ErrorResponse			"invitation_expired, invitation_revoked"
//	@Failure		422		{object}	invitesdk.ErrorResponse			"invitation_invalid"
//	@Router			/v1/invitations/{code}/complete [post].
func (h *AcceptHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		writeServiceError(w, r, service.ErrInvalidSession)
		return
	}

	res, err := h.Orchestrator.CompleteAfterAuth(ctx, r.PathValue("code"), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeAcceptance(w, res)
}

func writeAcceptance(w http.ResponseWriter, res service.AcceptanceResult) {
	status := http.StatusOK
	if res.State == service.StateDeferredCompletion || res.State == service.StateSignInRequired {
		status = http.StatusAccepted
	}

	body := invitesdk.AcceptanceResponse{
		State:           string(res.State),
		InvitationID:    res.InvitationID,
		Kind:            string(res.Kind),
		OrganizationID:  res.OrganizationID,
		UserID:          res.UserID,
		Email:           res.Email,
		GrantedProducts: res.GrantedProducts,
		Reason:          res.Reason,
		SuggestSignIn:   res.SuggestSignIn,
	}
	if res.Session != nil {
		body.Session = &invitesdk.SessionResponse{
			UserID:    res.Session.UserID,
			Email:     res.Session.Email,
			Token:     res.Session.Token,
			ExpiresAt: res.Session.ExpiresAt,
		}
	}

	httpx.WriteJSON(w, status, body)
}
