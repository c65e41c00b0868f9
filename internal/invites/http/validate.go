package http

import (
	"net/http"

	"github.com/aussiebroadwan/muster/internal/invites/service"
	"github.com/aussiebroadwan/muster/pkg/httpx"
	"github.com/aussiebroadwan/muster/pkg/invitesdk"
)

type ValidateHandler struct {
	Validator *service.Validator
}

// ServeHTTP godoc
//
//	@Summary		Validate Invitation Code
//	@Description	Looks an invitation code up across both invitation kinds without changing it.
//	@Description	is_expired is computed at read time; status may still read pending.
//	@Tags			Invitations
//	@Produce		json
//	@Param			code	path		string							true	"Invitation code"
//	@Success		200		{object}	invitesdk.InvitationResponse	"invitation"
//	@Failure		404		{object}	invitesdk.ErrorResponse			"invitation_not_found"
//	@Failure		429		{object}	invitesdk.ErrorResponse			"rate_limit_exceeded"
//	@Failure		500		{object}	invitesdk.ErrorResponse			"integrity_violation, server_error"
//	@Router			/v1/invitations/{code} [get].
func (h *ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Validator.Validate(r.Context(), r.PathValue("code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, invitesdk.InvitationResponse{
		ID:             inv.ID,
		Kind:           string(inv.Kind),
		OrganizationID: inv.OrganizationID,
		Products:       inv.Products(),
		Status:         string(inv.Status),
		ExpiresAt:      inv.ExpiresAt,
		IsExpired:      inv.IsExpired,
		HintEmail:      inv.Hint.Email,
		HintName:       inv.Hint.Name,
	})
}
