package http

import (
	"net/http"

	"github.com/aussiebroadwan/muster/internal/invites/service"
	"github.com/aussiebroadwan/muster/pkg/httpx"
	"github.com/aussiebroadwan/muster/pkg/invitesdk"
)

type SweepHandler struct {
	Sweeper *service.Sweeper
}

// ServeHTTP godoc
//
//	@Summary		Sweep Expired Invitations
//	@Description	Moves every pending invitation past its expiry to expired. Acceptance
//	@Description	refuses expired invitations whether or not a sweep has run.
//	@Tags			Operator
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	invitesdk.SweepResponse		"expired"
//	@Failure		401	{object}	invitesdk.ErrorResponse		"invalid_token"
//	@Failure		403	{object}	invitesdk.ErrorResponse		"insufficient_scope"
//	@Failure		500	{object}	invitesdk.ErrorResponse		"server_error"
//	@Router			/v1/invitations/sweep [post].
func (h *SweepHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n, err := h.Sweeper.SweepExpired(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, invitesdk.SweepResponse{Expired: n})
}
