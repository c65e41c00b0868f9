package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/muster/internal/invites/service"
	"github.com/aussiebroadwan/muster/internal/invites/store"
	"github.com/aussiebroadwan/muster/pkg/httpx"
	"github.com/aussiebroadwan/muster/pkg/slogx"
)

// writeServiceError maps a service error to its status and stable code.
// Unrecognised errors are logged and hidden behind server_error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := service.ErrorLabel(err)

	switch {
	case errors.Is(err, service.ErrInvitationNotFound):
		httpx.WriteError(w, http.StatusNotFound, code, "No invitation matches this code")
	case errors.Is(err, service.ErrInvitationInvalid):
		httpx.WriteError(w, http.StatusUnprocessableEntity, code, "Invitation can no longer be used")
	case errors.Is(err, service.ErrInvitationExpired):
		httpx.WriteError(w, http.StatusGone, code, "Invitation has expired")
	case errors.Is(err, service.ErrInvitationRevoked):
		httpx.WriteError(w, http.StatusGone, code, "Invitation has been revoked")
	case errors.Is(err, service.ErrInvitationAlreadyClaimed):
		httpx.WriteError(w, http.StatusConflict, code, "Invitation was accepted by another account")
	case errors.Is(err, service.ErrProvisioningFailed):
		httpx.WriteError(w, http.StatusBadGateway, code, "Account could not be created, try again later")
	case errors.Is(err, service.ErrInvalidSession):
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		httpx.WriteError(w, http.StatusUnauthorized, code, "Session is invalid or expired")
	case errors.Is(err, service.ErrInvalidRequest):
		httpx.WriteError(w, http.StatusBadRequest, code, "Invitation code is required")
	case errors.Is(err, store.ErrIntegrity):
		slogx.FromContext(r.Context()).Error("invitation data integrity violation", slog.Any("error", err))
		httpx.WriteError(w, http.StatusInternalServerError, code, "Invitation data is inconsistent")
	default:
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
	}
}
