package invitesdk

import (
	"context"
	"net/http"
)

// ValidateInvitation looks a code up without changing anything.
func (c *Client) ValidateInvitation(ctx context.Context, code string) (*InvitationResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, invitationPath(code, ""))
	if err != nil {
		return nil, err
	}

	var inv InvitationResponse
	if err := decodeJSON(resp, &inv, http.StatusOK); err != nil {
		return nil, err
	}
	return &inv, nil
}

// AcceptInvitation attempts acceptance. Deferred and sign-in outcomes are
// returned as responses, not errors; check State.
func (c *Client) AcceptInvitation(ctx context.Context, code string) (*AcceptanceResponse, error) {
	return c.acceptance(ctx, invitationPath(code, "/accept"))
}

// CompleteInvitation finishes a deferred acceptance. It needs a token.
func (c *Client) CompleteInvitation(ctx context.Context, code string) (*AcceptanceResponse, error) {
	return c.acceptance(ctx, invitationPath(code, "/complete"))
}

func (c *Client) acceptance(ctx context.Context, path string) (*AcceptanceResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, path)
	if err != nil {
		return nil, err
	}

	var res AcceptanceResponse
	if err := decodeJSON(resp, &res, http.StatusOK, http.StatusAccepted); err != nil {
		return nil, err
	}
	return &res, nil
}

// SweepExpired asks the service to expire overdue invitations now. The token
// needs the admin:write scope.
func (c *Client) SweepExpired(ctx context.Context) (*SweepResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/invitations/sweep")
	if err != nil {
		return nil, err
	}

	var res SweepResponse
	if err := decodeJSON(resp, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return &res, nil
}
