/*
Package invitesdk is a client for the muster invitation service.

A Client calls the public endpoints. Pass a session token with WithToken to
act as a signed-in user:

	client := invitesdk.NewClient("https://muster.example.com")

	inv, err := client.ValidateInvitation(ctx, "GRD-ABC123")

	res, err := client.AcceptInvitation(ctx, "GRD-ABC123")
	switch res.State {
	case invitesdk.StateAccepted, invitesdk.StateAlreadyAccepted:
		// done, res.Session is set when an account was created
	case invitesdk.StateDeferredCompletion, invitesdk.StateSignInRequired:
		// sign in, then:
		res, err = client.WithToken(token).CompleteInvitation(ctx, "GRD-ABC123")
	}

# Errors

Non-2xx responses are returned as *APIError. Use the Is* helpers to branch
on the error code:

	if invitesdk.IsAlreadyClaimed(err) {
		// someone else took it
	}
*/
package invitesdk
