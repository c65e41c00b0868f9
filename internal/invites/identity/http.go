package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPProvisioner calls the provider's account API:
//
//	POST {BaseURL}/v1/accounts
//
// 201 carries the new account and usually a session, 202 means the account
// exists but awaits confirmation, 409 means the email is taken.
type HTTPProvisioner struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPProvisioner returns a provisioner with its own bounded client.
func NewHTTPProvisioner(baseURL string, timeout time.Duration) *HTTPProvisioner {
	return &HTTPProvisioner{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

type createAccountRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

type createAccountResponse struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Session *struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	} `json:"session,omitempty"`
}

func (p *HTTPProvisioner) CreateAccount(ctx context.Context, email, name, credential string) (Account, error) {
	body, err := json.Marshal(createAccountRequest{Email: email, Name: name, Password: credential})
	if err != nil {
		return Account{}, &ProvisionError{Kind: ProvisionUnknown, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/v1/accounts", bytes.NewReader(body))
	if err != nil {
		return Account{}, &ProvisionError{Kind: ProvisionUnknown, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return Account{}, &ProvisionError{Kind: ProvisionUnavailable, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated:
		var out createAccountResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return Account{}, &ProvisionError{Kind: ProvisionUnknown, Err: fmt.Errorf("decode response: %w", err)}
		}
		if out.UserID == "" {
			return Account{}, &ProvisionError{Kind: ProvisionUnknown, Err: errors.New("response has no user_id")}
		}

		acct := Account{UserID: out.UserID, Email: out.Email}
		if acct.Email == "" {
			acct.Email = email
		}
		if out.Session != nil && out.Session.AccessToken != "" {
			acct.Session = &Session{
				UserID:    out.UserID,
				Email:     acct.Email,
				Token:     out.Session.AccessToken,
				ExpiresAt: time.Now().Add(time.Duration(out.Session.ExpiresIn) * time.Second),
			}
		}
		return acct, nil

	case resp.StatusCode == http.StatusAccepted:
		var out createAccountResponse
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return Account{}, &ProvisionError{Kind: ProvisionConfirmationRequired, UserID: out.UserID}

	case resp.StatusCode == http.StatusConflict:
		drain(resp.Body)
		return Account{}, &ProvisionError{Kind: ProvisionAlreadyRegistered}

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		drain(resp.Body)
		return Account{}, &ProvisionError{
			Kind: ProvisionUnavailable,
			Err:  fmt.Errorf("provider returned %d", resp.StatusCode),
		}

	default:
		drain(resp.Body)
		return Account{}, &ProvisionError{
			Kind: ProvisionUnknown,
			Err:  fmt.Errorf("provider returned %d", resp.StatusCode),
		}
	}
}

func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64<<10))
}
