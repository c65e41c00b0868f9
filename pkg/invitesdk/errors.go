package invitesdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned by the service.
const (
	ErrorCodeNotFound          = "invitation_not_found"
	ErrorCodeInvalid           = "invitation_invalid"
	ErrorCodeExpired           = "invitation_expired"
	ErrorCodeRevoked           = "invitation_revoked"
	ErrorCodeAlreadyClaimed    = "invitation_already_claimed"
	ErrorCodeProvisioning      = "provisioning_failed"
	ErrorCodeInvalidToken      = "invalid_token"
	ErrorCodeInvalidRequest    = "invalid_request"
	ErrorCodeIntegrity         = "integrity_violation"
	ErrorCodeRateLimited       = "rate_limit_exceeded"
	ErrorCodeServerError       = "server_error"
	ErrorCodeInsufficientScope = "insufficient_scope"
)

// APIError is a decoded error response.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Code returns the service error code carried by err, or "".
func Code(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

func IsNotFound(err error) bool       { return Code(err) == ErrorCodeNotFound }
func IsExpired(err error) bool        { return Code(err) == ErrorCodeExpired }
func IsRevoked(err error) bool        { return Code(err) == ErrorCodeRevoked }
func IsAlreadyClaimed(err error) bool { return Code(err) == ErrorCodeAlreadyClaimed }

// IsRetryable reports whether the same request may succeed later.
func IsRetryable(err error) bool {
	switch Code(err) {
	case ErrorCodeProvisioning, ErrorCodeRateLimited, ErrorCodeServerError:
		return true
	}
	return false
}

func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
