package invitesdk

import (
	"net/http"
	"strings"
	"time"
)

// Client talks to one muster deployment. It is safe for concurrent use.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	token string
}

// NewClient creates an anonymous client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithToken returns a copy of c that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}
