// Package auth exchanges a username and password for a bearer token.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/internal/httpx"
)

// Client calls the authentication endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	transport  *httpx.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = timeout
		c.httpClient = &hc
	}
}

// New creates a Client for the authentication endpoint, e.g.
// "http://auth.example.org/api/authenticate". The URL is used as is.
func New(endpoint string, opts ...Option) (*Client, error) {
	if _, err := httpx.BuildURL(endpoint, nil, nil); err != nil {
		return nil, fmt.Errorf("new auth client: %w", err)
	}

	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.transport = httpx.New(c.httpClient)
	return c, nil
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Authenticate posts the credentials form-encoded and returns the token from
// the JSON response. Any status other than 200 fails with
// volstore.ErrAuthentication carrying the response body. There is one attempt
// per call.
func (c *Client) Authenticate(ctx context.Context, creds volstore.Credentials) (volstore.Token, error) {
	if err := creds.Validate(); err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}

	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	resp, err := c.transport.Do(ctx, httpx.Request{
		Method:      http.MethodPost,
		BaseURL:     c.endpoint,
		Body:        strings.NewReader(form.Encode()),
		ContentType: "application/x-www-form-urlencoded",
		Accept:      "application/json",
	})
	if err != nil {
		return "", httpx.Wrap(volstore.ErrAuthentication, "authenticate", "", err)
	}
	if err := httpx.Expect(resp, http.StatusOK); err != nil {
		return "", httpx.Wrap(volstore.ErrAuthentication, "authenticate", "", err)
	}

	var out tokenResponse
	if err := httpx.DecodeJSON(resp, &out); err != nil {
		return "", httpx.Wrap(volstore.ErrAuthentication, "authenticate", "", err)
	}

	token := volstore.Token(out.Token)
	if token.IsZero() {
		return "", &volstore.RemoteError{
			Kind:       volstore.ErrAuthentication,
			Op:         "authenticate",
			StatusCode: http.StatusOK,
			Body:       "response has no token",
		}
	}

	return token, nil
}
