// Package httpx holds the HTTP plumbing shared by the auth, provision and
// agent clients: URL construction from escaped path segments, bearer
// authorization, status checks and translation of failures into
// volstore.RemoteError values.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sagarc03/volstore"
)

// maxErrorBody bounds how much of an error response is kept for diagnostics.
const maxErrorBody = 64 << 10

// Client wraps an http.Client. It never retries.
type Client struct {
	httpClient *http.Client
}

// New returns a Client using h, or a fresh http.Client without timeout when h is nil.
func New(h *http.Client) *Client {
	if h == nil {
		h = &http.Client{}
	}
	return &Client{httpClient: h}
}

// Request describes a single outbound request.
type Request struct {
	Method string
	// BaseURL is an absolute URL; Segments are escaped and appended to its path.
	BaseURL     string
	Segments    []string
	Query       url.Values
	Token       volstore.Token
	Body        io.Reader
	ContentType string
	Accept      string
}

// BuildURL appends the escaped segments to base and attaches the query.
func BuildURL(base string, segments []string, q url.Values) (string, error) {
	if strings.TrimSpace(base) == "" {
		return "", errors.New("httpx: base URL is required")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("httpx: invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("httpx: base URL %q must be absolute", base)
	}

	if len(segments) > 0 {
		escaped := make([]string, len(segments))
		for i, seg := range segments {
			escaped[i] = url.PathEscape(seg)
		}
		u = u.JoinPath(escaped...)
	}
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Do sends the request and returns the response whatever its status.
// Only transport failures are returned as errors.
func (c *Client) Do(ctx context.Context, req Request) (*http.Response, error) {
	target, err := BuildURL(req.BaseURL, req.Segments, req.Query)
	if err != nil {
		return nil, err
	}

	body := req.Body
	if body == nil {
		body = http.NoBody
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if !req.Token.IsZero() {
		httpReq.Header.Set("Authorization", req.Token.Header())
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		slog.Debug("remote call failed", "method", req.Method, "url", target, "error", err)
		return nil, fmt.Errorf("do request: %w", err)
	}

	slog.Debug("remote call", "method", req.Method, "url", target, "status", resp.StatusCode)
	return resp, nil
}

// Expect returns nil when resp has one of the accepted status codes. Otherwise
// it consumes and closes the body and returns a *StatusError.
func Expect(resp *http.Response, accepted ...int) error {
	for _, code := range accepted {
		if resp.StatusCode == code {
			return nil
		}
	}

	defer closeBody(resp.Body)
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("read error body: %w", err)
	}
	return &StatusError{
		StatusCode: resp.StatusCode,
		Body:       string(bytes.TrimSpace(body)),
		Header:     resp.Header.Clone(),
	}
}

// DecodeJSON decodes the response body into v and closes it.
func DecodeJSON(resp *http.Response, v any) error {
	defer closeBody(resp.Body)
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// Discard drains and closes the response body so the connection can be reused.
func Discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	closeBody(resp.Body)
}

// JSONBody serializes v and returns a reader over it.
func JSONBody(v any) (io.Reader, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return buf, nil
}

func closeBody(rc io.ReadCloser) {
	if rc != nil {
		_ = rc.Close()
	}
}
