// Package agent materializes directories and files on a storage agent and
// reads them back.
//
// The agent has no recursive directory creation. EnsureDirectory therefore
// issues one creation request per cumulative prefix of the path, parents
// first, and stops at the first failure. Nothing is rolled back: a failed
// call may leave the shallower prefixes on the volume.
//
// Concurrent callers materializing overlapping paths on the same volume are
// not coordinated.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/internal/httpx"
)

// ExistingPolicy decides how a directory that already exists is treated.
type ExistingPolicy int

const (
	// ExistingFail accepts only 201 Created. Materializing a path that was
	// materialized before fails on its first prefix.
	ExistingFail ExistingPolicy = iota
	// ExistingTolerate also accepts 202 Accepted and 409 Conflict, which the
	// agent returns for a directory that is already there. A tolerated prefix
	// is listed once to make sure it is not a file.
	ExistingTolerate
)

func (p ExistingPolicy) String() string {
	switch p {
	case ExistingFail:
		return "fail"
	case ExistingTolerate:
		return "tolerate"
	default:
		return fmt.Sprintf("ExistingPolicy(%d)", int(p))
	}
}

// ParseExistingPolicy parses "fail" or "tolerate".
func ParseExistingPolicy(s string) (ExistingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail":
		return ExistingFail, nil
	case "tolerate":
		return ExistingTolerate, nil
	default:
		return ExistingFail, fmt.Errorf("unknown existing policy %q: %w", s, volstore.ErrInvalidInput)
	}
}

// Client talks to the storage agent addressed by a volume handle.
type Client struct {
	httpClient *http.Client
	transport  *httpx.Client
	policy     ExistingPolicy
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

// WithTimeout sets the HTTP client timeout. It bounds every request,
// including streaming uploads and downloads.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = timeout
		c.httpClient = &hc
	}
}

// WithExistingPolicy sets how existing directories are treated.
// The default is ExistingFail.
func WithExistingPolicy(policy ExistingPolicy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		policy:     ExistingFail,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.transport = httpx.New(c.httpClient)
	return c
}

// Policy returns the configured ExistingPolicy.
func (c *Client) Policy() ExistingPolicy {
	return c.policy
}

func (c *Client) directoryAccepted() []int {
	if c.policy == ExistingTolerate {
		return []int{http.StatusCreated, http.StatusAccepted, http.StatusConflict}
	}
	return []int{http.StatusCreated}
}

func endpoint(vol volstore.VolumeHandle, action string, p volstore.RelativePath) []string {
	return append([]string{"agent_storage", vol.ID, action}, p.Segments()...)
}

// decodeEntry fills entry from a JSON response body. An empty or non-JSON
// body leaves entry as is.
func decodeEntry(resp *http.Response, entry *volstore.Entry) error {
	defer func() { _ = resp.Body.Close() }()

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if strings.TrimSpace(string(body)) == "" {
		return nil
	}

	fallback := *entry
	if err := json.Unmarshal(body, entry); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if entry.VolumeID == "" {
		entry.VolumeID = fallback.VolumeID
	}
	if entry.Path == "" {
		entry.Path = fallback.Path
	}
	return nil
}

func checkVolume(ctx context.Context, vol volstore.VolumeHandle) error {
	if err := vol.Validate(); err != nil {
		return err
	}
	return ctx.Err()
}
