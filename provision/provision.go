// Package provision allocates directory-backed volumes on the storage
// master and looks up volumes that were allocated before.
package provision

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/internal/httpx"
)

// Client calls the storage master.
type Client struct {
	masterURL  string
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

// New creates a Client for the storage master at masterURL, e.g.
// "http://master.example.org/api". The storage endpoints live under
// masterURL + "/storage".
func New(masterURL string, opts ...Option) (*Client, error) {
	if _, err := httpx.BuildURL(masterURL, nil, nil); err != nil {
		return nil, fmt.Errorf("new provision client: %w", err)
	}

	c := &Client{
		masterURL:  masterURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.transport = httpx.New(c.httpClient)
	return c, nil
}

// AllocateRequest describes a volume to allocate. OwnerKey is conventionally
// volstore.OwnerKey(username).
type AllocateRequest struct {
	OwnerKey    string
	Name        string
	StorageTags []string
	Metadata    map[string]string
}

type allocateBody struct {
	OwnerKey      string                 `json:"ownerKey"`
	Name          string                 `json:"name"`
	StorageFormat volstore.StorageFormat `json:"storageFormat"`
	StorageTags   []string               `json:"storageTags,omitempty"`
	Metadata      map[string]string      `json:"metadata,omitempty"`
}

// Allocate creates a new volume. Only 201 Created is success; anything else
// fails with volstore.ErrAllocation carrying the response body. Every call
// creates a new volume, even for a name that is already in use.
func (c *Client) Allocate(ctx context.Context, token volstore.Token, req AllocateRequest) (volstore.VolumeHandle, error) {
	if strings.TrimSpace(req.OwnerKey) == "" {
		return volstore.VolumeHandle{}, fmt.Errorf("allocate: owner key is required: %w", volstore.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Name) == "" {
		return volstore.VolumeHandle{}, fmt.Errorf("allocate: volume name is required: %w", volstore.ErrInvalidInput)
	}
	if token.IsZero() {
		return volstore.VolumeHandle{}, fmt.Errorf("allocate: token is required: %w", volstore.ErrInvalidInput)
	}

	body, err := httpx.JSONBody(allocateBody{
		OwnerKey:      req.OwnerKey,
		Name:          req.Name,
		StorageFormat: volstore.FormatDataDirectory,
		StorageTags:   req.StorageTags,
		Metadata:      req.Metadata,
	})
	if err != nil {
		return volstore.VolumeHandle{}, httpx.Wrap(volstore.ErrAllocation, "allocate", "", err)
	}

	resp, err := c.transport.Do(ctx, httpx.Request{
		Method:      http.MethodPost,
		BaseURL:     c.masterURL,
		Segments:    []string{"storage"},
		Token:       token,
		Body:        body,
		ContentType: "application/json",
		Accept:      "application/json",
	})
	if err != nil {
		return volstore.VolumeHandle{}, httpx.Wrap(volstore.ErrAllocation, "allocate", "", err)
	}
	if err := httpx.Expect(resp, http.StatusCreated); err != nil {
		return volstore.VolumeHandle{}, httpx.Wrap(volstore.ErrAllocation, "allocate", "", err)
	}

	var out volumeResponse
	if err := httpx.DecodeJSON(resp, &out); err != nil {
		return volstore.VolumeHandle{}, httpx.Wrap(volstore.ErrAllocation, "allocate", "", err)
	}

	handle, err := out.handle()
	if err != nil {
		return volstore.VolumeHandle{}, httpx.Wrap(volstore.ErrAllocation, "allocate", "", err)
	}
	return handle, nil
}

// Get looks up a volume by id.
func (c *Client) Get(ctx context.Context, token volstore.Token, id string) (volstore.VolumeHandle, error) {
	if strings.TrimSpace(id) == "" {
		return volstore.VolumeHandle{}, fmt.Errorf("get volume: id is required: %w", volstore.ErrInvalidInput)
	}
	return c.lookup(ctx, token, "get volume", []string{"storage", id})
}

// Find looks up a volume by owner and name. When several volumes share the
// name the master decides which one is returned.
func (c *Client) Find(ctx context.Context, token volstore.Token, ownerKey, name string) (volstore.VolumeHandle, error) {
	if strings.TrimSpace(ownerKey) == "" || strings.TrimSpace(name) == "" {
		return volstore.VolumeHandle{}, fmt.Errorf("find volume: owner key and name are required: %w", volstore.ErrInvalidInput)
	}
	return c.lookup(ctx, token, "find volume", []string{"storage", ownerKey, name})
}

func (c *Client) lookup(ctx context.Context, token volstore.Token, op string, segments []string) (volstore.VolumeHandle, error) {
	resp, err := c.transport.Do(ctx, httpx.Request{
		Method:   http.MethodGet,
		BaseURL:  c.masterURL,
		Segments: segments,
		Token:    token,
		Accept:   "application/json",
	})
	if err != nil {
		return volstore.VolumeHandle{}, httpx.Wrap(volstore.ErrVolumeLookup, op, "", err)
	}
	if err := httpx.Expect(resp, http.StatusOK); err != nil {
		return volstore.VolumeHandle{}, httpx.Wrap(volstore.ErrVolumeLookup, op, "", err)
	}

	var out volumeResponse
	if err := httpx.DecodeJSON(resp, &out); err != nil {
		return volstore.VolumeHandle{}, httpx.Wrap(volstore.ErrVolumeLookup, op, "", err)
	}

	handle, err := out.handle()
	if err != nil {
		return volstore.VolumeHandle{}, httpx.Wrap(volstore.ErrVolumeLookup, op, "", err)
	}
	return handle, nil
}

// SearchQuery filters a volume search. Empty fields are not sent.
type SearchQuery struct {
	ID          string
	OwnerKey    string
	Name        string
	StorageTags string
	// Page is zero-based.
	Page   int
	Length int
}

func (q SearchQuery) values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("id", q.ID)
	set("ownerKey", q.OwnerKey)
	set("name", q.Name)
	set("storageTags", q.StorageTags)
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Length > 0 {
		v.Set("length", strconv.Itoa(q.Length))
	}
	return v
}

// SearchResult is one page of matching volumes.
type SearchResult struct {
	Items []volstore.VolumeHandle
	Total int64
	Page  int
}

type searchResponse struct {
	ResultList []volumeResponse `json:"resultList"`
	TotalCount int64            `json:"totalCount"`
	PageNumber int              `json:"pageNumber"`
}

// Search returns one page of volumes matching q.
func (c *Client) Search(ctx context.Context, token volstore.Token, q SearchQuery) (*SearchResult, error) {
	resp, err := c.transport.Do(ctx, httpx.Request{
		Method:   http.MethodGet,
		BaseURL:  c.masterURL,
		Segments: []string{"storage"},
		Query:    q.values(),
		Token:    token,
		Accept:   "application/json",
	})
	if err != nil {
		return nil, httpx.Wrap(volstore.ErrVolumeLookup, "search volumes", "", err)
	}
	if err := httpx.Expect(resp, http.StatusOK); err != nil {
		return nil, httpx.Wrap(volstore.ErrVolumeLookup, "search volumes", "", err)
	}

	var out searchResponse
	if err := httpx.DecodeJSON(resp, &out); err != nil {
		return nil, httpx.Wrap(volstore.ErrVolumeLookup, "search volumes", "", err)
	}

	result := &SearchResult{
		Items: make([]volstore.VolumeHandle, 0, len(out.ResultList)),
		Total: out.TotalCount,
		Page:  out.PageNumber,
	}
	for _, item := range out.ResultList {
		handle, err := item.handle()
		if err != nil {
			return nil, httpx.Wrap(volstore.ErrVolumeLookup, "search volumes", "", err)
		}
		result.Items = append(result.Items, handle)
	}
	return result, nil
}
