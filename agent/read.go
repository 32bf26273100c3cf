package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/internal/httpx"
)

// List returns the entries under entryPath. An empty entryPath (or "/")
// lists the volume root. Failures are reported as volstore.ErrListing.
func (c *Client) List(ctx context.Context, vol volstore.VolumeHandle, token volstore.Token, entryPath string) ([]volstore.Entry, error) {
	const op = "list"

	p, err := volstore.ParseOptionalPath(entryPath)
	if err != nil {
		return nil, err
	}
	if err := checkVolume(ctx, vol); err != nil {
		return nil, err
	}

	query := url.Values{}
	if !p.IsRoot() {
		query.Set("entry", p.String())
	}

	resp, err := c.transport.Do(ctx, httpx.Request{
		Method:   http.MethodGet,
		BaseURL:  vol.BaseURL,
		Segments: []string{"agent_storage", vol.ID, "list"},
		Query:    query,
		Token:    token,
		Accept:   "application/json",
	})
	if err != nil {
		return nil, httpx.Wrap(volstore.ErrListing, op, p.String(), err)
	}
	if err := httpx.Expect(resp, http.StatusOK); err != nil {
		return nil, httpx.Wrap(volstore.ErrListing, op, p.String(), err)
	}

	var entries []volstore.Entry
	if err := httpx.DecodeJSON(resp, &entries); err != nil {
		return nil, httpx.Wrap(volstore.ErrListing, op, p.String(), err)
	}
	if entries == nil {
		entries = []volstore.Entry{}
	}
	return entries, nil
}

// OpenContent starts reading the raw content of entryPath. The caller must
// close the returned reader. Whether a directory entry can be read is left
// to the agent. Failures are reported as volstore.ErrContentRead.
func (c *Client) OpenContent(ctx context.Context, vol volstore.VolumeHandle, token volstore.Token, entryPath string) (io.ReadCloser, error) {
	const op = "read content"

	p, err := volstore.ParsePath(entryPath)
	if err != nil {
		return nil, err
	}
	if err := checkVolume(ctx, vol); err != nil {
		return nil, err
	}

	resp, err := c.transport.Do(ctx, httpx.Request{
		Method:   http.MethodGet,
		BaseURL:  vol.BaseURL,
		Segments: endpoint(vol, "entry_content", p),
		Token:    token,
	})
	if err != nil {
		return nil, httpx.Wrap(volstore.ErrContentRead, op, p.String(), err)
	}
	if err := httpx.Expect(resp, http.StatusOK); err != nil {
		return nil, httpx.Wrap(volstore.ErrContentRead, op, p.String(), err)
	}

	return &contentReader{body: resp.Body, path: p.String()}, nil
}

// ReadContent returns the raw content of entryPath.
func (c *Client) ReadContent(ctx context.Context, vol volstore.VolumeHandle, token volstore.Token, entryPath string) ([]byte, error) {
	rc, err := c.OpenContent(ctx, vol, token, entryPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	return io.ReadAll(rc)
}

// Download copies the content of entryPath into w and returns the number of
// bytes written.
func (c *Client) Download(ctx context.Context, vol volstore.VolumeHandle, token volstore.Token, entryPath string, w io.Writer) (int64, error) {
	rc, err := c.OpenContent(ctx, vol, token, entryPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()

	n, err := io.Copy(w, rc)
	if err != nil {
		return n, fmt.Errorf("download %s: %w", entryPath, err)
	}
	return n, nil
}

// contentReader classifies read failures of a streamed body.
type contentReader struct {
	body io.ReadCloser
	path string
}

func (r *contentReader) Read(p []byte) (int, error) {
	n, err := r.body.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, httpx.Wrap(volstore.ErrContentRead, "read content", r.path, err)
	}
	return n, err
}

func (r *contentReader) Close() error {
	return r.body.Close()
}
