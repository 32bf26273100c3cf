package agent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/internal/httpx"
)

// EnsureDirectory creates relPath and every missing ancestor on vol.
//
// For a path of n segments exactly n creation requests are issued, one per
// cumulative prefix in increasing depth. The first rejected prefix aborts the
// operation with volstore.ErrDirectoryCreation; the returned *RemoteError
// names that prefix in its Path field. A malformed relPath fails with
// volstore.ErrInvalidPath before any request is made.
//
// The returned entry describes the deepest directory.
func (c *Client) EnsureDirectory(ctx context.Context, vol volstore.VolumeHandle, token volstore.Token, relPath string) (volstore.Entry, error) {
	p, err := volstore.ParsePath(relPath)
	if err != nil {
		return volstore.Entry{}, err
	}
	if err := checkVolume(ctx, vol); err != nil {
		return volstore.Entry{}, err
	}

	return c.ensurePlan(ctx, vol, token, p.DirectoryPlan(), nil)
}

// ensurePlan creates every prefix of plan not already in done, and records
// the created ones in done when it is non-nil.
func (c *Client) ensurePlan(ctx context.Context, vol volstore.VolumeHandle, token volstore.Token, plan volstore.DirectoryPlan, done map[string]bool) (volstore.Entry, error) {
	slog.Debug("materialize directory", "volume", vol.ID, "prefixes", plan.Strings(), "policy", c.policy)

	var last volstore.Entry
	for _, prefix := range plan {
		key := prefix.String()
		if done != nil && done[key] {
			last = volstore.Entry{VolumeID: vol.ID, Path: key, Directory: true}
			continue
		}

		entry, err := c.createDirectory(ctx, vol, token, prefix)
		if err != nil {
			return volstore.Entry{}, err
		}
		if done != nil {
			done[key] = true
		}
		last = entry
	}
	return last, nil
}

func (c *Client) createDirectory(ctx context.Context, vol volstore.VolumeHandle, token volstore.Token, p volstore.RelativePath) (volstore.Entry, error) {
	const op = "ensure directory"

	resp, err := c.transport.Do(ctx, httpx.Request{
		Method:   http.MethodPost,
		BaseURL:  vol.BaseURL,
		Segments: endpoint(vol, "directory", p),
		Token:    token,
		Accept:   "application/json",
	})
	if err != nil {
		return volstore.Entry{}, httpx.Wrap(volstore.ErrDirectoryCreation, op, p.String(), err)
	}
	if err := httpx.Expect(resp, c.directoryAccepted()...); err != nil {
		return volstore.Entry{}, httpx.Wrap(volstore.ErrDirectoryCreation, op, p.String(), err)
	}

	entry := volstore.Entry{VolumeID: vol.ID, Path: p.String(), Directory: true}
	if resp.StatusCode != http.StatusCreated {
		slog.Debug("directory already exists", "volume", vol.ID, "path", p.String(), "status", resp.StatusCode)
		httpx.Discard(resp)
		if err := c.checkDirectory(ctx, vol, token, p); err != nil {
			return volstore.Entry{}, &volstore.RemoteError{
				Kind:       volstore.ErrDirectoryCreation,
				Op:         op,
				Path:       p.String(),
				StatusCode: resp.StatusCode,
				Err:        err,
			}
		}
		return entry, nil
	}
	if err := decodeEntry(resp, &entry); err != nil {
		return volstore.Entry{}, httpx.Wrap(volstore.ErrDirectoryCreation, op, p.String(), err)
	}
	return entry, nil
}

// checkDirectory lists p once and fails when the agent reports p itself as
// a file. A tolerated "already exists" answer does not say what exists.
func (c *Client) checkDirectory(ctx context.Context, vol volstore.VolumeHandle, token volstore.Token, p volstore.RelativePath) error {
	entries, err := c.List(ctx, vol, token, p.String())
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Directory {
			continue
		}
		if ep, err := volstore.ParsePath(e.Path); err == nil && ep.Equal(p) {
			return fmt.Errorf("%q is a file: %w", p, volstore.ErrNotDirectory)
		}
	}
	return nil
}

// EnsureFile creates the file relPath on vol with the bytes read from content.
//
// When relPath has a parent directory it is materialized first with
// EnsureDirectory semantics; a file at the volume root needs no directory
// requests. The upload itself never creates directories. content is
// streamed, not buffered. Only 201 Created is success; anything else fails
// with volstore.ErrFileUpload.
func (c *Client) EnsureFile(ctx context.Context, vol volstore.VolumeHandle, token volstore.Token, relPath string, content io.Reader) (volstore.Entry, error) {
	p, err := volstore.ParsePath(relPath)
	if err != nil {
		return volstore.Entry{}, err
	}
	if err := checkVolume(ctx, vol); err != nil {
		return volstore.Entry{}, err
	}

	if parent, ok := p.Parent(); ok {
		if _, err := c.ensurePlan(ctx, vol, token, parent.DirectoryPlan(), nil); err != nil {
			return volstore.Entry{}, err
		}
	}

	return c.uploadFile(ctx, vol, token, p, content)
}

// EnsureFileBytes is EnsureFile for in-memory content.
func (c *Client) EnsureFileBytes(ctx context.Context, vol volstore.VolumeHandle, token volstore.Token, relPath string, content []byte) (volstore.Entry, error) {
	return c.EnsureFile(ctx, vol, token, relPath, bytes.NewReader(content))
}

func (c *Client) uploadFile(ctx context.Context, vol volstore.VolumeHandle, token volstore.Token, p volstore.RelativePath, content io.Reader) (volstore.Entry, error) {
	const op = "upload file"

	if content == nil {
		content = http.NoBody
	}

	resp, err := c.transport.Do(ctx, httpx.Request{
		Method:      http.MethodPost,
		BaseURL:     vol.BaseURL,
		Segments:    endpoint(vol, "file", p),
		Token:       token,
		Body:        content,
		ContentType: "application/octet-stream",
		Accept:      "application/json",
	})
	if err != nil {
		return volstore.Entry{}, httpx.Wrap(volstore.ErrFileUpload, op, p.String(), err)
	}
	if err := httpx.Expect(resp, http.StatusCreated); err != nil {
		return volstore.Entry{}, httpx.Wrap(volstore.ErrFileUpload, op, p.String(), err)
	}

	entry := volstore.Entry{VolumeID: vol.ID, Path: p.String()}
	if err := decodeEntry(resp, &entry); err != nil {
		return volstore.Entry{}, httpx.Wrap(volstore.ErrFileUpload, op, p.String(), err)
	}
	return entry, nil
}
