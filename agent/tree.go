package agent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sagarc03/volstore"
)

// TreeOptions configures UploadTree.
type TreeOptions struct {
	// LocalDir is the directory to upload. It must exist.
	LocalDir string
	// RemotePrefix is the volume directory receiving the tree. Empty means
	// the volume root.
	RemotePrefix string
	// OnUpload, when set, is called after each file upload.
	OnUpload func(UploadResult)
}

// UploadResult describes one uploaded file.
type UploadResult struct {
	LocalPath string
	Entry     volstore.Entry
}

// UploadTree uploads every file and directory below opts.LocalDir into
// opts.RemotePrefix on vol. Directories are created parents first and each
// prefix is requested at most once per call. Symbolic links and other
// non-regular files are skipped.
//
// The walk stops at the first failure. The results gathered so far are
// returned with the error; nothing is rolled back.
func (c *Client) UploadTree(ctx context.Context, vol volstore.VolumeHandle, token volstore.Token, opts TreeOptions) ([]UploadResult, error) {
	prefix, err := volstore.ParseOptionalPath(opts.RemotePrefix)
	if err != nil {
		return nil, err
	}
	if err := checkVolume(ctx, vol); err != nil {
		return nil, err
	}

	info, err := os.Stat(opts.LocalDir)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("upload tree: %s is not a directory: %w", opts.LocalDir, volstore.ErrInvalidInput)
	}

	var results []UploadResult
	created := make(map[string]bool)

	walkErr := filepath.WalkDir(opts.LocalDir, func(localPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(opts.LocalDir, localPath)
		if err != nil {
			return fmt.Errorf("calculate relative path: %w", err)
		}

		remote := prefix
		if rel != "." {
			relPath, err := volstore.ParsePath(filepath.ToSlash(rel))
			if err != nil {
				return err
			}
			remote = prefix.Join(relPath)
		}

		if d.IsDir() {
			if remote.IsRoot() {
				return nil
			}
			_, err := c.ensurePlan(ctx, vol, token, remote.DirectoryPlan(), created)
			return err
		}

		if !d.Type().IsRegular() {
			slog.Debug("skipping non-regular file", "path", localPath)
			return nil
		}

		entry, err := c.uploadLocalFile(ctx, vol, token, localPath, remote, created)
		if err != nil {
			return err
		}

		result := UploadResult{LocalPath: localPath, Entry: entry}
		results = append(results, result)
		if opts.OnUpload != nil {
			opts.OnUpload(result)
		}
		return nil
	})
	if walkErr != nil {
		var pathErr *volstore.PathError
		var remoteErr *volstore.RemoteError
		if errors.As(walkErr, &pathErr) || errors.As(walkErr, &remoteErr) {
			return results, walkErr
		}
		return results, fmt.Errorf("walk directory: %w", walkErr)
	}

	return results, nil
}

func (c *Client) uploadLocalFile(ctx context.Context, vol volstore.VolumeHandle, token volstore.Token, localPath string, remote volstore.RelativePath, created map[string]bool) (volstore.Entry, error) {
	if parent, ok := remote.Parent(); ok {
		if _, err := c.ensurePlan(ctx, vol, token, parent.DirectoryPlan(), created); err != nil {
			return volstore.Entry{}, err
		}
	}

	file, err := os.Open(localPath) //#nosec G304 -- localPath comes from walking a user-provided directory
	if err != nil {
		return volstore.Entry{}, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return c.uploadFile(ctx, vol, token, remote, file)
}
