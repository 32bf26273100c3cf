// Package filesystem provides directory-backed volume storage. Every volume
// is one directory below a sandboxed root. Files are written to a temp file
// first and linked into place, so a file never appears half written and an
// existing file is never replaced.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sagarc03/volstore"
)

const tmpDir = ".tmp"

// Store keeps volume content on the local file system.
type Store struct {
	root *os.Root
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Init creates the empty root directory of a volume.
func (s *Store) Init(ctx context.Context, volumeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validVolumeID(volumeID) {
		return fmt.Errorf("init volume %q: %w", volumeID, volstore.ErrInvalidInput)
	}

	if err := s.root.Mkdir(volumeID, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("init volume %q: %w", volumeID, volstore.ErrExists)
		}
		return fmt.Errorf("init volume %q: %w", volumeID, err)
	}
	return nil
}

// Mkdir creates one directory. The parent must already exist.
func (s *Store) Mkdir(ctx context.Context, volumeID string, p volstore.RelativePath) (volstore.Entry, error) {
	if err := ctx.Err(); err != nil {
		return volstore.Entry{}, err
	}
	if p.IsRoot() {
		return volstore.Entry{}, fmt.Errorf("mkdir volume root: %w", volstore.ErrExists)
	}
	if err := s.checkParent(volumeID, p); err != nil {
		return volstore.Entry{}, fmt.Errorf("mkdir %q: %w", p, err)
	}

	if err := s.root.Mkdir(s.fullPath(volumeID, p), 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			if info, statErr := s.root.Stat(s.fullPath(volumeID, p)); statErr == nil && !info.IsDir() {
				return volstore.Entry{}, fmt.Errorf("mkdir %q: %w", p, volstore.ErrNotDirectory)
			}
			return volstore.Entry{}, fmt.Errorf("mkdir %q: %w", p, volstore.ErrExists)
		}
		return volstore.Entry{}, fmt.Errorf("mkdir %q: %w", p, err)
	}

	return volstore.Entry{VolumeID: volumeID, Path: p.String(), Directory: true}, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write stores content as a new file. The parent directory must exist and
// the target must not. The operation respects context cancellation.
func (s *Store) Write(ctx context.Context, volumeID string, p volstore.RelativePath, content io.Reader) (volstore.Entry, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return volstore.Entry{}, ctxErr
	}
	if p.IsRoot() {
		return volstore.Entry{}, fmt.Errorf("write volume root: %w", volstore.ErrInvalidInput)
	}
	if err := s.checkParent(volumeID, p); err != nil {
		return volstore.Entry{}, fmt.Errorf("write %q: %w", p, err)
	}

	target := s.fullPath(volumeID, p)
	if _, err := s.root.Lstat(target); err == nil {
		return volstore.Entry{}, fmt.Errorf("write %q: %w", p, volstore.ErrExists)
	}

	if err := s.root.MkdirAll(tmpDir, 0o700); err != nil {
		return volstore.Entry{}, fmt.Errorf("could not create temp directory: %w", err)
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return volstore.Entry{}, fmt.Errorf("could not open temp file: %w", createErr)
	}

	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if rmErr := s.root.Remove(tmpFile); rmErr != nil {
			slog.Warn("failed to remove tmp file", "err", rmErr)
		}
	}()

	size, err := io.Copy(t, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return volstore.Entry{}, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return volstore.Entry{}, fmt.Errorf("could not sync written file: %w", err)
	}

	if err := s.root.Link(tmpFile, target); err != nil {
		if errors.Is(err, os.ErrExist) {
			return volstore.Entry{}, fmt.Errorf("write %q: %w", p, volstore.ErrExists)
		}
		return volstore.Entry{}, fmt.Errorf("failed to link file: %w", err)
	}

	return volstore.Entry{
		VolumeID: volumeID,
		Path:     p.String(),
		Size:     size,
		MimeType: detectContentType(p.String()),
	}, nil
}

// Stat describes one entry. The root path describes the volume root.
func (s *Store) Stat(ctx context.Context, volumeID string, p volstore.RelativePath) (volstore.Entry, error) {
	if err := ctx.Err(); err != nil {
		return volstore.Entry{}, err
	}
	if !validVolumeID(volumeID) {
		return volstore.Entry{}, fmt.Errorf("stat volume %q: %w", volumeID, volstore.ErrNotFound)
	}

	info, err := s.root.Stat(s.fullPath(volumeID, p))
	if err != nil {
		return volstore.Entry{}, fmt.Errorf("stat %q: %w", p, notFound(err))
	}
	return newEntry(volumeID, p.String(), info), nil
}

// List returns the children of a directory sorted by name, or the entry
// itself when p is a file.
func (s *Store) List(ctx context.Context, volumeID string, p volstore.RelativePath) ([]volstore.Entry, error) {
	entry, err := s.Stat(ctx, volumeID, p)
	if err != nil {
		return nil, err
	}
	if !entry.Directory {
		return []volstore.Entry{entry}, nil
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), path.Join(volumeID, p.String()))
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", p, notFound(err))
	}

	entries := make([]volstore.Entry, 0, len(dirEntries))
	for _, d := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := d.Info()
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", p, err)
		}
		entries = append(entries, newEntry(volumeID, path.Join(p.String(), d.Name()), info))
	}

	return entries, nil
}

// Open opens a file for reading. Returns volstore.ErrIsDirectory for
// directories and volstore.ErrNotFound for missing entries.
func (s *Store) Open(ctx context.Context, volumeID string, p volstore.RelativePath) (io.ReadSeekCloser, volstore.Entry, error) {
	entry, err := s.Stat(ctx, volumeID, p)
	if err != nil {
		return nil, volstore.Entry{}, err
	}
	if entry.Directory {
		return nil, volstore.Entry{}, fmt.Errorf("open %q: %w", p, volstore.ErrIsDirectory)
	}

	f, err := s.root.Open(s.fullPath(volumeID, p))
	if err != nil {
		return nil, volstore.Entry{}, fmt.Errorf("failed to open file: %w", notFound(err))
	}

	return f, entry, nil
}

func (s *Store) checkParent(volumeID string, p volstore.RelativePath) error {
	if !validVolumeID(volumeID) {
		return volstore.ErrNotFound
	}

	parent, _ := p.Parent()
	info, err := s.root.Stat(s.fullPath(volumeID, parent))
	if err != nil {
		return notFound(err)
	}
	if !info.IsDir() {
		return fmt.Errorf("parent is a file: %w", volstore.ErrNotFound)
	}
	return nil
}

func (s *Store) fullPath(volumeID string, p volstore.RelativePath) string {
	if p.IsRoot() {
		return volumeID
	}
	return filepath.Join(volumeID, filepath.FromSlash(p.String()))
}

func newEntry(volumeID, relPath string, info fs.FileInfo) volstore.Entry {
	if info.IsDir() {
		return volstore.Entry{VolumeID: volumeID, Path: relPath, Directory: true}
	}
	return volstore.Entry{
		VolumeID: volumeID,
		Path:     relPath,
		Size:     info.Size(),
		MimeType: detectContentType(relPath),
	}
}

func notFound(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return volstore.ErrNotFound
	}
	return err
}

// validVolumeID rejects ids that are not a single plain directory name.
func validVolumeID(id string) bool {
	return id != "" && !strings.HasPrefix(id, ".") && !strings.ContainsAny(id, `/\`)
}

func detectContentType(name string) string {
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}

func tmpFileName() string {
	return filepath.Join(tmpDir, fmt.Sprintf(".t%s", uuid.New().String()))
}
