package volstore

import (
	"context"
	"io"
	"time"
)

// Volume is the registry record behind a VolumeHandle. It is kept by the
// storage service side (see the sandbox and database packages).
type Volume struct {
	ID        string            `json:"id"`
	OwnerKey  string            `json:"ownerKey"`
	Name      string            `json:"name"`
	Format    StorageFormat     `json:"storageFormat"`
	Tags      []string          `json:"storageTags,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created"`
}

// Handle returns the client-facing handle for the volume served at baseURL.
func (v Volume) Handle(baseURL string) VolumeHandle {
	return VolumeHandle{
		ID:       v.ID,
		BaseURL:  baseURL,
		OwnerKey: v.OwnerKey,
		Name:     v.Name,
		Format:   v.Format,
		Tags:     v.Tags,
	}
}

// VolumeQuery filters a volume search. Empty fields match everything.
// Page is zero-based; Length defaults to 100 and is capped at 1000.
type VolumeQuery struct {
	ID       string
	OwnerKey string
	Name     string
	Tag      string
	Page     int
	Length   int
}

// Page length bounds for VolumeQuery.
const (
	DefaultPageLength = 100
	MaxPageLength     = 1000
)

// Normalize applies the page defaults and bounds.
func (q VolumeQuery) Normalize() VolumeQuery {
	if q.Page < 0 {
		q.Page = 0
	}
	switch {
	case q.Length <= 0:
		q.Length = DefaultPageLength
	case q.Length > MaxPageLength:
		q.Length = MaxPageLength
	}
	return q
}

// Offset returns the number of rows skipped before the page.
func (q VolumeQuery) Offset() int {
	q = q.Normalize()
	return q.Page * q.Length
}

// VolumePage is one page of search results.
type VolumePage struct {
	Items []Volume `json:"resultList"`
	Total int64    `json:"totalCount"`
	Page  int      `json:"pageNumber"`
}

// VolumeRepo persists the volume registry.
// Implementations must handle concurrent access safely.
type VolumeRepo interface {
	// Create stores a new volume. The repo assigns ID and CreatedAt.
	// Volume names are not unique: creating twice yields two volumes.
	Create(ctx context.Context, v Volume) (Volume, error)

	// Get returns the volume with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (Volume, error)

	// Find returns the most recently created volume with the given owner and
	// name, or ErrNotFound.
	Find(ctx context.Context, ownerKey, name string) (Volume, error)

	// Search returns one page of volumes matching q, newest first.
	Search(ctx context.Context, q VolumeQuery) (VolumePage, error)
}

// VolumeStorage keeps the content of directory-backed volumes.
//
// Directories and files are never created implicitly: Mkdir and Write return
// ErrNotFound when the parent directory does not exist and ErrExists when the
// target already exists.
type VolumeStorage interface {
	// Init creates the empty root of a new volume.
	Init(ctx context.Context, volumeID string) error

	// Mkdir creates one directory.
	Mkdir(ctx context.Context, volumeID string, p RelativePath) (Entry, error)

	// Write creates one file from content.
	Write(ctx context.Context, volumeID string, p RelativePath, content io.Reader) (Entry, error)

	// Stat describes an entry; the root path describes the volume root.
	Stat(ctx context.Context, volumeID string, p RelativePath) (Entry, error)

	// List returns the children of a directory, or the entry itself for a file.
	List(ctx context.Context, volumeID string, p RelativePath) ([]Entry, error)

	// Open opens a file for reading. It returns ErrIsDirectory for directories.
	// The caller must close the returned reader.
	Open(ctx context.Context, volumeID string, p RelativePath) (io.ReadSeekCloser, Entry, error)
}
