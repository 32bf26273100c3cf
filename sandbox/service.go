package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sagarc03/volstore"
)

// VolumeService implements the master and agent operations on top of a
// volume registry and volume storage.
type VolumeService struct {
	repo    volstore.VolumeRepo
	storage volstore.VolumeStorage
}

// NewVolumeService creates a VolumeService. Both backends are required.
func NewVolumeService(repo volstore.VolumeRepo, storage volstore.VolumeStorage) (*VolumeService, error) {
	if repo == nil {
		return nil, errors.New("new volume service: repo is required")
	}
	if storage == nil {
		return nil, errors.New("new volume service: storage is required")
	}
	return &VolumeService{repo: repo, storage: storage}, nil
}

// CreateVolume registers a new volume and creates its empty root.
//
// Only the DATA_DIRECTORY format is supported; an empty format defaults to
// it. Names are not unique, every call creates a new volume.
func (s *VolumeService) CreateVolume(ctx context.Context, v volstore.Volume) (volstore.Volume, error) {
	if err := ctx.Err(); err != nil {
		return volstore.Volume{}, fmt.Errorf("create volume: %w", err)
	}

	if strings.TrimSpace(v.OwnerKey) == "" {
		return volstore.Volume{}, fmt.Errorf("create volume: %w: owner key cannot be empty", volstore.ErrInvalidInput)
	}
	if strings.TrimSpace(v.Name) == "" {
		return volstore.Volume{}, fmt.Errorf("create volume: %w: name cannot be empty", volstore.ErrInvalidInput)
	}
	if strings.Contains(v.Name, "/") {
		return volstore.Volume{}, fmt.Errorf("create volume: %w: name cannot contain '/'", volstore.ErrInvalidInput)
	}

	switch v.Format {
	case "":
		v.Format = volstore.FormatDataDirectory
	case volstore.FormatDataDirectory:
	default:
		return volstore.Volume{}, fmt.Errorf("create volume: %w: unsupported storage format %q", volstore.ErrInvalidInput, v.Format)
	}

	created, err := s.repo.Create(ctx, v)
	if err != nil {
		return volstore.Volume{}, fmt.Errorf("create volume %s: %w", v.Name, err)
	}

	if err := s.storage.Init(ctx, created.ID); err != nil {
		return volstore.Volume{}, fmt.Errorf("create volume %s: init storage: %w", v.Name, err)
	}

	return created, nil
}

// GetVolume returns the volume with the given id.
func (s *VolumeService) GetVolume(ctx context.Context, id string) (volstore.Volume, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return volstore.Volume{}, fmt.Errorf("get volume %s: %w", id, err)
	}
	return v, nil
}

// FindVolume returns the newest volume with the given owner and name.
func (s *VolumeService) FindVolume(ctx context.Context, ownerKey, name string) (volstore.Volume, error) {
	v, err := s.repo.Find(ctx, ownerKey, name)
	if err != nil {
		return volstore.Volume{}, fmt.Errorf("find volume %s/%s: %w", ownerKey, name, err)
	}
	return v, nil
}

// SearchVolumes returns one page of volumes matching q.
func (s *VolumeService) SearchVolumes(ctx context.Context, q volstore.VolumeQuery) (volstore.VolumePage, error) {
	page, err := s.repo.Search(ctx, q.Normalize())
	if err != nil {
		return volstore.VolumePage{}, fmt.Errorf("search volumes: %w", err)
	}
	return page, nil
}

// Mkdir creates one directory inside a volume.
func (s *VolumeService) Mkdir(ctx context.Context, volumeID string, p volstore.RelativePath) (volstore.Entry, error) {
	return s.storage.Mkdir(ctx, volumeID, p)
}

// WriteFile creates one file inside a volume from content.
func (s *VolumeService) WriteFile(ctx context.Context, volumeID string, p volstore.RelativePath, content io.Reader) (volstore.Entry, error) {
	return s.storage.Write(ctx, volumeID, p, content)
}

// List returns the entries below p.
func (s *VolumeService) List(ctx context.Context, volumeID string, p volstore.RelativePath) ([]volstore.Entry, error) {
	return s.storage.List(ctx, volumeID, p)
}

// Open opens the content of a file. The caller must close the reader.
func (s *VolumeService) Open(ctx context.Context, volumeID string, p volstore.RelativePath) (io.ReadSeekCloser, volstore.Entry, error) {
	return s.storage.Open(ctx, volumeID, p)
}
