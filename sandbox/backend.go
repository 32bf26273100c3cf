package sandbox

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/database"
	"github.com/sagarc03/volstore/filesystem"
)

// Backend bundles the volume registry and the volume storage the service
// runs on.
type Backend struct {
	Repo    volstore.VolumeRepo
	Storage volstore.VolumeStorage

	closers []func() error
}

// OpenBackend connects the registry described by db and opens storagePath
// as the storage root, creating it if needed.
func OpenBackend(ctx context.Context, db database.Config, storagePath string) (*Backend, error) {
	repo, closeDB, err := database.Connect(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	b := &Backend{Repo: repo, closers: []func() error{closeDB}}

	if err := os.MkdirAll(storagePath, 0o750); err != nil {
		return nil, multierror.Append(fmt.Errorf("open backend: create storage directory: %w", err), b.Close())
	}

	root, err := os.OpenRoot(storagePath)
	if err != nil {
		return nil, multierror.Append(fmt.Errorf("open backend: open storage root: %w", err), b.Close())
	}
	b.Storage = filesystem.NewFileStorage(root)
	b.closers = append(b.closers, root.Close)

	return b, nil
}

// Close releases the storage root and the registry connection. Every
// resource is closed even when an earlier one fails.
func (b *Backend) Close() error {
	var result *multierror.Error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	b.closers = nil
	return result.ErrorOrNil()
}
