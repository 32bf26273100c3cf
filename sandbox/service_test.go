package sandbox_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type SpyVolumeRepo struct {
	mock.Mock
}

func (s *SpyVolumeRepo) Create(ctx context.Context, v volstore.Volume) (volstore.Volume, error) {
	args := s.Called(ctx, v)
	return args.Get(0).(volstore.Volume), args.Error(1)
}

func (s *SpyVolumeRepo) Get(ctx context.Context, id string) (volstore.Volume, error) {
	args := s.Called(ctx, id)
	return args.Get(0).(volstore.Volume), args.Error(1)
}

func (s *SpyVolumeRepo) Find(ctx context.Context, ownerKey, name string) (volstore.Volume, error) {
	args := s.Called(ctx, ownerKey, name)
	return args.Get(0).(volstore.Volume), args.Error(1)
}

func (s *SpyVolumeRepo) Search(ctx context.Context, q volstore.VolumeQuery) (volstore.VolumePage, error) {
	args := s.Called(ctx, q)
	return args.Get(0).(volstore.VolumePage), args.Error(1)
}

type SpyVolumeStorage struct {
	mock.Mock
}

func (s *SpyVolumeStorage) Init(ctx context.Context, volumeID string) error {
	return s.Called(ctx, volumeID).Error(0)
}

func (s *SpyVolumeStorage) Mkdir(ctx context.Context, volumeID string, p volstore.RelativePath) (volstore.Entry, error) {
	args := s.Called(ctx, volumeID, p)
	return args.Get(0).(volstore.Entry), args.Error(1)
}

func (s *SpyVolumeStorage) Write(ctx context.Context, volumeID string, p volstore.RelativePath, content io.Reader) (volstore.Entry, error) {
	args := s.Called(ctx, volumeID, p, content)
	return args.Get(0).(volstore.Entry), args.Error(1)
}

func (s *SpyVolumeStorage) Stat(ctx context.Context, volumeID string, p volstore.RelativePath) (volstore.Entry, error) {
	args := s.Called(ctx, volumeID, p)
	return args.Get(0).(volstore.Entry), args.Error(1)
}

func (s *SpyVolumeStorage) List(ctx context.Context, volumeID string, p volstore.RelativePath) ([]volstore.Entry, error) {
	args := s.Called(ctx, volumeID, p)
	return args.Get(0).([]volstore.Entry), args.Error(1)
}

func (s *SpyVolumeStorage) Open(ctx context.Context, volumeID string, p volstore.RelativePath) (io.ReadSeekCloser, volstore.Entry, error) {
	args := s.Called(ctx, volumeID, p)
	return args.Get(0).(io.ReadSeekCloser), args.Get(1).(volstore.Entry), args.Error(2)
}

func newSpyService(t *testing.T) (*sandbox.VolumeService, *SpyVolumeRepo, *SpyVolumeStorage) {
	t.Helper()

	repo := new(SpyVolumeRepo)
	storage := new(SpyVolumeStorage)
	service, err := sandbox.NewVolumeService(repo, storage)
	require.NoError(t, err)
	return service, repo, storage
}

func TestNewVolumeService_RequiresBackends(t *testing.T) {
	_, err := sandbox.NewVolumeService(nil, new(SpyVolumeStorage))
	assert.Error(t, err)

	_, err = sandbox.NewVolumeService(new(SpyVolumeRepo), nil)
	assert.Error(t, err)
}

func TestVolumeService_CreateVolume(t *testing.T) {
	ctx := context.Background()

	t.Run("registers and initializes", func(t *testing.T) {
		service, repo, storage := newSpyService(t)

		repo.On("Create", ctx, volstore.Volume{
			OwnerKey: "user:alice",
			Name:     "data",
			Format:   volstore.FormatDataDirectory,
		}).Return(aliceVolume, nil)
		storage.On("Init", ctx, "v1").Return(nil)

		got, err := service.CreateVolume(ctx, volstore.Volume{OwnerKey: "user:alice", Name: "data"})
		require.NoError(t, err)
		assert.Equal(t, aliceVolume, got)

		repo.AssertExpectations(t)
		storage.AssertExpectations(t)
	})

	t.Run("init failure", func(t *testing.T) {
		service, repo, storage := newSpyService(t)

		repo.On("Create", ctx, mock.Anything).Return(aliceVolume, nil)
		storage.On("Init", ctx, "v1").Return(errors.New("disk full"))

		_, err := service.CreateVolume(ctx, volstore.Volume{OwnerKey: "user:alice", Name: "data"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "init storage")
	})

	invalid := []struct {
		name string
		vol  volstore.Volume
	}{
		{name: "no owner", vol: volstore.Volume{Name: "data"}},
		{name: "no name", vol: volstore.Volume{OwnerKey: "user:alice", Name: "  "}},
		{name: "slash in name", vol: volstore.Volume{OwnerKey: "user:alice", Name: "a/b"}},
		{name: "unsupported format", vol: volstore.Volume{OwnerKey: "user:alice", Name: "data", Format: "N5"}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, _ := newSpyService(t)

			_, err := service.CreateVolume(ctx, tt.vol)
			require.ErrorIs(t, err, volstore.ErrInvalidInput)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}

	t.Run("cancelled context", func(t *testing.T) {
		service, repo, _ := newSpyService(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := service.CreateVolume(cancelled, volstore.Volume{OwnerKey: "user:alice", Name: "data"})
		require.ErrorIs(t, err, context.Canceled)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestVolumeService_Lookups(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newSpyService(t)

	repo.On("Get", ctx, "missing").Return(volstore.Volume{}, volstore.ErrNotFound)
	repo.On("Find", ctx, "user:alice", "data").Return(aliceVolume, nil)
	repo.On("Search", ctx, volstore.VolumeQuery{Name: "data", Length: volstore.DefaultPageLength}).
		Return(volstore.VolumePage{Items: []volstore.Volume{aliceVolume}, Total: 1}, nil)

	_, err := service.GetVolume(ctx, "missing")
	assert.ErrorIs(t, err, volstore.ErrNotFound)

	got, err := service.FindVolume(ctx, "user:alice", "data")
	require.NoError(t, err)
	assert.Equal(t, "v1", got.ID)

	page, err := service.SearchVolumes(ctx, volstore.VolumeQuery{Name: "data"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	repo.AssertExpectations(t)
}
