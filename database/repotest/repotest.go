// Package repotest holds the behavior checks every volstore.VolumeRepo
// implementation must pass.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/sagarc03/volstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run runs the registry checks. newRepo must return an empty registry.
func Run(t *testing.T, newRepo func(t *testing.T) volstore.VolumeRepo) {
	t.Run("create and get", func(t *testing.T) {
		testCreateGet(t, newRepo(t))
	})
	t.Run("names are not unique", func(t *testing.T) {
		testDuplicateNames(t, newRepo(t))
	})
	t.Run("not found", func(t *testing.T) {
		testNotFound(t, newRepo(t))
	})
	t.Run("search", func(t *testing.T) {
		testSearch(t, newRepo(t))
	})
	t.Run("concurrent create", func(t *testing.T) {
		testConcurrentCreate(t, newRepo(t))
	})
}

func testCreateGet(t *testing.T, repo volstore.VolumeRepo) {
	ctx := context.Background()

	created, err := repo.Create(ctx, volstore.Volume{
		OwnerKey: "user:alice",
		Name:     "scratch",
		Format:   volstore.FormatDataDirectory,
		Tags:     []string{"lab", "tmp"},
		Metadata: map[string]string{"project": "fly"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "user:alice", got.OwnerKey)
	assert.Equal(t, "scratch", got.Name)
	assert.Equal(t, volstore.FormatDataDirectory, got.Format)
	assert.Equal(t, []string{"lab", "tmp"}, got.Tags)
	assert.Equal(t, map[string]string{"project": "fly"}, got.Metadata)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt), "created %v, got %v", created.CreatedAt, got.CreatedAt)

	bare, err := repo.Create(ctx, volstore.Volume{OwnerKey: "user:alice", Name: "bare", Format: volstore.FormatDataDirectory})
	require.NoError(t, err)

	got, err = repo.Get(ctx, bare.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Tags)
	assert.Nil(t, got.Metadata)
}

func testDuplicateNames(t *testing.T, repo volstore.VolumeRepo) {
	ctx := context.Background()

	first, err := repo.Create(ctx, volstore.Volume{OwnerKey: "user:bob", Name: "data", Format: volstore.FormatDataDirectory})
	require.NoError(t, err)
	second, err := repo.Create(ctx, volstore.Volume{OwnerKey: "user:bob", Name: "data", Format: volstore.FormatDataDirectory})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	found, err := repo.Find(ctx, "user:bob", "data")
	require.NoError(t, err)
	assert.Equal(t, second.ID, found.ID)
}

func testNotFound(t *testing.T, repo volstore.VolumeRepo) {
	ctx := context.Background()

	_, err := repo.Get(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, volstore.ErrNotFound)

	_, err = repo.Find(ctx, "user:nobody", "nothing")
	assert.ErrorIs(t, err, volstore.ErrNotFound)

	page, err := repo.Search(ctx, volstore.VolumeQuery{OwnerKey: "user:nobody"})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)
}

func testSearch(t *testing.T, repo volstore.VolumeRepo) {
	ctx := context.Background()

	var ids []string
	for i := range 5 {
		tags := []string{"even"}
		if i%2 == 1 {
			tags = []string{"odd"}
		}
		v, err := repo.Create(ctx, volstore.Volume{
			OwnerKey: "user:carol",
			Name:     fmt.Sprintf("vol-%d", i),
			Format:   volstore.FormatDataDirectory,
			Tags:     tags,
		})
		require.NoError(t, err)
		ids = append(ids, v.ID)
	}
	_, err := repo.Create(ctx, volstore.Volume{OwnerKey: "user:dave", Name: "vol-0", Format: volstore.FormatDataDirectory})
	require.NoError(t, err)

	t.Run("by owner newest first", func(t *testing.T) {
		page, err := repo.Search(ctx, volstore.VolumeQuery{OwnerKey: "user:carol"})
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Total)
		require.Len(t, page.Items, 5)
		assert.Equal(t, ids[4], page.Items[0].ID)
		assert.Equal(t, ids[0], page.Items[4].ID)
	})

	t.Run("by name", func(t *testing.T) {
		page, err := repo.Search(ctx, volstore.VolumeQuery{Name: "vol-0"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("by tag", func(t *testing.T) {
		page, err := repo.Search(ctx, volstore.VolumeQuery{OwnerKey: "user:carol", Tag: "odd"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
		for _, v := range page.Items {
			assert.Equal(t, []string{"odd"}, v.Tags)
		}
	})

	t.Run("by id", func(t *testing.T) {
		page, err := repo.Search(ctx, volstore.VolumeQuery{ID: ids[2]})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "vol-2", page.Items[0].Name)
	})

	t.Run("pages", func(t *testing.T) {
		first, err := repo.Search(ctx, volstore.VolumeQuery{OwnerKey: "user:carol", Length: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), first.Total)
		assert.Equal(t, 0, first.Page)
		require.Len(t, first.Items, 2)
		assert.Equal(t, ids[4], first.Items[0].ID)

		last, err := repo.Search(ctx, volstore.VolumeQuery{OwnerKey: "user:carol", Length: 2, Page: 2})
		require.NoError(t, err)
		assert.Equal(t, 2, last.Page)
		require.Len(t, last.Items, 1)
		assert.Equal(t, ids[0], last.Items[0].ID)

		past, err := repo.Search(ctx, volstore.VolumeQuery{OwnerKey: "user:carol", Length: 2, Page: 9})
		require.NoError(t, err)
		assert.Empty(t, past.Items)
		assert.Equal(t, int64(5), past.Total)
	})
}

func testConcurrentCreate(t *testing.T, repo volstore.VolumeRepo) {
	ctx := context.Background()
	const n = 20

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, volstore.Volume{
				OwnerKey: "user:erin",
				Name:     fmt.Sprintf("c-%d", i),
				Format:   volstore.FormatDataDirectory,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	page, err := repo.Search(ctx, volstore.VolumeQuery{OwnerKey: "user:erin"})
	require.NoError(t, err)
	assert.Equal(t, int64(n), page.Total)
}
