package agent_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string, dirs ...string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o750))
	}
	return root
}

func TestClient_UploadTree(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads files and directories once each", func(t *testing.T) {
		fa, vol := newFakeAgent(t)
		local := writeTree(t, map[string]string{
			"a/1.txt":   "one",
			"a/b/2.txt": "two",
			"top.txt":   "top",
		}, "e")

		var seen []string
		results, err := agent.New().UploadTree(ctx, vol, testToken, agent.TreeOptions{
			LocalDir:     local,
			RemotePrefix: "run",
			OnUpload: func(r agent.UploadResult) {
				seen = append(seen, r.Entry.Path)
			},
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"run", "run/a", "run/a/b", "run/e"}, fa.CallPaths("directory"))
		assert.Equal(t, []string{"run/a/1.txt", "run/a/b/2.txt", "run/top.txt"}, fa.CallPaths("file"))
		assert.Equal(t, []string{"run/a/1.txt", "run/a/b/2.txt", "run/top.txt"}, seen)

		require.Len(t, results, 3)
		assert.Equal(t, filepath.Join(local, "a", "1.txt"), results[0].LocalPath)
		assert.Equal(t, int64(3), results[0].Entry.Size)
		assert.Equal(t, []byte("two"), fa.File("run/a/b/2.txt"))
	})

	t.Run("volume root", func(t *testing.T) {
		fa, vol := newFakeAgent(t)
		local := writeTree(t, map[string]string{"x/y.txt": "y", "z.txt": "z"})

		results, err := agent.New().UploadTree(ctx, vol, testToken, agent.TreeOptions{LocalDir: local})
		require.NoError(t, err)
		assert.Len(t, results, 2)
		assert.Equal(t, []string{"x"}, fa.CallPaths("directory"))
		assert.Equal(t, []string{"x/y.txt", "z.txt"}, fa.CallPaths("file"))
	})

	t.Run("stops at first failure", func(t *testing.T) {
		fa, vol := newFakeAgent(t)
		fa.fail["file:a/2.txt"] = http.StatusInsufficientStorage
		local := writeTree(t, map[string]string{"a/1.txt": "1", "a/2.txt": "2", "a/3.txt": "3"})

		results, err := agent.New().UploadTree(ctx, vol, testToken, agent.TreeOptions{LocalDir: local})
		require.ErrorIs(t, err, volstore.ErrFileUpload)
		require.Len(t, results, 1)
		assert.Equal(t, "a/1.txt", results[0].Entry.Path)
		assert.Equal(t, []string{"a/1.txt", "a/2.txt"}, fa.CallPaths("file"))
	})

	t.Run("existing prefix with fail policy", func(t *testing.T) {
		_, vol := newFakeAgent(t)
		client := agent.New()
		_, err := client.EnsureDirectory(ctx, vol, testToken, "run")
		require.NoError(t, err)

		local := writeTree(t, map[string]string{"f.txt": "f"})
		_, err = client.UploadTree(ctx, vol, testToken, agent.TreeOptions{LocalDir: local, RemotePrefix: "run"})
		assert.ErrorIs(t, err, volstore.ErrDirectoryCreation)

		tolerant := agent.New(agent.WithExistingPolicy(agent.ExistingTolerate))
		results, err := tolerant.UploadTree(ctx, vol, testToken, agent.TreeOptions{LocalDir: local, RemotePrefix: "run"})
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("local path must be a directory", func(t *testing.T) {
		fa, vol := newFakeAgent(t)
		local := writeTree(t, map[string]string{"f.txt": "f"})

		_, err := agent.New().UploadTree(ctx, vol, testToken, agent.TreeOptions{LocalDir: filepath.Join(local, "f.txt")})
		assert.ErrorIs(t, err, volstore.ErrInvalidInput)

		_, err = agent.New().UploadTree(ctx, vol, testToken, agent.TreeOptions{LocalDir: filepath.Join(local, "missing")})
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Empty(t, fa.Calls())
	})

	t.Run("invalid remote prefix", func(t *testing.T) {
		fa, vol := newFakeAgent(t)
		local := writeTree(t, map[string]string{"f.txt": "f"})

		_, err := agent.New().UploadTree(ctx, vol, testToken, agent.TreeOptions{LocalDir: local, RemotePrefix: "a//b"})
		assert.ErrorIs(t, err, volstore.ErrInvalidPath)
		assert.Empty(t, fa.Calls())
	})
}
