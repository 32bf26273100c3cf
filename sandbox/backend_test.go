package sandbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/agent"
	"github.com/sagarc03/volstore/database"
	"github.com/sagarc03/volstore/sandbox"
	"github.com/sagarc03/volstore/userbackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startSandbox runs the full handler over a sqlite registry and a temp
// storage directory.
func startSandbox(t *testing.T, configure ...func(*sandbox.HandlerConfig)) *httptest.Server {
	t.Helper()

	backend, err := sandbox.OpenBackend(context.Background(), database.Config{
		Type:   "sqlite",
		DSN:    ":memory:",
		Tables: volstore.Tables{Volumes: "volumes"},
	}, filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, backend.Close()) })

	service, err := sandbox.NewVolumeService(backend.Repo, backend.Storage)
	require.NoError(t, err)

	tokens, err := sandbox.NewTokens([]byte(testSecret), "test", time.Hour)
	require.NoError(t, err)

	config := &sandbox.HandlerConfig{
		Users:   userbackend.NewMapUserStore(map[string]string{"alice": "alice-pw", "bob": "bob-pw"}),
		Tokens:  tokens,
		Metrics: sandbox.NewMetrics(),
	}
	for _, fn := range configure {
		fn(config)
	}

	server := httptest.NewServer(sandbox.NewHandler(config, service).Router())
	t.Cleanup(server.Close)
	return server
}

func login(t *testing.T, server *httptest.Server, user, password string) string {
	t.Helper()

	resp, err := http.PostForm(server.URL+"/authenticate", url.Values{"username": {user}, "password": {password}})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.Token
}

func call(t *testing.T, method, target, token string, body io.Reader) (int, string) {
	t.Helper()

	req, err := http.NewRequest(method, target, body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func allocate(t *testing.T, server *httptest.Server, token, name string) (id, connectionURL string) {
	t.Helper()

	status, body := call(t, http.MethodPost, server.URL+"/storage", token, strings.NewReader(`{"name":"`+name+`"}`))
	require.Equal(t, http.StatusCreated, status, body)

	var vol struct {
		ID            string `json:"id"`
		ConnectionURL string `json:"connectionURL"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &vol))
	return vol.ID, vol.ConnectionURL
}

func TestSandbox_VolumeLifecycle(t *testing.T) {
	server := startSandbox(t)
	token := login(t, server, "alice", "alice-pw")

	id, conn := allocate(t, server, token, "data")
	assert.Equal(t, server.URL+sandbox.AgentPrefix, conn)
	base := conn + "/agent_storage/" + id

	status, _ := call(t, http.MethodPost, base+"/directory/a", token, nil)
	assert.Equal(t, http.StatusCreated, status)

	// parents are never created implicitly
	status, _ = call(t, http.MethodPost, base+"/directory/x/y", token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, http.MethodPost, base+"/directory/a", token, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, body := call(t, http.MethodPost, base+"/file/a/hello.txt", token, strings.NewReader("hello"))
	require.Equal(t, http.StatusCreated, status, body)

	status, _ = call(t, http.MethodPost, base+"/file/a/hello.txt", token, strings.NewReader("again"))
	assert.Equal(t, http.StatusConflict, status)

	status, body = call(t, http.MethodGet, base+"/list?entry=a", token, nil)
	require.Equal(t, http.StatusOK, status)
	var entries []volstore.Entry
	require.NoError(t, json.Unmarshal([]byte(body), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "a/hello.txt", entries[0].Path)
	assert.Equal(t, int64(5), entries[0].Size)

	status, body = call(t, http.MethodGet, entries[0].AccessURL, token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "hello", body)

	status, _ = call(t, http.MethodGet, base+"/entry_content/a", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// lookups
	status, body = call(t, http.MethodGet, server.URL+"/storage/user:alice/data", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"id":"`+id+`"`)

	status, body = call(t, http.MethodGet, server.URL+"/storage?ownerKey=user:alice", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"totalCount":1`)
}

func TestSandbox_OtherUsersVolume(t *testing.T) {
	server := startSandbox(t)
	alice := login(t, server, "alice", "alice-pw")
	bob := login(t, server, "bob", "bob-pw")

	id, conn := allocate(t, server, alice, "private")

	status, _ := call(t, http.MethodPost, conn+"/agent_storage/"+id+"/directory/a", bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, http.MethodGet, conn+"/agent_storage/"+id+"/list", bob, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestSandbox_ExistingDirectoryAccepted(t *testing.T) {
	server := startSandbox(t, func(c *sandbox.HandlerConfig) {
		c.ExistingDirStatus = http.StatusAccepted
	})
	token := login(t, server, "alice", "alice-pw")
	id, conn := allocate(t, server, token, "data")

	status, _ := call(t, http.MethodPost, conn+"/agent_storage/"+id+"/directory/a", token, nil)
	assert.Equal(t, http.StatusCreated, status)

	status, _ = call(t, http.MethodPost, conn+"/agent_storage/"+id+"/directory/a", token, nil)
	assert.Equal(t, http.StatusAccepted, status)
}

func TestSandbox_PercentInNames(t *testing.T) {
	ctx := context.Background()
	server := startSandbox(t)
	token := login(t, server, "alice", "alice-pw")
	id, conn := allocate(t, server, token, "data")
	vol := volstore.VolumeHandle{ID: id, BaseURL: conn, OwnerKey: "user:alice", Name: "data"}
	client := agent.New()

	names := []string{"100%.txt", "a%41.txt", "x%2Fy.txt", "50% off/list.txt"}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			entry, err := client.EnsureFileBytes(ctx, vol, volstore.Token(token), name, []byte(name))
			require.NoError(t, err)
			assert.Equal(t, name, entry.Path)

			got, err := client.ReadContent(ctx, vol, volstore.Token(token), name)
			require.NoError(t, err)
			assert.Equal(t, name, string(got))
		})
	}

	entries, err := client.List(ctx, vol, volstore.Token(token), "")
	require.NoError(t, err)
	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.ElementsMatch(t, []string{"100%.txt", "a%41.txt", "x%2Fy.txt", "50% off"}, paths)

	t.Run("non-canonical escaping is decoded once", func(t *testing.T) {
		base := conn + "/agent_storage/" + id
		status, body := call(t, http.MethodPost, base+"/file/b%41.txt", token, strings.NewReader("b"))
		require.Equal(t, http.StatusCreated, status, body)
		assert.Contains(t, body, `"bA.txt"`)
	})
}

func TestSandbox_DirectoryOverFile(t *testing.T) {
	for _, existing := range []int{http.StatusConflict, http.StatusAccepted} {
		t.Run(http.StatusText(existing), func(t *testing.T) {
			server := startSandbox(t, func(c *sandbox.HandlerConfig) {
				c.ExistingDirStatus = existing
			})
			token := login(t, server, "alice", "alice-pw")
			id, conn := allocate(t, server, token, "data")
			base := conn + "/agent_storage/" + id

			status, _ := call(t, http.MethodPost, base+"/file/f", token, strings.NewReader("x"))
			require.Equal(t, http.StatusCreated, status)

			status, body := call(t, http.MethodPost, base+"/directory/f", token, nil)
			assert.Equal(t, http.StatusConflict, status)
			assert.Contains(t, body, `"not_a_directory"`)

			vol := volstore.VolumeHandle{ID: id, BaseURL: conn, OwnerKey: "user:alice", Name: "data"}
			tolerant := agent.New(agent.WithExistingPolicy(agent.ExistingTolerate))
			_, err := tolerant.EnsureDirectory(context.Background(), vol, volstore.Token(token), "f/sub")
			require.ErrorIs(t, err, volstore.ErrNotDirectory)

			var remote *volstore.RemoteError
			require.True(t, errors.As(err, &remote))
			assert.Equal(t, "f", remote.Path)
		})
	}
}

func TestSandbox_MaxUploadSize(t *testing.T) {
	server := startSandbox(t, func(c *sandbox.HandlerConfig) {
		c.MaxUploadSize = 4
	})
	token := login(t, server, "alice", "alice-pw")
	id, conn := allocate(t, server, token, "data")
	base := conn + "/agent_storage/" + id

	status, _ := call(t, http.MethodPost, base+"/file/small.bin", token, strings.NewReader("1234"))
	assert.Equal(t, http.StatusCreated, status)

	status, _ = call(t, http.MethodPost, base+"/file/big.bin", token, strings.NewReader("12345"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)

	// a rejected upload leaves nothing behind
	status, _ = call(t, http.MethodGet, base+"/list?entry=big.bin", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestOpenBackend_InvalidDatabase(t *testing.T) {
	_, err := sandbox.OpenBackend(context.Background(), database.Config{
		Type:   "mysql",
		DSN:    "whatever",
		Tables: volstore.Tables{Volumes: "volumes"},
	}, t.TempDir())
	assert.Error(t, err)
}
