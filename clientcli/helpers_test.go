package clientcli_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/clientcli"
	"github.com/sagarc03/volstore/database"
	"github.com/sagarc03/volstore/sandbox"
	"github.com/sagarc03/volstore/userbackend"
	"github.com/stretchr/testify/require"
)

const (
	testUser     = "alice"
	testPassword = "alice-pw"
)

// startSandbox runs an in-process sandbox service and returns a client
// config pointing at it.
func startSandbox(t *testing.T, existingDirStatus int) *clientcli.Config {
	t.Helper()

	backend, err := sandbox.OpenBackend(context.Background(), database.Config{
		Type:   "sqlite",
		DSN:    ":memory:",
		Tables: volstore.Tables{Volumes: "volumes"},
	}, filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	service, err := sandbox.NewVolumeService(backend.Repo, backend.Storage)
	require.NoError(t, err)

	tokens, err := sandbox.NewTokens([]byte("clientcli-test-secret"), "clientcli-test", time.Hour)
	require.NoError(t, err)

	handler := sandbox.NewHandler(&sandbox.HandlerConfig{
		Users:             userbackend.NewMapUserStore(map[string]string{testUser: testPassword}),
		Tokens:            tokens,
		ExistingDirStatus: existingDirStatus,
	}, service)

	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)

	return &clientcli.Config{
		AuthURL:   server.URL + "/authenticate",
		MasterURL: server.URL,
		Username:  testUser,
		Password:  testPassword,
	}
}

func newClient(t *testing.T, cfg *clientcli.Config, opts ...clientcli.Option) *clientcli.Client {
	t.Helper()

	client, err := clientcli.New(cfg, opts...)
	require.NoError(t, err)
	return client
}

func newSandboxClient(t *testing.T, opts ...clientcli.Option) (*clientcli.Client, *clientcli.Config) {
	t.Helper()

	cfg := startSandbox(t, http.StatusConflict)
	return newClient(t, cfg, opts...), cfg
}
