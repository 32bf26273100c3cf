package clientcli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sagarc03/volstore/clientcli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := &clientcli.Config{AuthURL: "http://localhost:8880/authenticate", MasterURL: "http://localhost:8880"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("defaults are valid", func(t *testing.T) {
		cfg := (&clientcli.Config{}).WithDefaults()
		assert.NoError(t, cfg.Validate())
		assert.Equal(t, clientcli.DefaultAuthURL, cfg.AuthURL)
		assert.Equal(t, clientcli.DefaultMasterURL, cfg.MasterURL)
	})

	t.Run("missing endpoints", func(t *testing.T) {
		assert.Error(t, (&clientcli.Config{}).Validate())
	})

	t.Run("not a url", func(t *testing.T) {
		cfg := &clientcli.Config{AuthURL: "localhost", MasterURL: "http://localhost:8880"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("with defaults does not mutate", func(t *testing.T) {
		cfg := &clientcli.Config{}
		_ = cfg.WithDefaults()
		assert.Empty(t, cfg.AuthURL)
	})
}

func TestConfig_ValidateWithAuth(t *testing.T) {
	base := clientcli.Config{AuthURL: "http://a/authenticate", MasterURL: "http://m"}

	tests := []struct {
		name    string
		mutate  func(c *clientcli.Config)
		wantErr error
	}{
		{name: "username and password", mutate: func(c *clientcli.Config) { c.Username, c.Password = "alice", "pw" }},
		{name: "token only", mutate: func(c *clientcli.Config) { c.Token = "tok" }},
		{name: "missing password", mutate: func(c *clientcli.Config) { c.Username = "alice" }, wantErr: clientcli.ErrCredentialsRequired},
		{name: "nothing", mutate: func(c *clientcli.Config) {}, wantErr: clientcli.ErrCredentialsRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.ValidateWithAuth()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigFile(t *testing.T) {
	t.Run("save and load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.yaml")

		cfg := &clientcli.ConfigFile{}
		require.NoError(t, cfg.AddProfile(clientcli.Profile{Name: "local", AuthURL: "http://localhost:8880/authenticate", MasterURL: "http://localhost:8880", Username: "alice"}))
		require.NoError(t, cfg.AddProfile(clientcli.Profile{Name: "cluster", AuthURL: "https://auth/authenticate", MasterURL: "https://master/api", Token: "tok"}))
		require.NoError(t, cfg.SetDefault("cluster"))
		require.NoError(t, cfg.Save(path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		loaded, err := clientcli.LoadConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"local", "cluster"}, loaded.ProfileNames())

		def, err := loaded.GetProfile("")
		require.NoError(t, err)
		assert.Equal(t, "cluster", def.Name)
		assert.Equal(t, "tok", def.Token)

		local, err := loaded.GetProfile("local")
		require.NoError(t, err)
		assert.Equal(t, "alice", local.Username)
	})

	t.Run("profile operations", func(t *testing.T) {
		cfg := &clientcli.ConfigFile{}

		_, err := cfg.GetProfile("")
		assert.ErrorIs(t, err, clientcli.ErrNoProfiles)

		require.NoError(t, cfg.AddProfile(clientcli.Profile{Name: "a"}))
		assert.ErrorIs(t, cfg.AddProfile(clientcli.Profile{Name: "a"}), clientcli.ErrProfileExists)

		def, err := cfg.GetDefaultProfile()
		require.NoError(t, err)
		assert.Equal(t, "a", def.Name)

		require.NoError(t, cfg.UpdateProfile(clientcli.Profile{Name: "a", Username: "bob"}))
		p, err := cfg.GetProfile("a")
		require.NoError(t, err)
		assert.Equal(t, "bob", p.Username)

		assert.ErrorIs(t, cfg.UpdateProfile(clientcli.Profile{Name: "b"}), clientcli.ErrProfileNotFound)
		assert.ErrorIs(t, cfg.SetDefault("b"), clientcli.ErrProfileNotFound)
		_, err = cfg.GetProfile("b")
		assert.ErrorIs(t, err, clientcli.ErrProfileNotFound)

		require.NoError(t, cfg.RemoveProfile("a"))
		assert.ErrorIs(t, cfg.RemoveProfile("a"), clientcli.ErrProfileNotFound)
		assert.Empty(t, cfg.ProfileNames())
	})

	t.Run("file not found", func(t *testing.T) {
		_, err := clientcli.LoadConfigFile("/nonexistent/path/config.yaml")
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`profiles: [yaml: content`), 0o600))

		_, err := clientcli.LoadConfigFile(path)
		assert.Error(t, err)
	})
}

func TestConfigFromProfile(t *testing.T) {
	assert.Equal(t, &clientcli.Config{}, clientcli.ConfigFromProfile(nil))

	cfg := clientcli.ConfigFromProfile(&clientcli.Profile{
		Name:      "p",
		AuthURL:   "http://a",
		MasterURL: "http://m",
		Username:  "alice",
		Password:  "pw",
		Token:     "tok",
	})
	assert.Equal(t, &clientcli.Config{AuthURL: "http://a", MasterURL: "http://m", Username: "alice", Password: "pw", Token: "tok"}, cfg)
}

func TestMergeConfig(t *testing.T) {
	tests := []struct {
		name     string
		configs  []*clientcli.Config
		expected *clientcli.Config
	}{
		{
			name:     "empty configs",
			configs:  []*clientcli.Config{},
			expected: &clientcli.Config{},
		},
		{
			name: "later config overrides",
			configs: []*clientcli.Config{
				{AuthURL: "http://a", MasterURL: "http://m", Username: "alice", Password: "pw1"},
				{MasterURL: "http://m2", Password: "pw2"},
			},
			expected: &clientcli.Config{AuthURL: "http://a", MasterURL: "http://m2", Username: "alice", Password: "pw2"},
		},
		{
			name: "empty strings do not override",
			configs: []*clientcli.Config{
				{AuthURL: "http://a", Token: "tok"},
				{AuthURL: "", Token: ""},
			},
			expected: &clientcli.Config{AuthURL: "http://a", Token: "tok"},
		},
		{
			name: "nil config is skipped",
			configs: []*clientcli.Config{
				{AuthURL: "http://a"},
				nil,
				{Username: "bob"},
			},
			expected: &clientcli.Config{AuthURL: "http://a", Username: "bob"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, clientcli.MergeConfig(tt.configs...))
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("VOLSTORE_AUTH_URL", "http://auth.example.com/authenticate")
	t.Setenv("VOLSTORE_MASTER_URL", "http://master.example.com")
	t.Setenv("VOLSTORE_USERNAME", "env-user")
	t.Setenv("VOLSTORE_PASSWORD", "env-password")
	t.Setenv("VOLSTORE_TOKEN", "env-token")
	t.Setenv("VOLSTORE_PROFILE", "env-profile")
	t.Setenv("VOLSTORE_CONFIG", "/tmp/volstore.yaml")

	cfg := clientcli.ConfigFromEnv()

	assert.Equal(t, "http://auth.example.com/authenticate", cfg.AuthURL)
	assert.Equal(t, "http://master.example.com", cfg.MasterURL)
	assert.Equal(t, "env-user", cfg.Username)
	assert.Equal(t, "env-password", cfg.Password)
	assert.Equal(t, "env-token", cfg.Token)
	assert.Equal(t, "env-profile", clientcli.ProfileFromEnv())
	assert.Equal(t, "/tmp/volstore.yaml", clientcli.ConfigPathFromEnv())
}
