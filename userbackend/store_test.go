package userbackend_test

import (
	"testing"

	"github.com/sagarc03/volstore/userbackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserStore(t *testing.T) {
	t.Parallel()

	t.Run("inline only", func(t *testing.T) {
		t.Parallel()

		store, err := userbackend.NewUserStore(userbackend.UsersConfig{
			Inline: []userbackend.User{
				{Username: "alice", Password: "secret"},
				{Username: "", Password: "ignored"},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, 1, store.Len())
		assert.NoError(t, store.Verify("alice", "secret"))
	})

	t.Run("file overrides inline", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, `[{"username": "alice", "password": "from-file"}, {"username": "bob", "password": "b"}]`)

		store, err := userbackend.NewUserStore(userbackend.UsersConfig{
			Inline: []userbackend.User{{Username: "alice", Password: "inline"}},
			File:   path,
		})
		require.NoError(t, err)

		assert.Equal(t, 2, store.Len())
		assert.NoError(t, store.Verify("alice", "from-file"))
		assert.Error(t, store.Verify("alice", "inline"))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := userbackend.NewUserStore(userbackend.UsersConfig{File: "/nonexistent/users.json"})
		assert.Error(t, err)
	})

	t.Run("empty config", func(t *testing.T) {
		t.Parallel()

		store, err := userbackend.NewUserStore(userbackend.UsersConfig{})
		require.NoError(t, err)
		assert.Equal(t, 0, store.Len())
	})
}
