package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("valid endpoint", func(t *testing.T) {
		client, err := auth.New("http://localhost:9881/api/authenticate")
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("empty endpoint", func(t *testing.T) {
		_, err := auth.New("")
		assert.Error(t, err)
	})

	t.Run("relative endpoint", func(t *testing.T) {
		_, err := auth.New("/authenticate")
		assert.Error(t, err)
	})

	t.Run("options", func(t *testing.T) {
		client, err := auth.New("http://localhost", auth.WithHTTPClient(&http.Client{}), auth.WithTimeout(time.Second))
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestClient_Authenticate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/authenticate", r.URL.Path)
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "alice", r.PostForm.Get("username"))
			assert.Equal(t, "s3cret&x=y", r.PostForm.Get("password"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"token":"abc.def.ghi","user_name":"alice"}`))
		}))
		defer server.Close()

		client, err := auth.New(server.URL + "/api/authenticate")
		require.NoError(t, err)

		token, err := client.Authenticate(context.Background(), volstore.Credentials{Username: "alice", Password: "s3cret&x=y"})
		require.NoError(t, err)
		assert.Equal(t, volstore.Token("abc.def.ghi"), token)
	})

	t.Run("rejected", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"errormessage":"Invalid username or password"}`))
		}))
		defer server.Close()

		client, err := auth.New(server.URL)
		require.NoError(t, err)

		token, err := client.Authenticate(context.Background(), volstore.Credentials{Username: "alice", Password: "wrong"})
		require.Error(t, err)
		assert.True(t, token.IsZero())
		assert.ErrorIs(t, err, volstore.ErrAuthentication)
		assert.Equal(t, int32(1), calls.Load())

		var remote *volstore.RemoteError
		require.True(t, errors.As(err, &remote))
		assert.Equal(t, http.StatusUnauthorized, remote.StatusCode)
		assert.Contains(t, remote.Body, "Invalid username or password")
	})

	t.Run("created is not success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"token":"abc"}`))
		}))
		defer server.Close()

		client, err := auth.New(server.URL)
		require.NoError(t, err)

		_, err = client.Authenticate(context.Background(), volstore.Credentials{Username: "alice", Password: "pw"})
		assert.ErrorIs(t, err, volstore.ErrAuthentication)
	})

	t.Run("missing token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client, err := auth.New(server.URL)
		require.NoError(t, err)

		_, err = client.Authenticate(context.Background(), volstore.Credentials{Username: "alice", Password: "pw"})
		assert.ErrorIs(t, err, volstore.ErrAuthentication)
	})

	t.Run("malformed response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		client, err := auth.New(server.URL)
		require.NoError(t, err)

		_, err = client.Authenticate(context.Background(), volstore.Credentials{Username: "alice", Password: "pw"})
		assert.ErrorIs(t, err, volstore.ErrAuthentication)
	})

	t.Run("invalid credentials make no call", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer server.Close()

		client, err := auth.New(server.URL)
		require.NoError(t, err)

		_, err = client.Authenticate(context.Background(), volstore.Credentials{Username: "alice"})
		assert.ErrorIs(t, err, volstore.ErrInvalidInput)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		client, err := auth.New(server.URL)
		require.NoError(t, err)

		_, err = client.Authenticate(context.Background(), volstore.Credentials{Username: "alice", Password: "pw"})
		assert.ErrorIs(t, err, volstore.ErrAuthentication)
	})
}
