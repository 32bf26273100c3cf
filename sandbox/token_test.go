package sandbox_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_IssueVerify(t *testing.T) {
	tokens, err := sandbox.NewTokens([]byte("token-test-secret"), "issuer-a", time.Hour)
	require.NoError(t, err)

	token, err := tokens.Issue("alice")
	require.NoError(t, err)

	user, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
}

func TestTokens_Verify_Rejects(t *testing.T) {
	secret := []byte("token-test-secret")
	tokens, err := sandbox.NewTokens(secret, "issuer-a", time.Hour)
	require.NoError(t, err)

	other, err := sandbox.NewTokens([]byte("another-secret"), "issuer-a", time.Hour)
	require.NoError(t, err)
	otherIssuer, err := sandbox.NewTokens(secret, "issuer-b", time.Hour)
	require.NoError(t, err)

	expired, err := sandbox.NewTokens(secret, "issuer-a", time.Minute)
	require.NoError(t, err)
	expired.SetClock(func() time.Time { return time.Now().Add(-time.Hour) })

	foreignSigned := func() string {
		tok, err := other.Issue("alice")
		require.NoError(t, err)
		return tok
	}
	wrongIssuer := func() string {
		tok, err := otherIssuer.Issue("alice")
		require.NoError(t, err)
		return tok
	}
	expiredToken := func() string {
		tok, err := expired.Issue("alice")
		require.NoError(t, err)
		return tok
	}
	noneAlg := func() string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    "issuer-a",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		return tok
	}
	noSubject := func() string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer:    "issuer-a",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString(secret)
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name  string
		token func() string
	}{
		{name: "garbage", token: func() string { return "abc.def.ghi" }},
		{name: "other secret", token: foreignSigned},
		{name: "other issuer", token: wrongIssuer},
		{name: "expired", token: expiredToken},
		{name: "none algorithm", token: noneAlg},
		{name: "no subject", token: noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Verify(tt.token())
			require.Error(t, err)
			assert.ErrorIs(t, err, volstore.ErrUnauthorized)
		})
	}
}

func TestNewTokens_RequiresSecret(t *testing.T) {
	_, err := sandbox.NewTokens(nil, "issuer", time.Hour)
	assert.Error(t, err)
}
