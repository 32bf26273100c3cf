package sandbox

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sagarc03/volstore"
)

// TokenVerifier validates a bearer token and returns the username it
// belongs to.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type userKey struct{}

// UserFromContext returns the authenticated username stored by
// AuthMiddleware.
func UserFromContext(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(userKey{}).(string)
	return user, ok && user != ""
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				HandleError(w, fmt.Errorf("%s %s: missing bearer token: %w", r.Method, r.URL.Path, volstore.ErrUnauthorized))
				return
			}

			user, err := verifier.Verify(token)
			if err != nil {
				HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
