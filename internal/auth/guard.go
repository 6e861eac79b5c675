package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sodam-care/service-care-go/pkg/apperror"
	"github.com/sodam-care/service-care-go/pkg/httpjson"
)

// Resolver turns a raw bearer token into an Identity.
type Resolver interface {
	ResolveAuthenticatedUser(ctx context.Context, rawToken string) (Identity, error)
}

type identityKey struct{}

// IdentityFrom returns the identity stored by RequireAuth.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < len("bearer ") || !strings.EqualFold(h[:len("bearer ")], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[len("bearer "):])
	return tok, tok != ""
}

// RequireAuth resolves the bearer token once per request and stores the
// resulting Identity in the request context.
func RequireAuth(resolver Resolver, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				httpjson.Error(w, logger, apperror.Unauthorized("missing bearer token"))
				return
			}
			id, err := resolver.ResolveAuthenticatedUser(r.Context(), raw)
			if err != nil {
				httpjson.Error(w, logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
		})
	}
}
