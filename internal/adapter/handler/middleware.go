package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rl1809/shop-api/internal/core/domain"
)

type identityKey struct{}

func withIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func identityFrom(ctx context.Context) domain.Identity {
	id, _ := ctx.Value(identityKey{}).(domain.Identity)
	return id
}

var errEmptyBearer = fmt.Errorf("%w: empty bearer token", domain.ErrUnauthenticated)

// bearerToken returns "" when the header is absent or not a Bearer credential.
// A Bearer scheme with no token is a bad credential, not a missing one. The
// HTTP server trims trailing spaces, so "Bearer " arrives as "Bearer".
func bearerToken(header string) (string, error) {
	const scheme = "Bearer"
	if header == scheme {
		return "", errEmptyBearer
	}
	if !strings.HasPrefix(header, scheme+" ") {
		return "", nil
	}

	token := strings.TrimSpace(header[len(scheme)+1:])
	if token == "" {
		return "", errEmptyBearer
	}
	return token, nil
}

func (h *HTTPHandler) authRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, err)
			return
		}

		id, err := h.auth.ResolveIdentity(token)
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

func roleRequired(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := identityFrom(r.Context()).Require(role); err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
