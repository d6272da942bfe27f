package kit

import (
	"context"
	"net/http"
	"strings"
)

const (
	HeaderUserID    = "X-User-Id"
	HeaderUserRole  = "X-User-Role"
	HeaderUserName  = "X-User-Name"
	HeaderUserEmail = "X-User-Email"
)

const (
	RoleCustomer   = "customer"
	RoleShopkeeper = "shopkeeper"
)

type Identity struct {
	UserID string
	Role   string
	Name   string
	Email  string
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

func IdentityHeaders() []string {
	return []string{HeaderUserID, HeaderUserRole, HeaderUserName, HeaderUserEmail}
}

// RequireUserHeaders trusts identity headers set by the gateway after token verification.
func RequireUserHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := Identity{
			UserID: strings.TrimSpace(r.Header.Get(HeaderUserID)),
			Role:   strings.TrimSpace(r.Header.Get(HeaderUserRole)),
			Name:   strings.TrimSpace(r.Header.Get(HeaderUserName)),
			Email:  strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
		}
		if id.UserID == "" {
			WriteError(w, r, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
