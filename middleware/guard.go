package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/authflow/permission"
)

// DefaultLoginPath is the redirect target of rejected requests.
const DefaultLoginPath = "/login"

// Session is the view of the portal session the guards need.
type Session interface {
	Authenticated() bool
	RolesFromToken() []string
}

type rolesContextKey struct{}

// RolesFromContext returns the roles stored by a guard.
func RolesFromContext(ctx context.Context) ([]string, bool) {
	roles, ok := ctx.Value(rolesContextKey{}).([]string)
	return roles, ok
}

// Rule decides whether an authenticated session with roles may proceed.
type Rule func(roles []string) bool

// Guard admits requests while the session is authenticated and rule (if
// non-nil) accepts its roles. Everything else is redirected to loginPath.
func Guard(session Session, loginPath string, rule Rule) func(http.Handler) http.Handler {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session == nil || !session.Authenticated() {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			roles := session.RolesFromToken()
			if rule != nil && !rule(roles) {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), rolesContextKey{}, roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth admits any authenticated session.
func RequireAuth(session Session, loginPath string) func(http.Handler) http.Handler {
	return Guard(session, loginPath, nil)
}

// RequireRoles admits sessions holding at least one role of req.
func RequireRoles(session Session, loginPath string, req permission.Requirement) func(http.Handler) http.Handler {
	return Guard(session, loginPath, req.Allows)
}
