package rbac

import (
	"log/slog"
	"net/http"

	"github.com/guruweb/resto/internal/shared"
)

// Middleware wires role checks for dashboard handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireRole lets the request through when the signed-in user holds one of
// the roles. Super admins pass every check.
func (m Middleware) RequireRole(roles ...shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if Allowed(p.Role, roles...) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("rbac denied",
					slog.String("user_id", p.UserID),
					slog.String("role", string(p.Role)),
					slog.String("path", r.URL.Path))
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// Allowed reports whether role satisfies any of required.
func Allowed(role shared.Role, required ...shared.Role) bool {
	if role == shared.RoleSuperAdmin || len(required) == 0 {
		return true
	}
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}
