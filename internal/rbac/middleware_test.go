package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/guruweb/resto/internal/shared"
)

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Middleware{}.RequireRole(shared.RoleBusinessAdmin)(ok)

	cases := []struct {
		name string
		role shared.Role
		auth bool
		want int
	}{
		{"anonymous", "", false, http.StatusForbidden},
		{"staff", shared.RoleUser, true, http.StatusForbidden},
		{"admin", shared.RoleBusinessAdmin, true, http.StatusNoContent},
		{"super admin", shared.RoleSuperAdmin, true, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/dashboard/settings", nil)
			if tc.auth {
				req = req.WithContext(shared.ContextWithPrincipal(req.Context(), shared.Principal{UserID: "u1", BusinessID: "b1", Role: tc.role}))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
