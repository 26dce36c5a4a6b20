package shared

// Role is a dashboard user role.
type Role string

const (
	RoleSuperAdmin    Role = "super_admin"
	RoleBusinessAdmin Role = "business_admin"
	RoleUser          Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleBusinessAdmin, RoleUser:
		return true
	}
	return false
}

// Principal is the authenticated dashboard user bound to a tenant.
type Principal struct {
	UserID     string
	BusinessID string
	Role       Role
	Name       string
}
