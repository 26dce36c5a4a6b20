package shared

import "context"

type (
	sessionContextKey   struct{}
	principalContextKey struct{}
	tenantContextKey    struct{}
)

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithPrincipal stores the authenticated user and its tenant.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, principalContextKey{}, p)
	return ContextWithTenant(ctx, p.BusinessID)
}

// PrincipalFromContext returns the authenticated dashboard user.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// ContextWithTenant stores the business id every query is scoped by.
func ContextWithTenant(ctx context.Context, businessID string) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, businessID)
}

// TenantFromContext returns the business id resolved for the request.
func TenantFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(tenantContextKey{}).(string)
	return id, ok && id != ""
}
