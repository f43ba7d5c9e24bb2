package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/AquaViinaDev/front-admin/internal/admin/observability"
	"github.com/AquaViinaDev/front-admin/internal/admin/rbac"
)

// RequireCapability answers 403 when the authenticated user lacks capability.
func RequireCapability(capability rbac.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || !rbac.HasCapability(user.Roles, capability) {
				observability.FromContext(r.Context()).Warn("capability denied", zap.String("capability", string(capability)))
				if IsHTMXRequest(r.Context()) {
					w.Header().Set("HX-Refresh", "true")
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Can reports whether the user attached to ctx holds capability.
func Can(ctx context.Context, capability rbac.Capability) bool {
	user, ok := UserFromContext(ctx)
	return ok && rbac.HasCapability(user.Roles, capability)
}
