package helpers

import (
	"context"

	"github.com/AquaViinaDev/front-admin/internal/admin/httpserver/middleware"
	"github.com/AquaViinaDev/front-admin/internal/admin/rbac"
)

// HasCapability reports whether the authenticated user holds capability.
// An empty capability guards nothing.
func HasCapability(ctx context.Context, capability rbac.Capability) bool {
	if capability == "" {
		return true
	}
	return middleware.Can(ctx, capability)
}
