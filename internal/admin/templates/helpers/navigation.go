package helpers

import (
	"context"
	"path"
	"strings"

	"github.com/AquaViinaDev/front-admin/internal/admin/httpserver/middleware"
)

// RequestPath is the cleaned path of the page being rendered.
func RequestPath(ctx context.Context) string {
	return cleanRoute(middleware.RequestPathFromContext(ctx))
}

// BasePath is the cleaned mount point of the admin routes.
func BasePath(ctx context.Context) string {
	return cleanRoute(middleware.BasePathFromContext(ctx))
}

// NavActive marks a sidebar entry. With prefix set, nested pages such as
// /products/7/edit keep the products entry highlighted.
func NavActive(ctx context.Context, pattern string, prefix bool) bool {
	if strings.TrimSpace(pattern) == "" {
		return false
	}
	current, target := RequestPath(ctx), cleanRoute(pattern)
	if current == target {
		return true
	}
	return prefix && target != "/" && strings.HasPrefix(current, target+"/")
}

func cleanRoute(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}
