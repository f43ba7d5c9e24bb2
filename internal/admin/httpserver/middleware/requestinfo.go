package middleware

import (
	"context"
	"net/http"
	"strings"
)

type requestInfoKey struct{}

// RequestInfo holds request metadata exposed to templates.
type RequestInfo struct {
	Path        string
	Query       string
	BasePath    string
	Method      string
	Environment string
}

// RequestInfoMiddleware annotates the context with the request path, the
// admin base path and the deployment environment label.
func RequestInfoMiddleware(basePath, environment string) func(http.Handler) http.Handler {
	base := NormaliseBasePath(basePath)
	env := strings.TrimSpace(environment)
	if env == "" {
		env = "local"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := &RequestInfo{
				Path:        r.URL.Path,
				Query:       r.URL.RawQuery,
				Method:      r.Method,
				BasePath:    base,
				Environment: env,
			}
			ctx := context.WithValue(r.Context(), requestInfoKey{}, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestInfoFromContext returns the metadata stored by RequestInfoMiddleware.
func RequestInfoFromContext(ctx context.Context) (*RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey{}).(*RequestInfo)
	return info, ok && info != nil
}

// RequestPathFromContext returns the request path or "".
func RequestPathFromContext(ctx context.Context) string {
	if info, ok := RequestInfoFromContext(ctx); ok {
		return info.Path
	}
	return ""
}

// BasePathFromContext returns the admin base path, "/" when unavailable.
func BasePathFromContext(ctx context.Context) string {
	if info, ok := RequestInfoFromContext(ctx); ok && info.BasePath != "" {
		return info.BasePath
	}
	return "/"
}

// EnvironmentFromContext returns the deployment label, "local" when unavailable.
func EnvironmentFromContext(ctx context.Context) string {
	if info, ok := RequestInfoFromContext(ctx); ok && info.Environment != "" {
		return info.Environment
	}
	return "local"
}

// NormaliseBasePath returns base with a leading slash and no trailing slash.
// Empty input maps to "/".
func NormaliseBasePath(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return "/"
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if base != "/" {
		base = strings.TrimRight(base, "/")
		if base == "" {
			return "/"
		}
	}
	return base
}
