package helpers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AquaViinaDev/front-admin/internal/admin/httpserver/middleware"
)

func contextForPath(t *testing.T, target string) context.Context {
	t.Helper()
	var ctx context.Context
	handler := middleware.RequestInfoMiddleware("/admin/", "local")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	require.NotNil(t, ctx)
	return ctx
}

func TestNavActive(t *testing.T) {
	t.Parallel()

	ctx := contextForPath(t, "/admin/products/7/edit")
	require.Equal(t, "/admin/products/7/edit", RequestPath(ctx))
	require.Equal(t, "/admin", BasePath(ctx))

	require.True(t, NavActive(ctx, "/admin/products", true))
	require.True(t, NavActive(ctx, "//admin//products/", true))
	require.False(t, NavActive(ctx, "/admin/products", false))
	require.False(t, NavActive(ctx, "/admin/product", true))
	require.False(t, NavActive(ctx, "/", true))
	require.False(t, NavActive(ctx, " ", true))

	require.Equal(t, "/", BasePath(context.Background()))
	require.True(t, NavActive(contextForPath(t, "/admin/products/"), "/admin/products", false))
}
