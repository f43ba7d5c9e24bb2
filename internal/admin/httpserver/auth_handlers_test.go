package httpserver

import (
	"testing"

	"github.com/stretchr/testify/require"

	custommw "github.com/AquaViinaDev/front-admin/internal/admin/httpserver/middleware"
)

func TestSanitizeNextTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
		raw  string
		want string
	}{
		{name: "empty", base: "/admin", raw: "", want: ""},
		{name: "inside base", base: "/admin", raw: "/admin/products?q=atoll", want: "/admin/products?q=atoll"},
		{name: "base itself", base: "/admin", raw: "/admin", want: "/admin"},
		{name: "outside base", base: "/admin", raw: "/administrator", want: ""},
		{name: "absolute url", base: "/admin", raw: "https://evil.example/admin", want: ""},
		{name: "protocol relative", base: "/admin", raw: "//evil.example/admin", want: ""},
		{name: "backslash", base: "/admin", raw: "/admin\\..\\x", want: ""},
		{name: "dot segments", base: "/admin", raw: "/admin/../etc", want: ""},
		{name: "cleaned", base: "/admin", raw: "/admin/products/../products/1/edit", want: "/admin/products/1/edit"},
		{name: "root base", base: "/", raw: "/products#top", want: "/products#top"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, sanitizeNextTarget(tc.base, tc.raw))
		})
	}
}

func TestNormalizeNextSkipsLoginPage(t *testing.T) {
	t.Parallel()

	h := newAuthHandlers(custommw.DefaultAuthenticator(), "/admin/", false)
	require.Equal(t, "/admin/login", h.loginPath)
	require.Equal(t, "", h.normalizeNext("/admin/login?next=/admin"))
	require.Equal(t, "/admin/products", h.redirectTarget(""))
	require.Equal(t, "/admin/products/new", h.redirectTarget("/admin/products/new"))
}
