package testutil

import (
	"net/http/httptest"
	"testing"

	"github.com/AquaViinaDev/front-admin/internal/admin/httpserver"
	"github.com/AquaViinaDev/front-admin/internal/admin/httpserver/middleware"
	"github.com/AquaViinaDev/front-admin/internal/admin/products"
)

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*httpserver.Config)

// WithAuthenticator overrides the authenticator used by the admin server.
func WithAuthenticator(auth middleware.Authenticator) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Authenticator = auth
	}
}

// WithBasePath sets a custom base path for the admin routes.
func WithBasePath(path string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.BasePath = path
	}
}

// WithProductsService wires a custom products service implementation.
func WithProductsService(service products.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Products = service
	}
}

// WithAPIBaseURL sets the origin used to resolve image paths.
func WithAPIBaseURL(base string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.APIBaseURL = base
	}
}

// NewServer constructs an httptest server running the admin HTTP stack backed
// by the in-memory demo catalog.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	cfg := httpserver.Config{
		Address:        ":0",
		BasePath:       "/admin",
		Environment:    "local",
		CSRFCookieName: "csrf_token",
		CSRFHeaderName: "X-CSRF-Token",
		Authenticator:  middleware.DefaultAuthenticator(),
		Products:       products.NewStaticService(nil),
		APIBaseURL:     "http://localhost:3000",
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	srv, err := httpserver.New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}
