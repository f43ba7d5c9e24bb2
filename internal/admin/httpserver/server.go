package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/AquaViinaDev/front-admin/internal/admin/catalog"
	custommw "github.com/AquaViinaDev/front-admin/internal/admin/httpserver/middleware"
	"github.com/AquaViinaDev/front-admin/internal/admin/httpserver/ui"
	"github.com/AquaViinaDev/front-admin/internal/admin/observability"
	"github.com/AquaViinaDev/front-admin/internal/admin/products"
	"github.com/AquaViinaDev/front-admin/internal/admin/rbac"
	appsession "github.com/AquaViinaDev/front-admin/internal/admin/session"
	"github.com/AquaViinaDev/front-admin/public"
)

const (
	requestTimeout = 60 * time.Second
	maxRequestBody = 64 << 20
)

// Config holds runtime options for the admin HTTP server.
type Config struct {
	Address     string
	BasePath    string
	Environment string

	Logger        *zap.Logger
	Authenticator custommw.Authenticator
	SessionStore  custommw.SessionStore

	Products       products.Service
	Schema         *catalog.Schema
	APIBaseURL     string
	MaxUploadBytes int64

	CSRFCookieName   string
	CSRFCookieSecure bool
	CSRFHeaderName   string
}

// New constructs the HTTP server with its middleware stack and embedded assets.
func New(cfg Config) (*http.Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NoopLogger()
	}

	basePath := custommw.NormaliseBasePath(cfg.BasePath)

	store := cfg.SessionStore
	if store == nil {
		manager, err := appsession.NewManager(appsession.Config{
			HashKey:      appsession.GenerateKey(),
			CookiePath:   basePath,
			CookieSecure: cfg.CSRFCookieSecure,
		})
		if err != nil {
			return nil, fmt.Errorf("httpserver: session manager: %w", err)
		}
		store = manager
	}

	authenticator := cfg.Authenticator
	if authenticator == nil {
		authenticator = custommw.DefaultAuthenticator()
	}

	staticContent, err := public.StaticFS()
	if err != nil {
		return nil, fmt.Errorf("httpserver: embed static: %w", err)
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.RequestLogger(logger))
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(requestTimeout))
	router.Use(chimw.RequestSize(maxRequestBody))

	router.Handle("/public/static/*", http.StripPrefix("/public/static/", http.FileServer(http.FS(staticContent))))

	handlers := ui.NewHandlers(ui.Dependencies{
		Products:       cfg.Products,
		Schema:         cfg.Schema,
		APIBaseURL:     cfg.APIBaseURL,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	mountAdminRoutes(router, basePath, routeOptions{
		Handlers:      handlers,
		Auth:          newAuthHandlers(authenticator, basePath, cfg.CSRFCookieSecure),
		Authenticator: authenticator,
		Sessions:      store,
		Environment:   cfg.Environment,
		CSRF: custommw.CSRFConfig{
			CookieName: cfg.CSRFCookieName,
			CookiePath: basePath,
			HeaderName: cfg.CSRFHeaderName,
			Secure:     cfg.CSRFCookieSecure,
		},
	})

	return &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, nil
}

type routeOptions struct {
	Handlers      *ui.Handlers
	Auth          *authHandlers
	Authenticator custommw.Authenticator
	Sessions      custommw.SessionStore
	Environment   string
	CSRF          custommw.CSRFConfig
}

func mountAdminRoutes(router chi.Router, base string, opts routeOptions) {
	routes := func(r chi.Router) {
		r.Use(custommw.HTMX())
		r.Use(custommw.NoStore())
		r.Use(custommw.RequestInfoMiddleware(base, opts.Environment))
		r.Use(custommw.Language())
		r.Use(custommw.Session(opts.Sessions))
		r.Use(custommw.CSRF(opts.CSRF))

		r.Get("/login", opts.Auth.LoginForm)
		r.Post("/login", opts.Auth.LoginSubmit)
		r.Post("/logout", opts.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(custommw.Auth(opts.Authenticator, opts.Auth.loginPath))
			r.Use(custommw.RequireCapability(rbac.CapCatalogRead))

			r.Get("/", opts.Handlers.Home)
			r.Get("/products", opts.Handlers.ProductsIndex)
			RegisterFragment(r, "/products/table", opts.Handlers.ProductsTable)

			r.Group(func(r chi.Router) {
				r.Use(custommw.RequireCapability(rbac.CapCatalogWrite))
				r.Get("/products/new", opts.Handlers.ProductNew)
				r.Post("/products", opts.Handlers.ProductCreate)
				r.Get("/products/{id}/edit", opts.Handlers.ProductEdit)
				r.Post("/products/{id}", opts.Handlers.ProductUpdate)
			})

			r.With(custommw.RequireCapability(rbac.CapCatalogDelete)).Post("/products/{id}/delete", opts.Handlers.ProductDelete)
		})
	}

	if base == "/" {
		router.Group(routes)
		return
	}
	router.Route(base, routes)
}

// RegisterFragment registers a GET handler intended for htmx fragment rendering.
func RegisterFragment(r chi.Router, pattern string, handler http.HandlerFunc) {
	r.With(custommw.RequireHTMX()).Get(pattern, handler)
}
