package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"

	"github.com/AquaViinaDev/front-admin/internal/admin/catalog"
	"github.com/AquaViinaDev/front-admin/internal/admin/config"
	"github.com/AquaViinaDev/front-admin/internal/admin/httpserver"
	"github.com/AquaViinaDev/front-admin/internal/admin/httpserver/middleware"
	"github.com/AquaViinaDev/front-admin/internal/admin/observability"
	"github.com/AquaViinaDev/front-admin/internal/admin/products"
	appsession "github.com/AquaViinaDev/front-admin/internal/admin/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger, _ := observability.NewLogger("info")
		logger.Fatal("load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("admin server stopped", zap.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	sessions, err := buildSessionManager(cfg, logger)
	if err != nil {
		return err
	}
	service, err := buildProductsService(cfg, logger)
	if err != nil {
		return err
	}
	authenticator, err := buildAuthenticator(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv, err := httpserver.New(httpserver.Config{
		Address:          cfg.Server.Address,
		BasePath:         cfg.Server.BasePath,
		Environment:      cfg.Server.Environment,
		Logger:           logger,
		Authenticator:    authenticator,
		SessionStore:     sessions,
		Products:         service,
		Schema:           catalog.DefaultSchema(),
		APIBaseURL:       cfg.API.BaseURL,
		CSRFCookieSecure: cfg.Session.CookieSecure,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("admin server listening",
		zap.String("addr", cfg.Server.Address),
		zap.String("base_path", cfg.Server.BasePath),
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.String("backend", string(cfg.API.Backend)),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildSessionManager(cfg config.Config, logger *zap.Logger) (*appsession.Manager, error) {
	hashKey := cfg.Session.HashKey
	if len(hashKey) == 0 {
		if cfg.Server.Production() {
			return nil, errors.New("ADMIN_SESSION_HASH_KEY is required in production")
		}
		logger.Warn("ADMIN_SESSION_HASH_KEY not set; sessions will not survive a restart")
		hashKey = appsession.GenerateKey()
	}
	return appsession.NewManager(appsession.Config{
		CookieName:   cfg.Session.CookieName,
		HashKey:      hashKey,
		BlockKey:     cfg.Session.BlockKey,
		CookiePath:   cfg.Server.BasePath,
		CookieSecure: cfg.Session.CookieSecure,
		IdleTimeout:  cfg.Session.IdleTimeout,
	})
}

func buildProductsService(cfg config.Config, logger *zap.Logger) (products.Service, error) {
	if cfg.API.Backend == config.BackendStatic {
		logger.Warn("using in-memory catalog; changes are lost on restart")
		return products.NewStaticService(nil), nil
	}
	return products.NewHTTPService(cfg.API.BaseURL, &http.Client{Timeout: cfg.API.Timeout},
		products.WithPageSize(cfg.API.PageSize),
		products.WithMaxPages(cfg.API.MaxPages),
		products.WithLogger(logger),
	)
}

func buildAuthenticator(ctx context.Context, cfg config.Config, logger *zap.Logger) (middleware.Authenticator, error) {
	projectID := cfg.Firebase.ProjectID
	if projectID == "" {
		if cfg.Server.Production() {
			return nil, errors.New("FIREBASE_PROJECT_ID is required in production")
		}
		logger.Warn("FIREBASE_PROJECT_ID not set; using passthrough authenticator")
		return middleware.DefaultAuthenticator(), nil
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("initialise firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase auth client: %w", err)
	}

	logger.Info("firebase authenticator enabled", zap.String("project_id", projectID))
	return middleware.NewFirebaseAuthenticator(client), nil
}
