package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile     = ".env"
	defaultAddress     = ":8080"
	defaultBasePath    = "/admin"
	defaultMode        = "development"
	defaultEnvironment = "local"
	defaultAPITimeout  = 15 * time.Second
	defaultPageSize    = 100
	defaultMaxPages    = 1000

	// ProductionAPIBaseURL is used in production mode when no base URL is configured.
	ProductionAPIBaseURL = "https://aquaviina.md/api"
	// LocalAPIBaseURL is used outside production when no base URL is configured.
	LocalAPIBaseURL = "http://localhost:3000"
)

// Backend selects the products service implementation.
type Backend string

const (
	BackendHTTP   Backend = "http"
	BackendStatic Backend = "static"
)

// Config captures the runtime configuration of the admin console.
type Config struct {
	Server   ServerConfig
	API      APIConfig
	Session  SessionConfig
	Firebase FirebaseConfig
	Log      LogConfig
}

// ServerConfig configures the HTTP listener and routing.
type ServerConfig struct {
	Address         string
	BasePath        string
	Environment     string
	Mode            string
	ShutdownTimeout time.Duration
}

// Production reports whether the console runs in production mode.
func (s ServerConfig) Production() bool {
	return strings.EqualFold(s.Mode, "production")
}

// APIConfig describes the catalog backend.
type APIConfig struct {
	BaseURL  string
	Backend  Backend
	Timeout  time.Duration
	PageSize int
	MaxPages int
}

// SessionConfig holds cookie signing material and flags.
type SessionConfig struct {
	CookieName   string
	HashKey      []byte
	BlockKey     []byte
	CookieSecure bool
	IdleTimeout  time.Duration
}

// FirebaseConfig enables ID token verification when ProjectID is set.
type FirebaseConfig struct {
	ProjectID string
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string
}

// ValidationError lists configuration keys holding invalid values.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns the offending keys.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile reads defaults from the given dotenv file. An empty path disables it.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap supplies explicit values that take precedence over every other source.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load resolves configuration from explicit values, the process environment
// and a dotenv file, in that order of precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if value, ok := dotEnvValues[key]; ok {
			return value, true
		}
		return "", false
	}

	var invalid []string
	cfg := Config{
		Server: ServerConfig{
			Address:         stringWithDefault(lookup, "ADMIN_HTTP_ADDR", defaultAddress),
			BasePath:        stringWithDefault(lookup, "ADMIN_BASE_PATH", defaultBasePath),
			Environment:     stringWithDefault(lookup, "ADMIN_ENVIRONMENT", defaultEnvironment),
			Mode:            strings.ToLower(stringWithDefault(lookup, "MODE", defaultMode)),
			ShutdownTimeout: durationWithDefault(lookup, "ADMIN_SHUTDOWN_TIMEOUT", 10*time.Second, &invalid),
		},
		API: APIConfig{
			BaseURL:  stringWithDefault(lookup, "API_BASE_URL", ""),
			Backend:  Backend(strings.ToLower(stringWithDefault(lookup, "ADMIN_BACKEND", string(BackendHTTP)))),
			Timeout:  durationWithDefault(lookup, "API_TIMEOUT", defaultAPITimeout, &invalid),
			PageSize: intWithDefault(lookup, "ADMIN_PAGE_SIZE", defaultPageSize, &invalid),
			MaxPages: intWithDefault(lookup, "ADMIN_MAX_PAGES", defaultMaxPages, &invalid),
		},
		Session: SessionConfig{
			CookieName:   stringWithDefault(lookup, "ADMIN_SESSION_COOKIE", ""),
			HashKey:      []byte(stringWithDefault(lookup, "ADMIN_SESSION_HASH_KEY", "")),
			BlockKey:     []byte(stringWithDefault(lookup, "ADMIN_SESSION_BLOCK_KEY", "")),
			CookieSecure: boolWithDefault(lookup, "ADMIN_CSRF_SECURE", false),
			IdleTimeout:  durationWithDefault(lookup, "ADMIN_SESSION_IDLE_TIMEOUT", 0, &invalid),
		},
		Firebase: FirebaseConfig{
			ProjectID: stringWithDefault(lookup, "FIREBASE_PROJECT_ID", ""),
		},
		Log: LogConfig{
			Level: stringWithDefault(lookup, "LOG_LEVEL", "info"),
		},
	}

	if cfg.API.BaseURL == "" {
		if cfg.Server.Production() {
			cfg.API.BaseURL = ProductionAPIBaseURL
		} else {
			cfg.API.BaseURL = LocalAPIBaseURL
		}
	}

	if err := validate(cfg, invalid); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config, invalid []string) error {
	fields := append([]string{}, invalid...)
	if cfg.API.Backend != BackendHTTP && cfg.API.Backend != BackendStatic {
		fields = append(fields, "ADMIN_BACKEND")
	}
	if parsed, err := url.Parse(cfg.API.BaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		fields = append(fields, "API_BASE_URL")
	}
	if cfg.API.PageSize <= 0 {
		fields = append(fields, "ADMIN_PAGE_SIZE")
	}
	if cfg.API.MaxPages <= 0 {
		fields = append(fields, "ADMIN_MAX_PAGES")
	}
	if !strings.HasPrefix(cfg.Server.BasePath, "/") {
		fields = append(fields, "ADMIN_BASE_PATH")
	}
	if n := len(cfg.Session.BlockKey); n != 0 && n != 16 && n != 24 && n != 32 {
		fields = append(fields, "ADMIN_SESSION_BLOCK_KEY")
	}
	if len(fields) > 0 {
		return &ValidationError{fields: fields}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	values, err := godotenv.Read(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration, invalid *[]string) time.Duration {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err == nil {
			return d
		}
		*invalid = append(*invalid, key)
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int, invalid *[]string) int {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
		*invalid = append(*invalid, key)
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
