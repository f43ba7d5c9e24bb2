package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Address != ":8080" || cfg.Server.BasePath != "/admin" {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.API.BaseURL != LocalAPIBaseURL {
		t.Fatalf("expected local API fallback, got %q", cfg.API.BaseURL)
	}
	if cfg.API.PageSize != 100 || cfg.API.MaxPages != 1000 {
		t.Fatalf("unexpected pagination defaults: %+v", cfg.API)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.API.Timeout)
	}
	if cfg.API.Backend != BackendHTTP {
		t.Fatalf("expected http backend, got %q", cfg.API.Backend)
	}
}

func TestLoadAPIBaseURLResolution(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "production fallback", env: map[string]string{"MODE": "production"}, want: ProductionAPIBaseURL},
		{name: "blank value ignored", env: map[string]string{"API_BASE_URL": "   ", "MODE": "Production"}, want: ProductionAPIBaseURL},
		{name: "development fallback", env: map[string]string{"MODE": "development"}, want: LocalAPIBaseURL},
		{name: "explicit wins", env: map[string]string{"API_BASE_URL": " https://staging.aquaviina.md/api ", "MODE": "production"}, want: "https://staging.aquaviina.md/api"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(tc.env))
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if cfg.API.BaseURL != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, cfg.API.BaseURL)
			}
		})
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "ADMIN_HTTP_ADDR=:9000\nADMIN_BASE_PATH=/panel\nexport LOG_LEVEL=\"debug\"\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ADMIN_BASE_PATH", "/from-env")

	cfg, err := Load(WithEnvFile(envFile), WithEnvMap(map[string]string{"ADMIN_HTTP_ADDR": ":7000"}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Address != ":7000" {
		t.Fatalf("explicit map should win, got %q", cfg.Server.Address)
	}
	if cfg.Server.BasePath != "/from-env" {
		t.Fatalf("system env should beat dotenv, got %q", cfg.Server.BasePath)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("dotenv value not applied, got %q", cfg.Log.Level)
	}
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(map[string]string{
		"ADMIN_PAGE_SIZE":         "lots",
		"ADMIN_MAX_PAGES":         "0",
		"ADMIN_BACKEND":           "grpc",
		"API_BASE_URL":            "localhost",
		"ADMIN_SESSION_BLOCK_KEY": "short",
	}))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{"ADMIN_PAGE_SIZE", "ADMIN_BACKEND", "API_BASE_URL", "ADMIN_MAX_PAGES", "ADMIN_SESSION_BLOCK_KEY"}
	if got := validationErr.Fields(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected fields: %v", got)
	}
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	if _, err := Load(WithoutSystemEnv(), WithEnvFile(filepath.Join(t.TempDir(), "missing.env"))); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}
