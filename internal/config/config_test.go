package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validJSON = `{
  "abra": {
    "host": "http://erp.local:699",
    "database": "Prod",
    "username": "api",
    "password": "secret"
  }
}`

func TestLoad_JSON(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.json", validJSON))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Abra.Host != "http://erp.local:699" || cfg.Abra.Database != "Prod" {
		t.Errorf("abra = %+v", cfg.Abra)
	}
	// Defaults fill the rest.
	if cfg.Abra.TimeoutSeconds != 30 || cfg.Abra.MaxRetries != 3 {
		t.Errorf("defaults not applied: %+v", cfg.Abra)
	}
	if cfg.Server.Transport != "stdio" {
		t.Errorf("transport = %q", cfg.Server.Transport)
	}
}

func TestLoad_YAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", `
abra:
  host: http://erp.local:699
  database: Prod
  username: api
  password: secret
server:
  transport: http
  port: 9000
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Transport != "http" || cfg.Server.Port != 9000 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Abra.Username != "api" {
		t.Errorf("abra = %+v", cfg.Abra)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_ABRA_PW", "from-env")
	cfg, err := Load(writeConfig(t, "config.json", `{
  "abra": {
    "host": "http://erp.local:699",
    "database": "Prod",
    "username": "api",
    "password": "${TEST_ABRA_PW}"
  }
}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Abra.Password != "from-env" {
		t.Errorf("password = %q", cfg.Abra.Password)
	}
}

func TestExpandEnvVars_Default(t *testing.T) {
	os.Unsetenv("DEFINITELY_UNSET_VAR")
	got := ExpandEnvVars("host: ${DEFINITELY_UNSET_VAR:-http://fallback}")
	if got != "host: http://fallback" {
		t.Errorf("got %q", got)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ABRA_HOST", "http://override:700")
	t.Setenv("ABRA_TIMEOUT", "60")
	cfg, err := Load(writeConfig(t, "config.json", validJSON))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Abra.Host != "http://override:700" {
		t.Errorf("host = %q", cfg.Abra.Host)
	}
	if cfg.Abra.TimeoutSeconds != 60 {
		t.Errorf("timeout = %d", cfg.Abra.TimeoutSeconds)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("ABRA_HOST", "http://env.local:699")
	t.Setenv("ABRA_DATABASE", "Demo")
	t.Setenv("ABRA_USERNAME", "api")
	t.Setenv("ABRA_PASSWORD", "pw")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.Abra.Host != "http://env.local:699" {
		t.Errorf("host = %q", cfg.Abra.Host)
	}
}

func TestValidate_MissingCredentials(t *testing.T) {
	cfg := Defaults()
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for missing credentials")
	}
	if !strings.Contains(err.Error(), "abra.username") || !strings.Contains(err.Error(), "abra.password") {
		t.Errorf("error = %v", err)
	}
}

func TestValidate_BadTransport(t *testing.T) {
	cfg := Defaults()
	cfg.Abra.Username = "u"
	cfg.Abra.Password = "p"
	cfg.Server.Transport = "carrier-pigeon"
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "server.transport") {
		t.Errorf("error = %v", err)
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"http://localhost:699", "http://localhost:699/Demo"},
		{"http://localhost:699/", "http://localhost:699/Demo"},
		{"http://localhost:699//", "http://localhost:699/Demo"},
	}
	for _, tt := range tests {
		a := AbraConfig{Host: tt.host, Database: "Demo"}
		if got := a.BaseURL(); got != tt.want {
			t.Errorf("BaseURL(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Defaults()
	cfg.Abra.Username = "u"
	cfg.Abra.Password = "p"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Abra.Username != "u" {
		t.Errorf("round-trip lost username")
	}
}
