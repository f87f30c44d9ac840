package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgconfig "github.com/starford/nodeforge/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestStoreConfig_DefaultsToSQLite(t *testing.T) {
	cfg := StoreConfig{SQLite: SQLiteConfig{Path: "x.db"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty driver should default to sqlite: %v", err)
	}
	if cfg.Driver != StoreDriverSQLite {
		t.Errorf("driver = %q", cfg.Driver)
	}
}

func TestStoreConfig_RedisRequiresAddr(t *testing.T) {
	cfg := StoreConfig{Driver: StoreDriverRedis}
	if err := cfg.Validate(); err == nil {
		t.Fatal("redis without addr should fail")
	}
	cfg.Redis.Addr = "localhost:6379"
	if err := cfg.Validate(); err != nil {
		t.Errorf("redis with addr: %v", err)
	}
}

func TestStoreConfig_UnknownDriver(t *testing.T) {
	cfg := StoreConfig{Driver: "postgres"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown driver should fail")
	}
}

func TestStoreConfig_SQLiteRequiresPath(t *testing.T) {
	cfg := StoreConfig{Driver: StoreDriverSQLite}
	if err := cfg.Validate(); err == nil {
		t.Fatal("sqlite without path should fail")
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("NODEFORGE_TOKEN", "s3cret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  log_level: debug
  http:
    port: 9090
store:
  driver: redis
  redis:
    addr: redis:6379
    db: 2
options:
  path: /etc/nodeforge/options.yaml
auth:
  mode: token
  token: ${NODEFORGE_TOKEN}
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug || cfg.App.HTTP.Port != 9090 {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Store.Redis.Addr != "redis:6379" || cfg.Store.Redis.DB != 2 || cfg.Store.Redis.Prefix != "nodeforge:" {
		t.Errorf("redis = %+v", cfg.Store.Redis)
	}
	if cfg.Auth.Token != "s3cret" {
		t.Errorf("token = %q", cfg.Auth.Token)
	}
}
