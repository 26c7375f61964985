package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func validKey() string {
	return base64.StdEncoding.EncodeToString(make([]byte, 32))
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
dsn: "user:pass@tcp(localhost:3306)/strategiz"
token_key: "`+validKey()+`"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.Auth.AccessTTL.Std() != 24*time.Hour {
		t.Errorf("access ttl = %v", cfg.Auth.AccessTTL.Std())
	}
	if cfg.Auth.RefreshTTL.Std() != 168*time.Hour {
		t.Errorf("refresh ttl = %v", cfg.Auth.RefreshTTL.Std())
	}
	if cfg.Auth.ChallengeTTL.Std() != 5*time.Minute {
		t.Errorf("challenge ttl = %v", cfg.Auth.ChallengeTTL.Std())
	}
	if cfg.Auth.SweepInterval.Std() != time.Hour {
		t.Errorf("sweep interval = %v", cfg.Auth.SweepInterval.Std())
	}
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfig(t, `
dsn: "user:pass@tcp(localhost:3306)/strategiz"
token_key: "`+validKey()+`"
auth:
  access_ttl: 12h
  challenge_ttl: 90s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.AccessTTL.Std() != 12*time.Hour {
		t.Errorf("access ttl = %v", cfg.Auth.AccessTTL.Std())
	}
	if cfg.Auth.ChallengeTTL.Std() != 90*time.Second {
		t.Errorf("challenge ttl = %v", cfg.Auth.ChallengeTTL.Std())
	}
}

func TestLoadClampsRefreshTTL(t *testing.T) {
	path := writeConfig(t, `
dsn: "user:pass@tcp(localhost:3306)/strategiz"
token_key: "`+validKey()+`"
auth:
  refresh_ttl: 2160h
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Auth.RefreshTTL.Std() != 30*24*time.Hour {
		t.Errorf("refresh ttl = %v, want clamped to 720h", cfg.Auth.RefreshTTL.Std())
	}

	path = writeConfig(t, `
dsn: "user:pass@tcp(localhost:3306)/strategiz"
token_key: "`+validKey()+`"
auth:
  refresh_ttl: 24h
`)
	cfg, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Auth.RefreshTTL.Std() != 7*24*time.Hour {
		t.Errorf("refresh ttl = %v, want clamped to 168h", cfg.Auth.RefreshTTL.Std())
	}
}

func TestLoadRejectsMissingTokenKey(t *testing.T) {
	path := writeConfig(t, `
dsn: "user:pass@tcp(localhost:3306)/strategiz"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted a config without token_key")
	}
}

func TestLoadRejectsShortTokenKey(t *testing.T) {
	short := base64.StdEncoding.EncodeToString(make([]byte, 16))
	path := writeConfig(t, `
dsn: "user:pass@tcp(localhost:3306)/strategiz"
token_key: "`+short+`"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted a 16-byte token key")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
dsn: "from-file"
token_key: "`+validKey()+`"
`)
	t.Setenv("STRATEGIZ_DSN", "from-env")
	t.Setenv("STRATEGIZ_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DSN != "from-env" {
		t.Errorf("dsn = %q", cfg.DSN)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", cfg.AllowedOrigins)
	}
}
