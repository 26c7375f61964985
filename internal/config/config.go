package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so configs can say "24h" instead of
// nanosecond integers.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type AuthConfig struct {
	AccessTTL        Duration `yaml:"access_ttl"`
	RefreshTTL       Duration `yaml:"refresh_ttl"`
	ChallengeTTL     Duration `yaml:"challenge_ttl"`
	ExpiredRetention Duration `yaml:"expired_retention"`
	RevokedRetention Duration `yaml:"revoked_retention"`
	SweepInterval    Duration `yaml:"sweep_interval"`
}

type PasskeyConfig struct {
	RPID   string `yaml:"rp_id"`
	RPName string `yaml:"rp_name"`
	Origin string `yaml:"origin"`
}

type MarketConfig struct {
	TickerTTL Duration `yaml:"ticker_ttl"`
}

type AppConfig struct {
	Port           int      `yaml:"port"`
	Env            string   `yaml:"env"`
	DSN            string   `yaml:"dsn"`
	RedisURL       string   `yaml:"redis_url"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// TokenKey is the base64-encoded 32-byte session token key.
	TokenKey string `yaml:"token_key"`

	Auth    AuthConfig    `yaml:"auth"`
	Passkey PasskeyConfig `yaml:"passkey"`
	Market  MarketConfig  `yaml:"market"`
}

// DecodedTokenKey returns the raw key bytes. The key must decode to
// exactly 32 bytes.
func (c *AppConfig) DecodedTokenKey() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(c.TokenKey)
	if err != nil {
		return nil, fmt.Errorf("config: token_key is not valid base64: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("config: token_key must decode to 32 bytes, got %d", len(raw))
	}
	return raw, nil
}

func (c *AppConfig) IsProd() bool { return c.Env == "production" }

// Load reads the YAML config at path, applies environment overrides and
// defaults, and validates required fields.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if cfg.DSN == "" {
		return nil, fmt.Errorf("config: dsn is required (or set STRATEGIZ_DSN)")
	}
	if cfg.TokenKey == "" {
		return nil, fmt.Errorf("config: token_key is required (or set STRATEGIZ_TOKEN_KEY)")
	}
	if _, err := cfg.DecodedTokenKey(); err != nil {
		return nil, err
	}

	// Refresh lifetime is clamped to a sane window so a typo in the
	// config cannot mint near-immortal tokens.
	if cfg.Auth.RefreshTTL.Std() < 7*24*time.Hour {
		cfg.Auth.RefreshTTL = Duration(7 * 24 * time.Hour)
	}
	if cfg.Auth.RefreshTTL.Std() > 30*24*time.Hour {
		cfg.Auth.RefreshTTL = Duration(30 * 24 * time.Hour)
	}

	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("STRATEGIZ_DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("STRATEGIZ_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("STRATEGIZ_TOKEN_KEY"); v != "" {
		cfg.TokenKey = v
	}
	if v := os.Getenv("STRATEGIZ_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("STRATEGIZ_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitAndTrim(v)
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = "redis://localhost:6379/0"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Auth.AccessTTL == 0 {
		cfg.Auth.AccessTTL = Duration(24 * time.Hour)
	}
	if cfg.Auth.RefreshTTL == 0 {
		cfg.Auth.RefreshTTL = Duration(168 * time.Hour)
	}
	if cfg.Auth.ChallengeTTL == 0 {
		cfg.Auth.ChallengeTTL = Duration(5 * time.Minute)
	}
	if cfg.Auth.ExpiredRetention == 0 {
		cfg.Auth.ExpiredRetention = Duration(168 * time.Hour)
	}
	if cfg.Auth.RevokedRetention == 0 {
		cfg.Auth.RevokedRetention = Duration(24 * time.Hour)
	}
	if cfg.Auth.SweepInterval == 0 {
		cfg.Auth.SweepInterval = Duration(time.Hour)
	}
	if cfg.Passkey.RPID == "" {
		cfg.Passkey.RPID = "localhost"
	}
	if cfg.Passkey.RPName == "" {
		cfg.Passkey.RPName = "Strategiz"
	}
	if cfg.Passkey.Origin == "" {
		cfg.Passkey.Origin = "http://localhost:3000"
	}
	if cfg.Market.TickerTTL == 0 {
		cfg.Market.TickerTTL = Duration(10 * time.Second)
	}
}
