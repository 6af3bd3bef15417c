package authflow

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://ebanking.example.com"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults with base url",
			mutate:    func(*Config) {},
			wantValid: true,
		},
		{
			name: "base url from app config",
			mutate: func(c *Config) {
				c.API.BaseURL = ""
				c.App.APIURL = "https://corp.example.com"
			},
			wantValid: true,
		},
		{
			name: "no base url",
			mutate: func(c *Config) {
				c.API.BaseURL = "  "
			},
			wantValid: false,
		},
		{
			name: "negative timeout",
			mutate: func(c *Config) {
				c.API.Timeout = -time.Second
			},
			wantValid: false,
		},
		{
			name: "relative login path",
			mutate: func(c *Config) {
				c.API.LoginPath = "login"
			},
			wantValid: false,
		},
		{
			name: "blank session key",
			mutate: func(c *Config) {
				c.Session.Key = " "
			},
			wantValid: false,
		},
		{
			name: "negative refresh skew",
			mutate: func(c *Config) {
				c.Session.RefreshSkew = -time.Second
			},
			wantValid: false,
		},
		{
			name: "otp tick longer than timer",
			mutate: func(c *Config) {
				c.OTP.Tick = 2 * time.Minute
			},
			wantValid: false,
		},
		{
			name: "otp zero attempts",
			mutate: func(c *Config) {
				c.OTP.Attempts = 0
			},
			wantValid: false,
		},
		{
			name: "unlock timezone valid",
			mutate: func(c *Config) {
				c.OTP.UnlockTimezone = "UTC"
			},
			wantValid: true,
		},
		{
			name: "unlock timezone invalid",
			mutate: func(c *Config) {
				c.OTP.UnlockTimezone = "Mars/Olympus"
			},
			wantValid: false,
		},
		{
			name: "audit enabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "latency without metrics",
			mutate: func(c *Config) {
				c.Metrics.EnableLatencyHistograms = true
			},
			wantValid: false,
		},
		{
			name: "negative idle",
			mutate: func(c *Config) {
				c.App.Idle = -1
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("expected ErrInvalidConfig, got %v", err)
				}
			}
		})
	}
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authflow.yaml")
	data := []byte(`
api:
  baseUrl: https://ebanking.example.com
  timeout: 10s
session:
  refreshSkew: 1m
  redisPrefix: portal
otp:
  timer: 60s
audit:
  enabled: true
app:
  siteKey: site-key
  idle: 600
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.API.BaseURL != "https://ebanking.example.com" || cfg.API.Timeout != 10*time.Second {
		t.Fatalf("unexpected api config: %+v", cfg.API)
	}
	if cfg.Session.RefreshSkew != time.Minute || cfg.Session.RedisPrefix != "portal" {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Session.Key != "auth_tokens" {
		t.Fatalf("expected default session key to survive, got %q", cfg.Session.Key)
	}
	if cfg.OTP.Timer != 60*time.Second || cfg.OTP.CodeLength != 6 {
		t.Fatalf("unexpected otp config: %+v", cfg.OTP)
	}
	if !cfg.Audit.Enabled || cfg.Audit.BufferSize != 1024 {
		t.Fatalf("unexpected audit config: %+v", cfg.Audit)
	}
	if cfg.App.SiteKey != "site-key" || cfg.App.Idle != 600 || cfg.App.Keepalive != 900 {
		t.Fatalf("unexpected app config: %+v", cfg.App)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config invalid: %v", err)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("api: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConfigMerge(t *testing.T) {
	cfg := validTestConfig()
	cfg.Merge(Config{
		API:     APIConfig{LoginPath: "/auth/login"},
		Session: SessionConfig{RefreshSkew: time.Minute},
		Metrics: MetricsConfig{Enabled: true},
		App:     AppConfig{SiteKey: "k", FeatureFlag: true},
	})

	if cfg.API.LoginPath != "/auth/login" {
		t.Fatalf("expected merged login path, got %q", cfg.API.LoginPath)
	}
	if cfg.API.BaseURL != "https://ebanking.example.com" {
		t.Fatalf("zero fields must not override, got %q", cfg.API.BaseURL)
	}
	if cfg.Session.RefreshSkew != time.Minute || !cfg.Metrics.Enabled {
		t.Fatalf("unexpected merge result: %+v %+v", cfg.Session, cfg.Metrics)
	}
	if cfg.App.SiteKey != "k" || !cfg.App.FeatureFlag || cfg.App.Idle != 1800 {
		t.Fatalf("unexpected app merge result: %+v", cfg.App)
	}
	if !cfg.Audit.DropIfFull {
		t.Fatal("false booleans must not switch settings off")
	}
}
