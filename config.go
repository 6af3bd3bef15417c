package authflow

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete client configuration. The zero value is not
// usable; start from DefaultConfig or LoadConfigFile.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	OTP     OTPConfig     `yaml:"otp"`
	Audit   AuditConfig   `yaml:"audit"`
	Metrics MetricsConfig `yaml:"metrics"`
	App     AppConfig     `yaml:"app"`

	// Logger receives every component's logs. nil selects slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// APIConfig locates the backend and the portal routes.
type APIConfig struct {
	// BaseURL is the backend origin. When empty, App.APIURL is used.
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
	// LoginPath is the navigation target after an expired session.
	LoginPath string `yaml:"loginPath"`
	// HomePath is the navigation target after login.
	HomePath string `yaml:"homePath"`
	// Language is the initial UI language sent as Accept-Language.
	Language string `yaml:"language"`
}

// SessionConfig selects where the token record lives and when it is
// considered stale.
type SessionConfig struct {
	// Key is the storage key of the token record.
	Key string `yaml:"key"`
	// RefreshSkew is how long before expiry EnsureFresh refreshes.
	RefreshSkew time.Duration `yaml:"refreshSkew"`
	RedisPrefix string        `yaml:"redisPrefix"`
	// RedisTTL bounds the lifetime of the Redis record. Zero keeps it until
	// cleared.
	RedisTTL time.Duration `yaml:"redisTtl"`
	// FileDir enables sealed file storage when no Storage or Redis client is
	// given.
	FileDir string `yaml:"fileDir"`
	// Passphrase seals the token file. Empty stores it in clear.
	Passphrase string `yaml:"passphrase"`
}

// OTPConfig tunes every OTP challenge.
type OTPConfig struct {
	CodeLength int           `yaml:"codeLength"`
	Timer      time.Duration `yaml:"timer"`
	Tick       time.Duration `yaml:"tick"`
	Attempts   int           `yaml:"attempts"`
	// UnlockTimezone interprets zone-less unlock timestamps of
	// LOCKED_TEMPORARILY. Empty means UTC.
	UnlockTimezone string `yaml:"unlockTimezone"`
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"bufferSize"`
	DropIfFull bool `yaml:"dropIfFull"`
}

// MetricsConfig controls in-process metrics.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enableLatencyHistograms"`
}

// DefaultConfig returns the portal defaults. API.BaseURL must still be set.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout:   30 * time.Second,
			LoginPath: "/login",
			HomePath:  "/",
			Language:  "EN",
		},
		Session: SessionConfig{
			Key:         "auth_tokens",
			RefreshSkew: 30 * time.Second,
			RedisPrefix: "authflow",
		},
		OTP: OTPConfig{
			CodeLength: 6,
			Timer:      90 * time.Second,
			Tick:       time.Second,
			Attempts:   3,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		App: defaultAppConfig(),
	}
}

// LoadConfigFile reads a YAML config file over DefaultConfig.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Merge overlays the non-zero fields of other onto c. Booleans can only be
// switched on.
func (c *Config) Merge(other Config) {
	// API
	if other.API.BaseURL != "" {
		c.API.BaseURL = other.API.BaseURL
	}
	if other.API.Timeout != 0 {
		c.API.Timeout = other.API.Timeout
	}
	if other.API.LoginPath != "" {
		c.API.LoginPath = other.API.LoginPath
	}
	if other.API.HomePath != "" {
		c.API.HomePath = other.API.HomePath
	}
	if other.API.Language != "" {
		c.API.Language = other.API.Language
	}

	// Session
	if other.Session.Key != "" {
		c.Session.Key = other.Session.Key
	}
	if other.Session.RefreshSkew != 0 {
		c.Session.RefreshSkew = other.Session.RefreshSkew
	}
	if other.Session.RedisPrefix != "" {
		c.Session.RedisPrefix = other.Session.RedisPrefix
	}
	if other.Session.RedisTTL != 0 {
		c.Session.RedisTTL = other.Session.RedisTTL
	}
	if other.Session.FileDir != "" {
		c.Session.FileDir = other.Session.FileDir
	}
	if other.Session.Passphrase != "" {
		c.Session.Passphrase = other.Session.Passphrase
	}

	// OTP
	if other.OTP.CodeLength != 0 {
		c.OTP.CodeLength = other.OTP.CodeLength
	}
	if other.OTP.Timer != 0 {
		c.OTP.Timer = other.OTP.Timer
	}
	if other.OTP.Tick != 0 {
		c.OTP.Tick = other.OTP.Tick
	}
	if other.OTP.Attempts != 0 {
		c.OTP.Attempts = other.OTP.Attempts
	}
	if other.OTP.UnlockTimezone != "" {
		c.OTP.UnlockTimezone = other.OTP.UnlockTimezone
	}

	// Audit and metrics
	if other.Audit.Enabled {
		c.Audit.Enabled = true
	}
	if other.Audit.BufferSize != 0 {
		c.Audit.BufferSize = other.Audit.BufferSize
	}
	if other.Audit.DropIfFull {
		c.Audit.DropIfFull = true
	}
	if other.Metrics.Enabled {
		c.Metrics.Enabled = true
	}
	if other.Metrics.EnableLatencyHistograms {
		c.Metrics.EnableLatencyHistograms = true
	}

	c.App.Merge(other.App)

	if other.Logger != nil {
		c.Logger = other.Logger
	}
}

// BaseURL returns API.BaseURL, falling back to App.APIURL.
func (c *Config) BaseURL() string {
	if strings.TrimSpace(c.API.BaseURL) != "" {
		return strings.TrimSpace(c.API.BaseURL)
	}
	return strings.TrimSpace(c.App.APIURL)
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first unusable setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	// API
	if c.BaseURL() == "" {
		return invalid("API BaseURL or App apiUrl is required")
	}
	if c.API.Timeout < 0 {
		return invalid("API Timeout must be >= 0")
	}
	if !strings.HasPrefix(c.API.LoginPath, "/") {
		return invalid("API LoginPath must start with /")
	}
	if !strings.HasPrefix(c.API.HomePath, "/") {
		return invalid("API HomePath must start with /")
	}

	// Session
	if strings.TrimSpace(c.Session.Key) == "" {
		return invalid("Session Key must not be blank")
	}
	if c.Session.RefreshSkew < 0 {
		return invalid("Session RefreshSkew must be >= 0")
	}
	if c.Session.RedisTTL < 0 {
		return invalid("Session RedisTTL must be >= 0")
	}

	// OTP
	if c.OTP.CodeLength <= 0 {
		return invalid("OTP CodeLength must be > 0")
	}
	if c.OTP.Timer <= 0 {
		return invalid("OTP Timer must be > 0")
	}
	if c.OTP.Tick <= 0 || c.OTP.Tick > c.OTP.Timer {
		return invalid("OTP Tick must be > 0 and <= Timer")
	}
	if c.OTP.Attempts <= 0 {
		return invalid("OTP Attempts must be > 0")
	}
	if _, err := c.unlockLocation(); err != nil {
		return fmt.Errorf("%w: OTP UnlockTimezone: %v", ErrInvalidConfig, err)
	}

	// Audit / metrics
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return invalid("Audit BufferSize must be > 0 when audit is enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return invalid("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return c.App.validate()
}

func (c *Config) unlockLocation() (*time.Location, error) {
	if c.OTP.UnlockTimezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.OTP.UnlockTimezone)
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}
