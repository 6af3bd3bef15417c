package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/MrEthical07/authflow/signal"
)

// AppConfig is the runtime configuration published next to the portal.
// Durations are in seconds. The file may be YAML or JSON.
type AppConfig struct {
	APIURL      string `yaml:"apiUrl" json:"apiUrl"`
	FeatureFlag bool   `yaml:"featureFlag" json:"featureFlag"`
	// SiteKey is the captcha site key sent with every login.
	SiteKey   string `yaml:"siteKey" json:"siteKey"`
	MapAPIKey string `yaml:"mapAPIKey" json:"mapAPIKey"`
	Idle      int    `yaml:"idle" json:"idle"`
	Timeout   int    `yaml:"timeout" json:"timeout"`
	Keepalive int    `yaml:"keepalive" json:"keepalive"`
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Idle:      1800,
		Timeout:   30,
		Keepalive: 900,
	}
}

// IdleAfter is the inactivity period before the idle warning.
func (a AppConfig) IdleAfter() time.Duration {
	return time.Duration(a.Idle) * time.Second
}

// IdleTimeout is how long the idle warning waits before logging out.
func (a AppConfig) IdleTimeout() time.Duration {
	return time.Duration(a.Timeout) * time.Second
}

// KeepaliveInterval is the session keepalive period.
func (a AppConfig) KeepaliveInterval() time.Duration {
	return time.Duration(a.Keepalive) * time.Second
}

// Merge overlays the non-zero fields of other onto a.
func (a *AppConfig) Merge(other AppConfig) {
	if other.APIURL != "" {
		a.APIURL = other.APIURL
	}
	if other.FeatureFlag {
		a.FeatureFlag = true
	}
	if other.SiteKey != "" {
		a.SiteKey = other.SiteKey
	}
	if other.MapAPIKey != "" {
		a.MapAPIKey = other.MapAPIKey
	}
	if other.Idle != 0 {
		a.Idle = other.Idle
	}
	if other.Timeout != 0 {
		a.Timeout = other.Timeout
	}
	if other.Keepalive != 0 {
		a.Keepalive = other.Keepalive
	}
}

func (a AppConfig) validate() error {
	if a.Idle < 0 || a.Timeout < 0 || a.Keepalive < 0 {
		return invalid("App idle, timeout and keepalive must be >= 0")
	}
	return nil
}

// LoadAppConfig reads a YAML or JSON app config over the defaults.
func LoadAppConfig(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("failed to read app config: %w", err)
	}

	cfg := defaultAppConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to parse app config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// AppConfigWatcher reloads an app config file when it changes on disk.
// The directory is watched so that editors replacing the file by rename
// are seen as well.
type AppConfigWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	current *signal.Cell[AppConfig]
}

// NewAppConfigWatcher loads path and starts watching its directory. Events
// are processed by Run.
func NewAppConfigWatcher(path string, logger *slog.Logger) (*AppConfigWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve app config path: %w", err)
	}
	cfg, err := LoadAppConfig(abs)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &AppConfigWatcher{
		path:    abs,
		watcher: fsw,
		logger:  logger.With(slog.String("path", abs)),
		current: signal.New(cfg),
	}, nil
}

// Current returns the last successfully loaded config.
func (w *AppConfigWatcher) Current() AppConfig {
	return w.current.Get()
}

// Subscribe registers fn for config changes.
func (w *AppConfigWatcher) Subscribe(fn func(AppConfig)) func() {
	return w.current.Subscribe(fn)
}

// Run processes file events until ctx is done or Close is called. A file
// that fails to parse is logged and the previous config is kept.
func (w *AppConfigWatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("app config watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *AppConfigWatcher) reload() {
	cfg, err := LoadAppConfig(w.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.logger.Warn("app config reload failed", slog.String("error", err.Error()))
		}
		return
	}
	if cfg == w.current.Get() {
		return
	}
	w.current.Set(cfg)
	w.logger.Info("app config reloaded")
}

// Close stops watching.
func (w *AppConfigWatcher) Close() error {
	return w.watcher.Close()
}

// WatchAppConfig calls onChange with every new version of the app config
// at path until ctx is done.
func WatchAppConfig(ctx context.Context, path string, logger *slog.Logger, onChange func(AppConfig)) error {
	w, err := NewAppConfigWatcher(path, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	if onChange != nil {
		unsubscribe := w.Subscribe(onChange)
		defer unsubscribe()
	}
	return w.Run(ctx)
}
