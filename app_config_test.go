package authflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadAppConfigJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{
  "apiUrl": "https://corp-dev.example.com",
  "featureFlag": true,
  "siteKey": "",
  "mapAPIKey": "",
  "idle": 1800,
  "timeout": 30,
  "keepalive": 900
}`)

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := AppConfig{
		APIURL:      "https://corp-dev.example.com",
		FeatureFlag: true,
		Idle:        1800,
		Timeout:     30,
		Keepalive:   900,
	}
	if cfg != want {
		t.Fatalf("expected %+v, got %+v", want, cfg)
	}
	if cfg.IdleAfter() != 30*time.Minute || cfg.IdleTimeout() != 30*time.Second || cfg.KeepaliveInterval() != 15*time.Minute {
		t.Fatalf("unexpected durations: %v %v %v", cfg.IdleAfter(), cfg.IdleTimeout(), cfg.KeepaliveInterval())
	}
}

func TestLoadAppConfigRejectsNegativeDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "keepalive: -5\n")

	if _, err := LoadAppConfig(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestAppConfigWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "siteKey: first\n")

	w, err := NewAppConfigWatcher(path, nil)
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	defer w.Close()

	if got := w.Current().SiteKey; got != "first" {
		t.Fatalf("expected initial site key, got %q", got)
	}

	changes := make(chan AppConfig, 8)
	unsubscribe := w.Subscribe(func(cfg AppConfig) {
		select {
		case changes <- cfg:
		default:
		}
	})
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	writeFile(t, path, "siteKey: second\n")

	// A rewrite may be seen as truncate then write; wait for the final
	// content.
	deadline := time.After(5 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case cfg := <-changes:
			reloaded = cfg.SiteKey == "second"
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
	if got := w.Current().SiteKey; got != "second" {
		t.Fatalf("expected current site key to be updated, got %q", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("run did not stop on cancel")
	}
}

func TestAppConfigWatcherKeepsPreviousOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "siteKey: good\n")

	w, err := NewAppConfigWatcher(path, nil)
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	defer w.Close()

	writeFile(t, path, "siteKey: [broken\n")
	w.reload()

	if got := w.Current().SiteKey; got != "good" {
		t.Fatalf("expected previous config to be kept, got %q", got)
	}
}

func TestNewAppConfigWatcherMissingFile(t *testing.T) {
	if _, err := NewAppConfigWatcher(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}
