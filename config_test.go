package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assets.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
root = "res"
workers = 3
frames_in_flight = 0
mipmaps = true
max_texture_size = 1024
max_decode_pixels = 4096

[hot_reload]
enabled = true
debounce = "250ms"

[failure_log]
per_second = 2
per_minute = 10
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}
	o := applyOptions(opts)

	if o.rootPath != "res" || o.workers != 3 || !o.mipmaps || o.maxTextureSize != 1024 {
		t.Errorf("options = %+v", o)
	}
	if o.framesInFlight != 0 {
		t.Errorf("framesInFlight = %d, want explicit 0", o.framesInFlight)
	}
	if o.maxPixels != 4096 {
		t.Errorf("maxPixels = %d, want 4096", o.maxPixels)
	}
	if !o.hotReload || o.reloadDebounce != 250*time.Millisecond {
		t.Errorf("hot reload = %v, %v", o.hotReload, o.reloadDebounce)
	}
	if o.failureRates[time.Second] != 2 || o.failureRates[time.Minute] != 10 {
		t.Errorf("failureRates = %v", o.failureRates)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `root = "res"`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}
	o := applyOptions(opts)
	if o.framesInFlight != DefaultFramesInFlight {
		t.Errorf("framesInFlight = %d, want %d", o.framesInFlight, DefaultFramesInFlight)
	}
	if o.reloadDebounce != DefaultReloadDebounce {
		t.Errorf("reloadDebounce = %v, want %v", o.reloadDebounce, DefaultReloadDebounce)
	}
	if len(o.failureRates) != 2 {
		t.Errorf("failureRates = %v, want defaults", o.failureRates)
	}

	cfg.FailureLog.PerSecond = -1
	opts, _ = cfg.Options()
	if o := applyOptions(opts); o.failureRates != nil {
		t.Errorf("negative rate left limiting on: %v", o.failureRates)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadConfig(missing) succeeded")
	}

	_, err := LoadConfig(writeConfig(t, "rooot = \"res\"\n"))
	if err == nil || !strings.Contains(err.Error(), "rooot") {
		t.Errorf("LoadConfig(unknown key) error = %v, want mention of the key", err)
	}

	cfg, err := LoadConfig(writeConfig(t, "[hot_reload]\ndebounce = \"soon\"\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if _, err := cfg.Options(); err == nil {
		t.Error("Options with invalid debounce succeeded")
	}
}
