package assets

import (
	"testing"
	"time"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.framesInFlight != DefaultFramesInFlight {
		t.Errorf("framesInFlight = %d, want %d", o.framesInFlight, DefaultFramesInFlight)
	}
	if o.reloadDebounce != DefaultReloadDebounce {
		t.Errorf("reloadDebounce = %v, want %v", o.reloadDebounce, DefaultReloadDebounce)
	}
	if o.hotReload || o.mipmaps || o.spawner != nil {
		t.Errorf("unexpected defaults: %+v", o)
	}
	if o.failureRates[time.Second] != 1 || o.failureRates[time.Minute] != 5 {
		t.Errorf("failureRates = %v", o.failureRates)
	}
}

func TestOptionsApply(t *testing.T) {
	o := defaultOptions()
	for _, opt := range []Option{
		WithRootPath("res"),
		WithWorkers(3),
		WithFramesInFlight(-1),
		WithHotReload(true),
		WithReloadDebounce(0),
		WithMaxTextureSize(512),
		WithMipmaps(true),
		WithMaxDecodePixels(1024),
		WithFailureLogRate(nil),
	} {
		opt(&o)
	}

	if o.rootPath != "res" || o.workers != 3 {
		t.Errorf("rootPath, workers = %q, %d", o.rootPath, o.workers)
	}
	if o.framesInFlight != 0 {
		t.Errorf("negative frames in flight should clamp to 0, got %d", o.framesInFlight)
	}
	if o.reloadDebounce != DefaultReloadDebounce {
		t.Errorf("zero debounce should keep the default, got %v", o.reloadDebounce)
	}
	if !o.hotReload || !o.mipmaps || o.maxTextureSize != 512 {
		t.Errorf("flags not applied: %+v", o)
	}
	if o.maxPixels != 1024 {
		t.Errorf("maxPixels = %d, want 1024", o.maxPixels)
	}
	if o.failureRates != nil {
		t.Errorf("failureRates = %v, want nil", o.failureRates)
	}
}
