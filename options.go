package assets

import (
	"time"

	"github.com/gogpu/assets/internal/decode"
)

// Default configuration constants.
const (
	// DefaultFramesInFlight is how many Sync ticks a superseded payload is
	// kept alive before it is destroyed.
	DefaultFramesInFlight = 2

	// DefaultReloadDebounce is how long file events for one path are
	// coalesced before a hot reload runs.
	DefaultReloadDebounce = 100 * time.Millisecond
)

// Spawner runs named jobs off the owning goroutine.
//
// Spawn must not block and must run fn exactly once, eventually. It reports
// false when the job was not accepted (for example after shutdown).
type Spawner interface {
	Spawn(name string, fn func()) bool
}

// Option configures a Table during creation.
//
// Example:
//
//	table, err := assets.New(ctx,
//	    assets.WithRootPath("res"),
//	    assets.WithWorkers(4),
//	    assets.WithHotReload(true),
//	)
type Option func(*options)

// options holds optional configuration for Table creation.
type options struct {
	rootPath       string
	workers        int
	spawner        Spawner
	framesInFlight int
	hotReload      bool
	reloadDebounce time.Duration
	maxTextureSize uint32
	mipmaps        bool
	maxPixels      int
	failureRates   map[time.Duration]int
}

// defaultOptions returns the default table options.
func defaultOptions() options {
	return options{
		framesInFlight: DefaultFramesInFlight,
		reloadDebounce: DefaultReloadDebounce,
		maxPixels:      decode.DefaultMaxPixels,
		failureRates: map[time.Duration]int{
			time.Second: 1,
			time.Minute: 5,
		},
	}
}

// WithRootPath sets the directory relative file paths are resolved against
// and FindFiles searches. By default paths are used as given.
func WithRootPath(root string) Option {
	return func(o *options) {
		o.rootPath = root
	}
}

// WithWorkers sets the number of loader goroutines of the table's own pool.
// Zero or negative means GOMAXPROCS. Ignored when WithSpawner is used.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithSpawner runs loader tasks on an external worker pool instead of one
// owned by the table. The table never closes an external spawner.
func WithSpawner(s Spawner) Option {
	return func(o *options) {
		o.spawner = s
	}
}

// WithFramesInFlight sets how many Sync ticks superseded and collected
// payloads wait before being destroyed. Use the swapchain's frames-in-flight
// count so no command buffer still references them. Zero destroys at the
// end of the tick that released them.
func WithFramesInFlight(n int) Option {
	return func(o *options) {
		o.framesInFlight = max(n, 0)
	}
}

// WithHotReload watches file-backed loads and reloads them on change.
func WithHotReload(enabled bool) Option {
	return func(o *options) {
		o.hotReload = enabled
	}
}

// WithReloadDebounce sets how long file events are coalesced before a hot
// reload runs.
func WithReloadDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.reloadDebounce = d
		}
	}
}

// WithMaxTextureSize scales decoded images down so neither side exceeds
// size. The device limit always applies; this can only lower it.
func WithMaxTextureSize(size uint32) Option {
	return func(o *options) {
		o.maxTextureSize = size
	}
}

// WithMaxDecodePixels rejects images whose header declares more than n
// pixels before they are decoded, so a hostile or corrupt file cannot
// exhaust memory. The load fails and the asset keeps its default.
// Zero or negative disables the check.
func WithMaxDecodePixels(n int) Option {
	return func(o *options) {
		o.maxPixels = n
	}
}

// WithMipmaps enables full mip chain generation for loaded textures.
func WithMipmaps(enabled bool) Option {
	return func(o *options) {
		o.mipmaps = enabled
	}
}

// WithFailureLogRate limits how often a failing source is logged, as a map
// of window to maximum events, e.g. {time.Second: 1, time.Minute: 5}.
// A longer window must allow strictly more events than every shorter one,
// at a strictly lower average rate; New fails otherwise.
// A nil or empty map logs every failure.
func WithFailureLogRate(rates map[time.Duration]int) Option {
	return func(o *options) {
		o.failureRates = rates
	}
}
