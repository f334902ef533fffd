// Command assetview streams a directory of textures through an asset table
// and reports what happened each frame.
//
// Usage:
//
//	assetview -dir res -frames 120 -backend noop
//	assetview -config assets.toml -backend vulkan -v
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/gputypes"
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/assets"
	"github.com/gogpu/assets/render"
)

func main() {
	var (
		dir      = flag.String("dir", ".", "directory to search for images")
		config   = flag.String("config", "", "TOML config file (overrides -dir)")
		backend  = flag.String("backend", "noop", "GPU backend: noop or vulkan")
		frames   = flag.Int("frames", 60, "number of frames to run")
		interval = flag.Duration("interval", 16*time.Millisecond, "time per frame")
		budget   = flag.Int("budget", 0, "GPU memory budget in MB (0 = unlimited)")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	assets.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	opts := []assets.Option{assets.WithRootPath(*dir)}
	if *config != "" {
		cfg, err := assets.LoadConfig(*config)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if opts, err = cfg.Options(); err != nil {
			log.Fatalf("Invalid config: %v", err)
		}
	}

	ctx, err := openDevice(*backend, render.WithMemoryBudget(*budget))
	if err != nil {
		log.Fatalf("Failed to open device: %v", err)
	}
	defer ctx.Close()
	log.Printf("Using %s (%s)", ctx.AdapterInfo().Name, ctx.AdapterInfo().Type)

	table, err := assets.New(ctx, opts...)
	if err != nil {
		log.Fatalf("Failed to create asset table: %v", err)
	}
	defer table.Close()

	table.Subscribe(printer{})

	var files []string
	for _, ext := range []string{"png", "jpg", "jpeg", "bmp", "tif", "tiff", "webp"} {
		found, err := table.FindFiles(ext)
		if err != nil {
			log.Fatalf("Failed to search for images: %v", err)
		}
		files = append(files, found...)
	}
	log.Printf("Loading %d images", len(files))

	handles := make([]*assets.Handle[render.Texture], 0, len(files))
	for _, file := range files {
		handles = append(handles, table.LoadTexture(assets.FilePath(file), assets.TextureOptions{SRGB: true}))
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for frame := range *frames {
		<-ticker.C
		stats := table.Sync()
		if stats != (assets.SyncStats{}) {
			log.Printf("frame %d: %s", frame, stats)
		}
	}

	loaded := 0
	for _, h := range handles {
		if v, ok := assets.GetVersion(table, h); ok && v > 0 {
			loaded++
		}
		h.Release()
	}
	table.Sync()

	log.Printf("%d of %d images loaded", loaded, len(handles))
	log.Print(table.Stats())
}

func openDevice(name string, opts ...render.ContextOption) (*render.Context, error) {
	switch name {
	case "noop":
		return render.OpenNoop(opts...)
	case "vulkan":
		return render.Open(gputypes.BackendVulkan, opts...)
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

// printer logs load results.
type printer struct{}

func (printer) OnAssetEvent(e assets.Event) {
	switch e.Kind {
	case assets.EventUpdated:
		log.Printf("%v loaded (version %d)", e.ID, e.Version)
	case assets.EventLoadFailed:
		log.Printf("%v failed: %v", e.ID, e.Err)
	}
}
