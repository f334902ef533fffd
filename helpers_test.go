package assets

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/assets/render"
)

// openDevice opens a noop render context closed when the test ends.
func openDevice(t *testing.T, opts ...render.ContextOption) *render.Context {
	t.Helper()
	ctx, err := render.OpenNoop(opts...)
	if err != nil {
		t.Fatalf("OpenNoop failed: %v", err)
	}
	t.Cleanup(ctx.Close)
	return ctx
}

// newTable creates a table on a noop device, closed when the test ends.
func newTable(t *testing.T, opts ...Option) *Table {
	t.Helper()
	return newTableOn(t, openDevice(t), opts...)
}

func newTableOn(t *testing.T, device Device, opts ...Option) *Table {
	t.Helper()
	table, err := New(device, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(table.Close)
	return table
}

// manualSpawner queues jobs until the test runs them.
type manualSpawner struct {
	mu     sync.Mutex
	jobs   []func()
	names  []string
	reject bool
}

func (s *manualSpawner) Spawn(name string, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject {
		return false
	}
	s.jobs = append(s.jobs, fn)
	s.names = append(s.names, name)
	return true
}

// runAll runs and forgets every queued job, returning how many ran.
func (s *manualSpawner) runAll() int {
	s.mu.Lock()
	jobs := s.jobs
	s.jobs = nil
	s.mu.Unlock()
	for _, fn := range jobs {
		fn()
	}
	return len(jobs)
}

func (s *manualSpawner) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// recorder collects observed events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnAssetEvent(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) of(kind EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// blob is a plain payload type without Destroy.
type blob struct {
	n int
}

// probe is a payload that records its destruction.
type probe struct {
	name      string
	destroyed atomic.Bool
}

func (p *probe) Destroy() { p.destroyed.Store(true) }

// encodePNG returns a w×h PNG filled with c.
func encodePNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	return buf.Bytes()
}

// oversizedPNG returns a valid 1×1 PNG whose header claims w×h.
func oversizedPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := encodePNG(t, 1, 1, color.NRGBA{A: 255})
	binary.BigEndian.PutUint32(data[16:], w)
	binary.BigEndian.PutUint32(data[20:], h)
	binary.BigEndian.PutUint32(data[29:], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.WriteFile(path, encodePNG(t, w, h, color.NRGBA{R: 200, G: 100, B: 50, A: 255}), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

// syncUntil calls Sync until cond holds or the deadline passes.
func syncUntil(t *testing.T, table *Table, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		table.Sync()
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}
