package assets

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/go-catrate"

	"github.com/gogpu/assets/internal/tasks"
	"github.com/gogpu/assets/render"
)

// Table owns every asset slot of an engine instance.
//
// A Table has one owning goroutine (usually the render loop). NewAsset, the
// Load functions, the lookups, Sync and Close must only be called from it.
// Handles, PendingQueues, MarkDirty, ReadText, ReadBytes and FindFiles are
// safe from any goroutine. Sync panics if it is entered concurrently or from
// an observer.
//
// Example:
//
//	ctx, _ := render.OpenNoop()
//	table, _ := assets.New(ctx)
//	defer table.Close()
//
//	tex := table.LoadColorTexture("albedo.png", true)
//	for running {
//	    table.Sync()
//	    t, _ := assets.Get(table, tex) // default white until the load lands
//	    draw(t)
//	}
type Table struct {
	device Device
	opts   options
	queues *PendingQueues

	mapping   map[HandleID]*record
	pathCache map[string]WeakHandle[any]
	counter   HandleID

	syncing atomic.Bool
	closed  atomic.Bool

	spawner Spawner
	pool    *tasks.Pool // nil when an external spawner is used

	defaults defaults

	graves graveyard
	frame  uint64

	reloader    *reloader
	failLimiter *catrate.Limiter

	obsMu     sync.RWMutex
	observers []Observer

	// ctx is cancelled by Close so running loaders can stop early.
	ctx    context.Context
	cancel context.CancelFunc
}

// defaults are the fallback payloads placeholders point at.
// The table creates and destroys them; they are never collected.
type defaults struct {
	color  *render.Texture
	normal *render.Texture
	font   *Font
	mesh   *Mesh
	shader *render.Shader
}

func (d *defaults) destroy() {
	d.color.Destroy()
	d.normal.Destroy()
}

// New creates a Table on device.
//
// New builds the default payloads synchronously (a white 1×1 colour
// texture, a flat normal texture and the Go Regular font) and starts a
// worker pool unless WithSpawner is given.
func New(device Device, opts ...Option) (*Table, error) {
	if device == nil {
		return nil, ErrNilDevice
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	limiter, err := newFailureLimiter(o.failureRates)
	if err != nil {
		return nil, err
	}

	t := &Table{
		device:      device,
		opts:        o,
		queues:      &PendingQueues{},
		mapping:     make(map[HandleID]*record),
		pathCache:   make(map[string]WeakHandle[any]),
		graves:      graveyard{delay: uint64(o.framesInFlight)},
		failLimiter: limiter,
	}
	t.ctx, t.cancel = context.WithCancel(context.Background())

	if err := t.createDefaults(); err != nil {
		t.cancel()
		return nil, err
	}

	if o.spawner != nil {
		t.spawner = o.spawner
	} else {
		t.pool = tasks.NewPool(o.workers, logTaskPanic)
		t.spawner = t.pool
	}

	if o.hotReload {
		r, err := newReloader(t.spawn, o.reloadDebounce)
		if err != nil {
			t.Close()
			return nil, err
		}
		t.reloader = r
	}

	slogger().Info("assets: table created",
		"root", o.rootPath, "framesInFlight", o.framesInFlight, "hotReload", o.hotReload)
	return t, nil
}

func (t *Table) createDefaults() error {
	color, err := newSolidTexture(t.device, "default_color", whitePixel, true)
	if err != nil {
		return fmt.Errorf("assets: default colour texture: %w", err)
	}
	normal, err := newSolidTexture(t.device, "default_normal", flatNormal, false)
	if err != nil {
		color.Destroy()
		return fmt.Errorf("assets: default normal texture: %w", err)
	}
	font, err := defaultFont()
	if err != nil {
		color.Destroy()
		normal.Destroy()
		return fmt.Errorf("assets: default font: %w", err)
	}
	t.defaults = defaults{
		color:  color,
		normal: normal,
		font:   font,
		mesh:   &Mesh{Label: "default_mesh"},
		shader: &render.Shader{},
	}
	return nil
}

func logTaskPanic(name string, recovered any, stack []byte) {
	slogger().Warn("assets: task panicked", "task", name, "panic", recovered, "stack", string(stack))
}

// Queues returns the table's pending queues. They may be handed to other
// goroutines, which can push dirty marks, completions and failures.
func (t *Table) Queues() *PendingQueues { return t.queues }

// Device returns the device loaders create resources on.
func (t *Table) Device() Device { return t.device }

// DefaultColorTexture returns the white fallback texture.
func (t *Table) DefaultColorTexture() *render.Texture { return t.defaults.color }

// DefaultNormalTexture returns the flat normal fallback texture.
func (t *Table) DefaultNormalTexture() *render.Texture { return t.defaults.normal }

// DefaultFont returns the fallback font.
func (t *Table) DefaultFont() *Font { return t.defaults.font }

// insert allocates a fresh id and stores a record with one reference.
func (t *Table) insert(payload any, owned bool, key string) HandleID {
	t.counter++
	id := t.counter
	t.mapping[id] = &record{
		payload:  payload,
		refCount: 1,
		owned:    owned,
		cacheKey: key,
	}
	if key != "" {
		t.pathCache[key] = WeakHandle[any]{id: id, queues: t.queues}
	}
	t.notify(Event{Kind: EventCreated, ID: id})
	return id
}

// cached returns the live id registered under key, dropping stale entries.
func (t *Table) cached(key string) (HandleID, bool) {
	if key == "" {
		return InvalidID, false
	}
	w, ok := t.pathCache[key]
	if !ok {
		return InvalidID, false
	}
	if _, live := t.mapping[w.ID()]; !live {
		delete(t.pathCache, key)
		return InvalidID, false
	}
	return w.ID(), true
}

// NewAsset stores payload under a fresh id and returns the first strong
// handle. The payload is visible to Get immediately. The table never
// destroys payloads added this way.
func NewAsset[T any](t *Table, payload *T) *Handle[T] {
	id := t.insert(payload, false, "")
	return newHandle[T](id, t.queues)
}

// Get returns the payload of h. It reports false if the asset was
// collected or its payload is not a *T.
func Get[T any](t *Table, h *Handle[T]) (*T, bool) {
	if h == nil {
		return nil, false
	}
	r, ok := t.mapping[h.id]
	if !ok {
		return nil, false
	}
	p, ok := r.payload.(*T)
	return p, ok
}

// GetVersion returns the payload version of h, or false if it was collected.
func GetVersion[T any](t *Table, h *Handle[T]) (uint32, bool) {
	if h == nil {
		return 0, false
	}
	return t.Version(h.id)
}

// GetUntyped returns the type-erased payload of id.
func (t *Table) GetUntyped(id HandleID) (any, bool) {
	r, ok := t.mapping[id]
	if !ok {
		return nil, false
	}
	return r.payload, true
}

// Version returns the payload version of id.
func (t *Table) Version(id HandleID) (uint32, bool) {
	r, ok := t.mapping[id]
	if !ok {
		return 0, false
	}
	return r.version, true
}

// Contains reports whether id names a live record.
func (t *Table) Contains(id HandleID) bool {
	_, ok := t.mapping[id]
	return ok
}

// RefCount returns the applied reference count of id. Pending clones and
// releases are not included until the next Sync.
func (t *Table) RefCount(id HandleID) (int, bool) {
	r, ok := t.mapping[id]
	if !ok {
		return 0, false
	}
	return r.refCount, true
}

// MarkDirty queues a dirty mark for id. Safe for concurrent use.
func (t *Table) MarkDirty(id HandleID) { t.queues.MarkDirty(id) }

// NeedsRebuild reports whether id has been marked dirty and not cleared.
func (t *Table) NeedsRebuild(id HandleID) bool {
	r, ok := t.mapping[id]
	return ok && r.needsRebuild
}

// ClearRebuild clears the needs-rebuild flag of id. The table never clears
// it itself. It reports whether the record exists.
func (t *Table) ClearRebuild(id HandleID) bool {
	r, ok := t.mapping[id]
	if ok {
		r.needsRebuild = false
	}
	return ok
}

// Len returns the number of live records.
func (t *Table) Len() int { return len(t.mapping) }

// Frame returns how many Sync ticks have run.
func (t *Table) Frame() uint64 { return t.frame }

// SyncStats counts what one Sync applied.
type SyncStats struct {
	Increments  int
	Completions int
	Dirty       int
	Decrements  int
	Collected   int
	Failed      int

	// Destroyed counts payloads released from the graveyard this tick.
	Destroyed int
}

// String returns a compact human-readable form.
func (s SyncStats) String() string {
	return fmt.Sprintf("Sync[+%d -%d, %d completed, %d dirty, %d collected, %d failed, %d destroyed]",
		s.Increments, s.Decrements, s.Completions, s.Dirty, s.Collected, s.Failed, s.Destroyed)
}

// Sync applies everything queued since the previous tick. Call it once per
// frame on the owning goroutine.
//
// The steps run in a fixed order: increments, completions, dirty marks,
// decrements. Entries for ids that are not live are ignored. Records whose
// count drops to zero are collected at the end of the tick, then load
// failures are delivered and payloads buried long enough ago are destroyed.
//
// The destroy queue is drained before the create queue, so every clone that
// happened before a drained release is applied in the same tick.
func (t *Table) Sync() SyncStats {
	if !t.syncing.CompareAndSwap(false, true) {
		panic("assets: Sync called concurrently or from an observer")
	}
	defer t.syncing.Store(false)

	destroyed := t.queues.destroy.drain()
	created := t.queues.create.drain()
	completed := t.queues.drainCompleted()
	dirty := t.queues.dirty.drain()
	failed := t.queues.drainFailed()

	var stats SyncStats
	if t.closed.Load() {
		for _, c := range completed {
			if c.owned {
				destroyPayload(c.payload)
			}
		}
		return stats
	}

	for _, id := range created {
		if r, ok := t.mapping[id]; ok {
			r.refCount++
			stats.Increments++
		}
	}

	for _, c := range completed {
		r, ok := t.mapping[c.id]
		if !ok {
			if c.owned {
				t.graves.bury(c.payload, t.frame)
			}
			continue
		}
		if r.owned && !samePayload(r.payload, c.payload) {
			t.graves.bury(r.payload, t.frame)
		}
		r.payload = c.payload
		r.owned = c.owned
		r.version++
		stats.Completions++
		t.notify(Event{Kind: EventUpdated, ID: c.id, Version: r.version})
	}

	for _, id := range dirty {
		r, ok := t.mapping[id]
		if !ok {
			continue
		}
		stats.Dirty++
		if !r.needsRebuild {
			r.needsRebuild = true
			t.notify(Event{Kind: EventDirty, ID: id, Version: r.version})
		}
	}

	var zero []HandleID
	for _, id := range destroyed {
		r, ok := t.mapping[id]
		if !ok {
			continue
		}
		r.refCount--
		stats.Decrements++
		if r.refCount == 0 {
			zero = append(zero, id)
		}
	}

	for _, id := range zero {
		if t.collect(id) {
			stats.Collected++
		}
	}

	for _, f := range failed {
		t.logFailure(f)
		stats.Failed++
		v, _ := t.Version(f.ID)
		t.notify(Event{Kind: EventLoadFailed, ID: f.ID, Version: v, Err: f})
	}

	stats.Destroyed = t.graves.collect(t.frame)
	t.frame++

	if stats != (SyncStats{}) {
		slogger().Debug("assets: sync", "frame", t.frame, "stats", stats)
	}
	return stats
}

// collect removes id if its count is still non-positive.
func (t *Table) collect(id HandleID) bool {
	r, ok := t.mapping[id]
	if !ok || r.refCount > 0 {
		return false
	}
	delete(t.mapping, id)
	if r.cacheKey != "" {
		if w, ok := t.pathCache[r.cacheKey]; ok && w.ID() == id {
			delete(t.pathCache, r.cacheKey)
		}
	}
	if t.reloader != nil {
		t.reloader.unwatch(id)
	}
	if r.owned {
		t.graves.bury(r.payload, t.frame)
	}
	t.notify(Event{Kind: EventCollected, ID: id, Version: r.version})
	return true
}

// Stats is a snapshot of table state.
type Stats struct {
	Records   int
	Cached    int
	Frame     uint64
	Graveyard int
	Queues    QueueStats

	// Tasks is zero when an external spawner is used.
	Tasks tasks.Stats

	// Memory is zero when the device does not track allocations.
	Memory render.MemoryStats
}

// String returns a compact human-readable form.
func (s Stats) String() string {
	return fmt.Sprintf("Assets[%d records, %d cached, frame %d, %d buried] %s %s",
		s.Records, s.Cached, s.Frame, s.Graveyard, s.Tasks, s.Memory)
}

// Stats returns a snapshot of the table. Call it on the owning goroutine.
func (t *Table) Stats() Stats {
	s := Stats{
		Records:   len(t.mapping),
		Cached:    len(t.pathCache),
		Frame:     t.frame,
		Graveyard: t.graves.len(),
		Queues:    t.queues.Stats(),
	}
	if t.pool != nil {
		s.Tasks = t.pool.Stats()
	}
	if m, ok := t.device.(memoryReporter); ok {
		s.Memory = m.Stats()
	}
	return s
}

// Close shuts the table down. Running loaders are cancelled and, for the
// table's own pool, waited for. Every table-owned payload, the graveyard and
// the defaults are destroyed. Handles stay valid values but resolve to
// absent. Close is idempotent.
//
// With an external spawner, loads still running after Close push into
// queues nobody drains; their payloads are left to the device.
func (t *Table) Close() {
	if !t.closed.CompareAndSwap(false, true) {
		return
	}
	t.cancel()

	if t.reloader != nil {
		if err := t.reloader.close(); err != nil {
			slogger().Warn("assets: close watcher", "err", err)
		}
	}
	if t.pool != nil {
		t.pool.Close()
	}

	for _, c := range t.queues.drainCompleted() {
		if c.owned {
			destroyPayload(c.payload)
		}
	}
	records := len(t.mapping)
	for id, r := range t.mapping {
		if r.owned {
			destroyPayload(r.payload)
		}
		delete(t.mapping, id)
	}
	clear(t.pathCache)
	buried := t.graves.flush()
	t.defaults.destroy()

	slogger().Info("assets: table closed", "records", records, "buried", buried, "frames", t.frame)
}
