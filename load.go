package assets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joeycumines/go-catrate"
)

// errNilPayload is reported when a build function returns neither a payload
// nor an error.
var errNilPayload = errors.New("assets: loader returned no payload")

// task is one background load. It holds everything the worker needs and
// never touches the table's records: the result goes into the queues.
//
// A task may run more than once when hot reload re-spawns it.
type task struct {
	id     HandleID
	source string

	// file is the resolved path watched for hot reload, "" if none.
	file string

	queues *PendingQueues
	ctx    context.Context
	build  func(ctx context.Context) (any, error)
}

func (tk *task) name() string { return "load " + tk.source }

// Run builds the payload and queues a completion, or a failure. Panics are
// recovered and reported as failures. A payload finished after the table
// closed is destroyed instead of queued.
func (tk *task) Run() {
	defer func() {
		if r := recover(); r != nil {
			tk.queues.Fail(tk.id, tk.source, fmt.Errorf("%w: %v", ErrTaskPanic, r))
		}
	}()

	if tk.ctx.Err() != nil {
		return
	}

	start := time.Now()
	payload, err := tk.build(tk.ctx)
	if err != nil {
		if tk.ctx.Err() == nil {
			tk.queues.Fail(tk.id, tk.source, err)
		}
		return
	}
	if payload == nil {
		tk.queues.Fail(tk.id, tk.source, errNilPayload)
		return
	}
	if tk.ctx.Err() != nil {
		destroyPayload(payload)
		return
	}

	tk.queues.pushCompleted(completion{id: tk.id, payload: payload, owned: true})
	slogger().Debug("assets: load finished", "id", tk.id, "source", tk.source, "took", time.Since(start))
}

// spawn hands tk to the spawner. A rejected task is reported as a failure
// so the asset's observers learn it will stay on its default.
func (t *Table) spawn(tk *task) {
	if t.closed.Load() || !t.spawner.Spawn(tk.name(), tk.Run) {
		tk.queues.Fail(tk.id, tk.source, ErrClosed)
	}
}

// startLoad returns a handle for key, reusing a live record registered under
// the same key. Otherwise it inserts placeholder, registers key and starts
// build in the background. file, when set, is watched for hot reload.
func startLoad[T any](t *Table, key string, placeholder *T, source, file string, build func(context.Context) (any, error)) *Handle[T] {
	if id, ok := t.cached(key); ok {
		t.queues.pushCreate(id)
		return newHandle[T](id, t.queues)
	}

	id := t.insert(placeholder, false, key)
	tk := &task{
		id:     id,
		source: source,
		file:   file,
		queues: t.queues,
		ctx:    t.ctx,
		build:  build,
	}
	if file != "" && t.reloader != nil {
		if err := t.reloader.watch(tk); err != nil {
			slogger().Warn("assets: watch failed", "file", file, "err", err)
		}
	}
	t.spawn(tk)
	return newHandle[T](id, t.queues)
}

// Load starts a background build of an arbitrary asset type and returns a
// handle that resolves to placeholder until the build lands in a Sync.
//
// key deduplicates loads of the same T: while a record loaded under key is
// live, Load returns another handle to it and build is not run. An empty key
// disables deduplication. build runs on a worker goroutine and must not
// touch the table; ctx is cancelled when the table closes. If the payload
// has a Destroy method the table calls it once the payload is superseded or
// collected.
func Load[T any](t *Table, key string, placeholder *T, build func(ctx context.Context) (*T, error)) *Handle[T] {
	cacheKey := ""
	if key != "" {
		cacheKey = fmt.Sprintf("%T:%s", placeholder, key)
	}
	source := key
	if source == "" {
		source = fmt.Sprintf("%T", placeholder)
	}
	return startLoad(t, cacheKey, placeholder, source, "", func(ctx context.Context) (any, error) {
		p, err := build(ctx)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, errNilPayload
		}
		return p, nil
	})
}

// newFailureLimiter builds the per-source failure log limiter.
// Empty rates disable limiting.
func newFailureLimiter(rates map[time.Duration]int) (limiter *catrate.Limiter, err error) {
	if len(rates) == 0 {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			limiter, err = nil, fmt.Errorf("assets: failure log rate: %v", r)
		}
	}()
	return catrate.NewLimiter(rates), nil
}

// logFailure logs f unless its source exceeded the failure log rate.
func (t *Table) logFailure(f *LoadError) {
	next, ok := t.failLimiter.Allow(f.Source)
	if !ok {
		return
	}
	if !next.IsZero() {
		slogger().Warn("assets: load failed, suppressing further failures", "id", f.ID, "source", f.Source, "err", f.Err, "until", next)
		return
	}
	slogger().Warn("assets: load failed", "id", f.ID, "source", f.Source, "err", f.Err)
}
