package assets

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

func TestHandleID(t *testing.T) {
	if InvalidID.IsValid() {
		t.Error("InvalidID.IsValid() = true")
	}
	if !HandleID(7).IsValid() {
		t.Error("HandleID(7).IsValid() = false")
	}
	if got := HandleID(12).String(); got != "asset#12" {
		t.Errorf("String() = %q, want %q", got, "asset#12")
	}
}

func TestNewAssetIDsMonotonic(t *testing.T) {
	table := newTable(t)

	var prev HandleID
	seen := make(map[HandleID]bool)
	for i := range 100 {
		h := NewAsset(table, &blob{n: i})
		if h.ID() <= prev {
			t.Fatalf("id %v not greater than previous %v", h.ID(), prev)
		}
		if seen[h.ID()] {
			t.Fatalf("id %v returned twice", h.ID())
		}
		seen[h.ID()] = true
		prev = h.ID()
	}
}

func TestIDsNotReused(t *testing.T) {
	table := newTable(t)

	first := NewAsset(table, &blob{})
	id := first.ID()
	first.Release()
	table.Sync()

	second := NewAsset(table, &blob{})
	if second.ID() == id {
		t.Errorf("collected id %v was reused", id)
	}
	if _, ok := Get(table, first); ok {
		t.Error("Get(collected) ok = true, want false")
	}
}

func TestCloneAndRelease(t *testing.T) {
	table := newTable(t)

	h1 := NewAsset(table, &blob{n: 1})
	if n, _ := table.RefCount(h1.ID()); n != 1 {
		t.Fatalf("RefCount after NewAsset = %d, want 1", n)
	}

	h2 := h1.Clone()
	if n, _ := table.RefCount(h1.ID()); n != 1 {
		t.Errorf("RefCount before Sync = %d, want 1 (clone is deferred)", n)
	}
	table.Sync()
	if n, _ := table.RefCount(h1.ID()); n != 2 {
		t.Errorf("RefCount after Sync = %d, want 2", n)
	}
	if h2.ID() != h1.ID() {
		t.Errorf("clone id = %v, want %v", h2.ID(), h1.ID())
	}

	h1.Release()
	h2.Release()
	if !table.Contains(h1.ID()) {
		t.Error("record removed before Sync")
	}
	table.Sync()

	if _, ok := Get(table, h1); ok {
		t.Error("Get after final release ok = true, want false")
	}
	if _, ok := GetVersion(table, h2); ok {
		t.Error("GetVersion after final release ok = true, want false")
	}
	if _, ok := table.RefCount(h1.ID()); ok {
		t.Error("RefCount after final release ok = true, want false")
	}
}

func TestReleaseIdempotent(t *testing.T) {
	table := newTable(t)

	h := NewAsset(table, &blob{})
	keep := h.Clone()
	table.Sync()

	h.Release()
	h.Release()
	if !h.Released() {
		t.Error("Released() = false after Release")
	}
	table.Sync()

	if n, ok := table.RefCount(keep.ID()); !ok || n != 1 {
		t.Errorf("RefCount = %d, %v; want 1, true", n, ok)
	}
}

func TestCloneAndReleaseSameTick(t *testing.T) {
	table := newTable(t)

	h := NewAsset(table, &blob{})
	c := h.Clone()
	c.Release()
	table.Sync()

	if n, ok := table.RefCount(h.ID()); !ok || n != 1 {
		t.Errorf("RefCount = %d, %v; want 1, true", n, ok)
	}
}

func TestWeakHandle(t *testing.T) {
	table := newTable(t)

	h := NewAsset(table, &blob{n: 3})
	w := h.Weak()
	if w.ID() != h.ID() {
		t.Errorf("Weak().ID() = %v, want %v", w.ID(), h.ID())
	}
	table.Sync()
	if n, _ := table.RefCount(h.ID()); n != 1 {
		t.Errorf("RefCount with weak handle = %d, want 1", n)
	}

	strong := w.Upgrade()
	table.Sync()
	if n, _ := table.RefCount(h.ID()); n != 2 {
		t.Errorf("RefCount after Upgrade = %d, want 2", n)
	}
	got, ok := Get(table, strong)
	if !ok || got.n != 3 {
		t.Errorf("Get(upgraded) = %v, %v; want n=3", got, ok)
	}

	var zero WeakHandle[blob]
	if zero.Upgrade() != nil {
		t.Error("zero WeakHandle.Upgrade() should be nil")
	}
}

func TestUntypedAndTyped(t *testing.T) {
	table := newTable(t)

	h := NewAsset(table, &blob{n: 5})
	u := h.Untyped()
	table.Sync()
	if n, _ := table.RefCount(h.ID()); n != 2 {
		t.Errorf("RefCount after Untyped = %d, want 2", n)
	}

	payload, ok := table.GetUntyped(u.ID())
	if b, isBlob := payload.(*blob); !ok || !isBlob || b.n != 5 {
		t.Errorf("GetUntyped = %v, %v", payload, ok)
	}

	back := Typed[blob](u)
	if got, ok := Get(table, back); !ok || got.n != 5 {
		t.Errorf("Get(Typed[blob]) = %v, %v", got, ok)
	}

	wrong := Typed[probe](u.Clone())
	if got, ok := Get(table, wrong); ok || got != nil {
		t.Errorf("Get with wrong type = %v, %v; want nil, false", got, ok)
	}
}

func TestCrossGoroutineCloneRelease(t *testing.T) {
	table := newTable(t)

	h := NewAsset(table, &blob{})
	id := h.ID()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 500 {
				c := h.Clone()
				if c.ID() != id {
					t.Errorf("clone id = %v, want %v", c.ID(), id)
				}
				// Hand the clone to another goroutine for release.
				done := make(chan struct{})
				go func() {
					c.Release()
					close(done)
				}()
				<-done
			}
		})
	}
	go func() {
		wg.Wait()
		close(stop)
	}()

	for running := true; running; {
		select {
		case <-stop:
			running = false
		default:
		}
		table.Sync()
		if !table.Contains(id) {
			t.Fatal("asset collected while a strong handle was held")
		}
	}
	table.Sync()

	if n, ok := table.RefCount(id); !ok || n != 1 {
		t.Errorf("RefCount = %d, %v; want 1, true", n, ok)
	}
	h.Release()
	table.Sync()
	if table.Contains(id) {
		t.Error("asset still live after final release")
	}
}

func TestLeakedHandleReleasedByCleanup(t *testing.T) {
	table := newTable(t)

	h := NewAsset(table, &blob{})
	id := h.ID()
	leakClone(h)

	table.Sync()
	if n, _ := table.RefCount(id); n != 2 {
		t.Fatalf("RefCount = %d, want 2", n)
	}

	released := false
	deadline := time.Now().Add(10 * time.Second)
	for !released && time.Now().Before(deadline) {
		runtime.GC()
		table.Sync()
		n, _ := table.RefCount(id)
		released = n == 1
		time.Sleep(time.Millisecond)
	}
	// h must stay reachable, or its own cleanup releases the last reference.
	runtime.KeepAlive(h)
	if !released {
		t.Fatal("leaked clone was never released")
	}
}

// leakClone clones h and drops the clone without releasing it.
//
//go:noinline
func leakClone(h *Handle[blob]) {
	_ = h.Clone()
}

func TestHandleString(t *testing.T) {
	table := newTable(t)
	h := NewAsset(table, &blob{})
	if got := h.String(); got == "" {
		t.Error("String() is empty")
	}
}
