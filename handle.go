package assets

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

// HandleID names one asset slot in a Table.
//
// Ids are allocated from a per-table counter starting at 1 and are never
// reused, so an id that has been collected can only ever resolve to
// "absent".
type HandleID uint64

// InvalidID is the reserved "no asset" id.
const InvalidID HandleID = 0

// IsValid reports whether id is not the reserved zero id.
func (id HandleID) IsValid() bool { return id != InvalidID }

// String returns a short diagnostic form such as "asset#12".
func (id HandleID) String() string { return fmt.Sprintf("asset#%d", uint64(id)) }

// strong is the shared state of typed and untyped strong handles.
//
// Each strong handle object accounts for exactly one reference. Creating
// one (other than through NewAsset or a load, which count their first
// reference directly) pushes an increment, and Release pushes the matching
// decrement. If a handle becomes unreachable without Release, a runtime
// cleanup pushes the decrement instead.
type strong struct {
	id       HandleID
	queues   *PendingQueues
	released atomic.Bool
	cleanup  runtime.Cleanup
}

// leaked is the argument of the cleanup attached to every strong handle.
// It must not reference the handle itself.
type leaked struct {
	id     HandleID
	queues *PendingQueues
}

func releaseLeaked(l leaked) {
	slogger().Debug("assets: handle released by cleanup", "id", l.id)
	l.queues.pushDestroy(l.id)
}

// ID returns the asset id.
func (s *strong) ID() HandleID { return s.id }

// Queues returns the queue set the handle reports to.
func (s *strong) Queues() *PendingQueues { return s.queues }

// Release drops this reference. The decrement is applied at the next Sync.
// Release is idempotent; the handle may still be used for lookups, which
// return absent once the asset is collected.
func (s *strong) Release() {
	if !s.released.CompareAndSwap(false, true) {
		return
	}
	s.cleanup.Stop()
	s.queues.pushDestroy(s.id)
}

// Released reports whether Release has been called.
func (s *strong) Released() bool { return s.released.Load() }

// MarkDirty asks the table to set the asset's needs-rebuild flag.
func (s *strong) MarkDirty() { s.queues.MarkDirty(s.id) }

// Handle is a typed strong reference to an asset.
//
// The type parameter only affects Get; at runtime a Handle[T] behaves
// exactly like an UntypedHandle. Handles are safe to share, clone and
// release from any goroutine.
type Handle[T any] struct {
	strong
}

// newHandle creates a strong handle without pushing an increment. The
// caller accounts for the reference.
func newHandle[T any](id HandleID, q *PendingQueues) *Handle[T] {
	h := &Handle[T]{strong: strong{id: id, queues: q}}
	h.cleanup = runtime.AddCleanup(h, releaseLeaked, leaked{id: id, queues: q})
	return h
}

// Clone returns a new strong handle to the same asset and pushes an
// increment for it.
func (h *Handle[T]) Clone() *Handle[T] {
	h.queues.pushCreate(h.id)
	return newHandle[T](h.id, h.queues)
}

// Weak returns a weak reference that does not keep the asset alive.
func (h *Handle[T]) Weak() WeakHandle[T] {
	return WeakHandle[T]{id: h.id, queues: h.queues}
}

// Untyped returns a new untyped strong handle to the same asset.
func (h *Handle[T]) Untyped() *UntypedHandle {
	h.queues.pushCreate(h.id)
	return newUntyped(h.id, h.queues)
}

// String returns a short diagnostic form.
func (h *Handle[T]) String() string {
	var zero T
	return fmt.Sprintf("Handle[%T](%v)", zero, h.ID())
}

// UntypedHandle is a strong reference to an asset of unknown type.
type UntypedHandle struct {
	strong
}

func newUntyped(id HandleID, q *PendingQueues) *UntypedHandle {
	h := &UntypedHandle{strong: strong{id: id, queues: q}}
	h.cleanup = runtime.AddCleanup(h, releaseLeaked, leaked{id: id, queues: q})
	return h
}

// Clone returns a new strong handle to the same asset.
func (h *UntypedHandle) Clone() *UntypedHandle {
	h.queues.pushCreate(h.id)
	return newUntyped(h.id, h.queues)
}

// Typed returns a new typed strong handle to the asset referenced by h.
// No type check happens here; Get reports a mismatch as absent.
func Typed[T any](h *UntypedHandle) *Handle[T] {
	h.queues.pushCreate(h.id)
	return newHandle[T](h.id, h.queues)
}

// WeakHandle remembers an asset id without keeping the asset alive.
// It never pushes increments or decrements.
type WeakHandle[T any] struct {
	id     HandleID
	queues *PendingQueues
}

// ID returns the asset id.
func (w WeakHandle[T]) ID() HandleID { return w.id }

// Upgrade returns a strong handle and pushes an increment. The caller must
// know the asset is still alive (for example with Table.Contains); an
// upgrade of a collected asset yields a handle that resolves to absent.
func (w WeakHandle[T]) Upgrade() *Handle[T] {
	if w.queues == nil {
		return nil
	}
	w.queues.pushCreate(w.id)
	return newHandle[T](w.id, w.queues)
}
