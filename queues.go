package assets

import "sync"

// completion is a finished background load waiting for the next Sync.
type completion struct {
	id      HandleID
	payload any

	// owned payloads were produced by a loader and are destroyed by the
	// table once superseded or collected.
	owned bool
}

// idQueue is an append-only list of ids with its own lock.
type idQueue struct {
	mu  sync.Mutex
	ids []HandleID
}

func (q *idQueue) push(id HandleID) {
	q.mu.Lock()
	q.ids = append(q.ids, id)
	q.mu.Unlock()
}

// drain swaps out and returns everything pushed so far.
func (q *idQueue) drain() []HandleID {
	q.mu.Lock()
	ids := q.ids
	q.ids = nil
	q.mu.Unlock()
	return ids
}

func (q *idQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

// PendingQueues collects mutations for a Table from any goroutine.
//
// Handles push increments and decrements, loader tasks push completions and
// failures, and any system may push dirty marks. Only Table.Sync drains
// them. Every queue has its own mutex, so traffic on one never waits on
// another.
//
// A PendingQueues outlives its Table when handles or tasks still reference
// it; pushes after Close are accepted and never applied.
type PendingQueues struct {
	create  idQueue
	destroy idQueue
	dirty   idQueue

	completedMu sync.Mutex
	completed   []completion

	failedMu sync.Mutex
	failed   []*LoadError
}

// pushCreate records one additional strong reference to id.
func (q *PendingQueues) pushCreate(id HandleID) { q.create.push(id) }

// pushDestroy records one dropped strong reference to id.
func (q *PendingQueues) pushDestroy(id HandleID) { q.destroy.push(id) }

// MarkDirty requests that the asset's needs-rebuild flag be set at the next
// Sync. Safe for concurrent use.
func (q *PendingQueues) MarkDirty(id HandleID) { q.dirty.push(id) }

// Complete hands a finished payload for id to the next Sync, which swaps it
// in and bumps the version. The caller keeps ownership of payload: the table
// never destroys it. Safe for concurrent use.
func (q *PendingQueues) Complete(id HandleID, payload any) {
	q.pushCompleted(completion{id: id, payload: payload})
}

func (q *PendingQueues) pushCompleted(c completion) {
	q.completedMu.Lock()
	q.completed = append(q.completed, c)
	q.completedMu.Unlock()
}

// Fail reports a failed load for id. The asset keeps its current payload;
// the next Sync delivers the error to observers. Safe for concurrent use.
func (q *PendingQueues) Fail(id HandleID, source string, err error) {
	q.failedMu.Lock()
	q.failed = append(q.failed, &LoadError{ID: id, Source: source, Err: err})
	q.failedMu.Unlock()
}

func (q *PendingQueues) drainCompleted() []completion {
	q.completedMu.Lock()
	c := q.completed
	q.completed = nil
	q.completedMu.Unlock()
	return c
}

func (q *PendingQueues) drainFailed() []*LoadError {
	q.failedMu.Lock()
	f := q.failed
	q.failed = nil
	q.failedMu.Unlock()
	return f
}

// QueueStats reports how many entries wait in each queue.
type QueueStats struct {
	Create    int
	Destroy   int
	Completed int
	Dirty     int
	Failed    int
}

// Stats returns the current queue lengths.
// This is an approximation as producers can push while reading.
func (q *PendingQueues) Stats() QueueStats {
	q.completedMu.Lock()
	completed := len(q.completed)
	q.completedMu.Unlock()

	q.failedMu.Lock()
	failed := len(q.failed)
	q.failedMu.Unlock()

	return QueueStats{
		Create:    q.create.len(),
		Destroy:   q.destroy.len(),
		Completed: completed,
		Dirty:     q.dirty.len(),
		Failed:    failed,
	}
}
