package assets

import (
	"fmt"
	"slices"
)

// EventKind identifies an asset lifecycle event.
type EventKind uint8

const (
	// EventCreated is sent when a record is inserted (NewAsset or a load).
	EventCreated EventKind = iota + 1

	// EventUpdated is sent when a payload is replaced and the version bumped.
	EventUpdated

	// EventDirty is sent when the needs-rebuild flag is set.
	EventDirty

	// EventCollected is sent when a record is removed after its last
	// reference was released.
	EventCollected

	// EventLoadFailed is sent when a background load failed. The asset keeps
	// its previous payload.
	EventLoadFailed
)

// String returns the event name.
func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventUpdated:
		return "updated"
	case EventDirty:
		return "dirty"
	case EventCollected:
		return "collected"
	case EventLoadFailed:
		return "load-failed"
	default:
		return fmt.Sprintf("EventKind(%d)", k)
	}
}

// Event describes a change to one asset.
type Event struct {
	Kind EventKind
	ID   HandleID

	// Version is the record version after the change.
	Version uint32

	// Err is set for EventLoadFailed.
	Err *LoadError
}

// Observer receives asset lifecycle events.
//
// Events are delivered synchronously on the goroutine that calls Sync (or
// NewAsset and the Load functions for EventCreated). Observers must not call
// Sync. They may Subscribe and Unsubscribe; the change applies from the
// next event.
type Observer interface {
	OnAssetEvent(Event)
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// notify delivers e to a snapshot of the observers, taken so observers may
// Subscribe or Unsubscribe from inside OnAssetEvent.
func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	observers := slices.Clone(t.observers)
	t.obsMu.RUnlock()
	for _, o := range observers {
		o.OnAssetEvent(e)
	}
}
