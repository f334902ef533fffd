package assets

import "reflect"

// record is the table-owned state of one asset slot.
// Only the owning goroutine reads or writes it.
type record struct {
	// payload is a pointer to the concrete asset value.
	payload any

	refCount int

	// version starts at 0 and is bumped on every payload replacement only.
	version uint32

	// needsRebuild is set by dirty marks and cleared only by consumers.
	needsRebuild bool

	// owned payloads were built by the table or a loader and are destroyed
	// once superseded or collected. Defaults and NewAsset payloads are not.
	owned bool

	// cacheKey is the path-cache key the record was registered under.
	cacheKey string
}

// samePayload reports whether a and b hold the same comparable value.
func samePayload(a, b any) bool {
	ta := reflect.TypeOf(a)
	return ta != nil && ta == reflect.TypeOf(b) && ta.Comparable() && a == b
}
