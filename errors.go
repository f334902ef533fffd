package assets

import (
	"errors"
	"fmt"

	"github.com/gogpu/assets/internal/decode"
)

// Table errors.
var (
	// ErrClosed is returned when using a table after Close.
	ErrClosed = errors.New("assets: table closed")

	// ErrNilDevice is returned by New when no render device is given.
	ErrNilDevice = errors.New("assets: nil device")

	// ErrUnsupportedSource is returned when a binary asset is requested from
	// an inline text source.
	ErrUnsupportedSource = errors.New("assets: unsupported source for binary asset")

	// ErrEmptySource is returned for a zero AssetPath.
	ErrEmptySource = errors.New("assets: empty source")

	// ErrTaskPanic wraps a panic recovered from a loader task.
	ErrTaskPanic = errors.New("assets: loader panicked")

	// ErrInvalidMesh is returned for mesh data that cannot be uploaded.
	ErrInvalidMesh = errors.New("assets: invalid mesh data")

	// ErrImageTooLarge is returned when an image header declares more
	// pixels than WithMaxDecodePixels allows.
	ErrImageTooLarge = decode.ErrTooLarge
)

// LoadError describes a background load that did not produce a payload.
// The asset it names keeps its default payload.
type LoadError struct {
	// ID is the asset the load was for.
	ID HandleID

	// Source describes what was being loaded (usually a path).
	Source string

	// Err is the underlying failure.
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("assets: load %s (%v): %v", e.Source, e.ID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
