// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// BufferDescriptor describes a GPU buffer to create.
type BufferDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Size is the buffer size in bytes. When zero, the length of the
	// initial data is used.
	Size uint64

	// Usage flags. CopyDst is added automatically when initial data is given.
	Usage gputypes.BufferUsage
}

// Buffer is a GPU buffer holding vertex, index or uniform data.
type Buffer struct {
	ctx   *Context
	raw   hal.Buffer
	label string
	size  uint64
	usage gputypes.BufferUsage

	destroyed atomic.Bool
}

// Raw returns the underlying HAL buffer.
func (b *Buffer) Raw() hal.Buffer { return b.raw }

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 { return b.size }

// Usage returns the buffer usage flags.
func (b *Buffer) Usage() gputypes.BufferUsage { return b.usage }

// Label returns the debug label.
func (b *Buffer) Label() string { return b.label }

// IsDestroyed reports whether Destroy has been called.
func (b *Buffer) IsDestroyed() bool { return b.destroyed.Load() }

// Destroy releases the GPU buffer. Subsequent calls are no-ops.
func (b *Buffer) Destroy() {
	if b == nil || !b.destroyed.CompareAndSwap(false, true) {
		return
	}
	if b.ctx != nil {
		b.ctx.destroyBuffer(b)
	}
}
