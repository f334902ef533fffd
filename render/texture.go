// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DefaultTextureUsage is the usage for sampled textures filled from the CPU.
const DefaultTextureUsage = gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst

// TextureDescriptor describes a 2D texture to create.
type TextureDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Width is the texture width in pixels.
	Width uint32

	// Height is the texture height in pixels.
	Height uint32

	// MipLevels is the number of mip levels. Zero is treated as 1.
	MipLevels uint32

	// Format is the texel format. Only 4-byte formats are uploaded.
	Format gputypes.TextureFormat

	// Usage defaults to DefaultTextureUsage when zero.
	Usage gputypes.TextureUsage

	// Repeat selects a repeating sampler instead of clamp-to-edge.
	Repeat bool
}

// DefaultTextureDescriptor returns a single-level sampled texture descriptor.
func DefaultTextureDescriptor(width, height uint32, format gputypes.TextureFormat) TextureDescriptor {
	return TextureDescriptor{
		Width:     width,
		Height:    height,
		MipLevels: 1,
		Format:    format,
		Usage:     DefaultTextureUsage,
	}
}

// levelSize returns the byte size of mip level i.
func (d TextureDescriptor) levelSize(i uint32) uint64 {
	w, h := mipExtent(d.Width, i), mipExtent(d.Height, i)
	return uint64(w) * uint64(h) * 4
}

// SizeBytes returns the total byte size of all mip levels.
func (d TextureDescriptor) SizeBytes() uint64 {
	levels := max(d.MipLevels, 1)
	var total uint64
	for i := range levels {
		total += d.levelSize(i)
	}
	return total
}

// mipExtent returns the extent of mip level i, never below 1.
func mipExtent(base, level uint32) uint32 {
	return max(base>>level, 1)
}

// Texture is a sampled 2D GPU texture together with its default view and sampler.
//
// Texture is the payload type of texture assets. Destroy is idempotent and
// safe to call from any goroutine.
type Texture struct {
	ctx     *Context
	raw     hal.Texture
	view    hal.TextureView
	sampler hal.Sampler

	label     string
	width     uint32
	height    uint32
	mipLevels uint32
	format    gputypes.TextureFormat
	repeat    bool
	sizeBytes uint64

	destroyed atomic.Bool
}

// Width returns the width of mip level 0 in pixels.
func (t *Texture) Width() uint32 { return t.width }

// Height returns the height of mip level 0 in pixels.
func (t *Texture) Height() uint32 { return t.height }

// MipLevels returns the number of mip levels.
func (t *Texture) MipLevels() uint32 { return t.mipLevels }

// Format returns the texel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Repeat reports whether the sampler repeats instead of clamping to edge.
func (t *Texture) Repeat() bool { return t.repeat }

// Label returns the debug label.
func (t *Texture) Label() string { return t.label }

// SizeBytes returns the GPU memory accounted for this texture.
func (t *Texture) SizeBytes() uint64 { return t.sizeBytes }

// Raw returns the underlying HAL texture.
func (t *Texture) Raw() hal.Texture { return t.raw }

// View returns the default full-texture view.
func (t *Texture) View() hal.TextureView { return t.view }

// Sampler returns the texture's sampler.
func (t *Texture) Sampler() hal.Sampler { return t.sampler }

// IsDestroyed reports whether Destroy has been called.
func (t *Texture) IsDestroyed() bool { return t.destroyed.Load() }

// Destroy releases the GPU objects. Subsequent calls are no-ops.
func (t *Texture) Destroy() {
	if t == nil || !t.destroyed.CompareAndSwap(false, true) {
		return
	}
	if t.ctx != nil {
		t.ctx.destroyTexture(t)
	}
}
