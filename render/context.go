// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Context errors.
var (
	// ErrContextClosed is returned when creating resources on a closed Context.
	ErrContextClosed = errors.New("render: context closed")

	// ErrInvalidDimensions is returned for zero or oversized texture extents.
	ErrInvalidDimensions = errors.New("render: invalid texture dimensions")

	// ErrLevelSizeMismatch is returned when mip level data has the wrong length.
	ErrLevelSizeMismatch = errors.New("render: mip level data size mismatch")

	// ErrEmptyBuffer is returned when creating a buffer with no size and no data.
	ErrEmptyBuffer = errors.New("render: empty buffer")

	// ErrEmptySPIRV is returned when creating a shader from empty SPIR-V.
	ErrEmptySPIRV = errors.New("render: empty SPIR-V bytecode")
)

// copyBufferAlignment is the required alignment of buffer sizes for queue writes.
const copyBufferAlignment = 4

// ContextOption configures a Context.
type ContextOption func(*contextOptions)

type contextOptions struct {
	budgetBytes    uint64
	maxTextureSize uint32
}

// WithMemoryBudget limits the bytes of textures and buffers the Context
// may hold at once. Zero or negative means unlimited.
func WithMemoryBudget(megabytes int) ContextOption {
	return func(o *contextOptions) {
		if megabytes > 0 {
			o.budgetBytes = uint64(megabytes) * 1024 * 1024
		}
	}
}

// WithMaxTextureSize overrides the maximum 2D texture dimension reported by
// the device limits.
func WithMaxTextureSize(size uint32) ContextOption {
	return func(o *contextOptions) {
		if size > 0 {
			o.maxTextureSize = size
		}
	}
}

// Context creates GPU resources on a single device.
//
// Context is safe for concurrent use: creation, upload and destruction are
// serialized on one mutex, which makes it usable from background loader
// goroutines while the host renders.
type Context struct {
	mu sync.Mutex

	device hal.Device
	queue  hal.Queue

	// instance is set when the Context opened the device itself and must
	// destroy it on Close.
	instance hal.Instance
	owned    bool

	adapter gpucontext.AdapterInfo

	maxTextureSize uint32
	budget         budget
	closed         bool
}

// NewContext wraps an existing device and queue. The caller keeps ownership
// of the device: Close releases only the bookkeeping.
func NewContext(device hal.Device, queue hal.Queue, opts ...ContextOption) *Context {
	o := contextOptions{
		maxTextureSize: uint32(gputypes.DefaultLimits().MaxTextureDimension2D),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Context{
		device:         device,
		queue:          queue,
		maxTextureSize: o.maxTextureSize,
		budget:         budget{limit: o.budgetBytes},
		adapter:        gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown},
	}
}

// Device returns the underlying HAL device.
func (c *Context) Device() hal.Device { return c.device }

// Queue returns the underlying HAL queue.
func (c *Context) Queue() hal.Queue { return c.queue }

// AdapterInfo describes the GPU the device runs on. The type is
// AdapterTypeUnknown when the Context wraps a device it did not open.
func (c *Context) AdapterInfo() gpucontext.AdapterInfo { return c.adapter }

// MaxTextureSize returns the largest allowed texture width or height.
func (c *Context) MaxTextureSize() uint32 { return c.maxTextureSize }

// Stats returns current memory usage statistics.
func (c *Context) Stats() MemoryStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.budget.stats()
}

// CreateTexture creates a texture and uploads levels, one byte slice per mip
// level starting at level 0. levels may be empty to leave the texture
// uninitialized; otherwise it must hold exactly desc.MipLevels tightly packed
// 4-byte-per-texel images.
func (c *Context) CreateTexture(desc TextureDescriptor, levels [][]byte) (*Texture, error) {
	if desc.Width == 0 || desc.Height == 0 ||
		desc.Width > c.maxTextureSize || desc.Height > c.maxTextureSize {
		return nil, fmt.Errorf("%w: %dx%d (max %d)", ErrInvalidDimensions, desc.Width, desc.Height, c.maxTextureSize)
	}
	desc.MipLevels = max(desc.MipLevels, 1)
	if desc.Usage == 0 {
		desc.Usage = DefaultTextureUsage
	}
	if len(levels) > 0 {
		if uint32(len(levels)) != desc.MipLevels {
			return nil, fmt.Errorf("%w: %d levels for %d mips", ErrLevelSizeMismatch, len(levels), desc.MipLevels)
		}
		for i, data := range levels {
			if want := desc.levelSize(uint32(i)); uint64(len(data)) != want {
				return nil, fmt.Errorf("%w: level %d has %d bytes, want %d", ErrLevelSizeMismatch, i, len(data), want)
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrContextClosed
	}
	size := desc.SizeBytes()
	if err := c.budget.reserve(size); err != nil {
		return nil, err
	}

	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: desc.MipLevels,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage,
	})
	if err != nil {
		c.budget.release(size)
		return nil, fmt.Errorf("render: create texture %q: %w", desc.Label, err)
	}

	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         desc.Label + "_view",
		Format:        desc.Format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: desc.MipLevels,
	})
	if err != nil {
		c.device.DestroyTexture(tex)
		c.budget.release(size)
		return nil, fmt.Errorf("render: create texture view %q: %w", desc.Label, err)
	}

	addressMode := gputypes.AddressModeClampToEdge
	if desc.Repeat {
		addressMode = gputypes.AddressModeRepeat
	}
	sampler, err := c.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        desc.Label + "_sampler",
		AddressModeU: addressMode,
		AddressModeV: addressMode,
		AddressModeW: addressMode,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		c.device.DestroyTextureView(view)
		c.device.DestroyTexture(tex)
		c.budget.release(size)
		return nil, fmt.Errorf("render: create sampler %q: %w", desc.Label, err)
	}

	for i, data := range levels {
		level := uint32(i)
		w, h := mipExtent(desc.Width, level), mipExtent(desc.Height, level)
		c.queue.WriteTexture(
			&hal.ImageCopyTexture{
				Texture:  tex,
				MipLevel: level,
			},
			data,
			&hal.ImageDataLayout{
				Offset:       0,
				BytesPerRow:  w * 4,
				RowsPerImage: h,
			},
			&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		)
	}

	c.budget.textures++
	slogger().Debug("render: texture created",
		"label", desc.Label, "width", desc.Width, "height", desc.Height,
		"mips", desc.MipLevels, "bytes", size)

	return &Texture{
		ctx:       c,
		raw:       tex,
		view:      view,
		sampler:   sampler,
		label:     desc.Label,
		width:     desc.Width,
		height:    desc.Height,
		mipLevels: desc.MipLevels,
		format:    desc.Format,
		repeat:    desc.Repeat,
		sizeBytes: size,
	}, nil
}

// CreateBuffer creates a buffer and, when data is non-empty, uploads it at
// offset 0. The size is rounded up to the copy alignment.
func (c *Context) CreateBuffer(desc BufferDescriptor, data []byte) (*Buffer, error) {
	size := max(desc.Size, uint64(len(data)))
	if size == 0 {
		return nil, ErrEmptyBuffer
	}
	size = (size + copyBufferAlignment - 1) &^ (copyBufferAlignment - 1)
	usage := desc.Usage
	if len(data) > 0 {
		usage |= gputypes.BufferUsageCopyDst
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrContextClosed
	}
	if err := c.budget.reserve(size); err != nil {
		return nil, err
	}

	buf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		c.budget.release(size)
		return nil, fmt.Errorf("render: create buffer %q: %w", desc.Label, err)
	}

	if len(data) > 0 {
		if pad := int(size) - len(data); pad > 0 {
			padded := make([]byte, size)
			copy(padded, data)
			data = padded
		}
		c.queue.WriteBuffer(buf, 0, data)
	}

	c.budget.buffers++
	slogger().Debug("render: buffer created", "label", desc.Label, "bytes", size)

	return &Buffer{
		ctx:   c,
		raw:   buf,
		label: desc.Label,
		size:  size,
		usage: usage,
	}, nil
}

// CreateShader creates a shader module from SPIR-V words.
func (c *Context) CreateShader(label string, spirv []uint32) (*Shader, error) {
	if len(spirv) == 0 {
		return nil, ErrEmptySPIRV
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrContextClosed
	}

	module, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: label,
		Source: hal.ShaderSource{
			SPIRV: spirv,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("render: create shader module %q: %w", label, err)
	}

	c.budget.shaders++
	slogger().Debug("render: shader created", "label", label, "words", len(spirv))

	return &Shader{
		ctx:    c,
		module: module,
		label:  label,
		words:  len(spirv),
	}, nil
}

// Close marks the Context closed. When the Context opened its own device
// (Open, OpenNoop) the device and instance are destroyed as well.
// Resources destroyed after Close only update the accounting.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	if c.owned {
		if c.device != nil {
			c.device.Destroy()
		}
		if c.instance != nil {
			c.instance.Destroy()
		}
		slogger().Info("render: device closed")
	}
}

func (c *Context) destroyTexture(t *Texture) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		if t.sampler != nil {
			c.device.DestroySampler(t.sampler)
		}
		if t.view != nil {
			c.device.DestroyTextureView(t.view)
		}
		if t.raw != nil {
			c.device.DestroyTexture(t.raw)
		}
	}
	c.budget.release(t.sizeBytes)
	c.budget.textures--
}

func (c *Context) destroyBuffer(b *Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed && b.raw != nil {
		c.device.DestroyBuffer(b.raw)
	}
	c.budget.release(b.size)
	c.budget.buffers--
}

func (c *Context) destroyShader(s *Shader) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed && s.module != nil {
		c.device.DestroyShaderModule(s.module)
	}
	c.budget.shaders--
}
