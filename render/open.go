// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Device opening errors.
var (
	// ErrBackendUnavailable is returned when the requested backend is not registered.
	// Backends register themselves through a blank import, for example
	// _ "github.com/gogpu/wgpu/hal/vulkan".
	ErrBackendUnavailable = errors.New("render: backend not available")

	// ErrNoAdapter is returned when the backend exposes no adapters.
	ErrNoAdapter = errors.New("render: no GPU adapters found")
)

// Open creates a standalone device on the given backend and returns a
// Context that owns it. Discrete and integrated GPUs are preferred over
// software adapters.
func Open(backend gputypes.Backend, opts ...ContextOption) (*Context, error) {
	b, ok := hal.GetBackend(backend)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, backend)
	}
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("render: create instance: %w", err)
	}
	return openOn(instance, opts)
}

// OpenNoop creates a Context on the no-op HAL backend. Every call succeeds
// and nothing reaches a GPU, which makes it suitable for headless tools
// and tests.
func OpenNoop(opts ...ContextOption) (*Context, error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("render: create noop instance: %w", err)
	}
	return openOn(instance, opts)
}

func openOn(instance hal.Instance, opts []ContextOption) (*Context, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("render: open device: %w", err)
	}

	ctx := NewContext(openDev.Device, openDev.Queue, opts...)
	ctx.instance = instance
	ctx.owned = true
	ctx.adapter = adapterInfo(selected.Info)

	slogger().Info("render: device opened", "adapter", ctx.adapter.Name, "type", ctx.adapter.Type)
	return ctx, nil
}
