// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Provider errors.
var (
	// ErrNoHALProvider is returned when a device provider does not expose HAL objects.
	ErrNoHALProvider = errors.New("render: provider does not expose HAL types")

	// ErrInvalidHALDevice is returned when a provider's HalDevice is not a hal.Device.
	ErrInvalidHALDevice = errors.New("render: provider HalDevice is not hal.Device")

	// ErrInvalidHALQueue is returned when a provider's HalQueue is not a hal.Queue.
	ErrInvalidHALQueue = errors.New("render: provider HalQueue is not hal.Queue")
)

// halProvider is implemented by providers that expose wgpu HAL objects.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// FromProvider builds a Context on top of a host-owned device, such as the
// one a gogpu.App exposes. Besides gpucontext.DeviceProvider the provider
// must implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue. Closing the returned Context does not destroy the host's
// device.
func FromProvider(provider gpucontext.DeviceProvider, opts ...ContextOption) (*Context, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, ErrInvalidHALDevice
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, ErrInvalidHALQueue
	}
	ctx := NewContext(device, queue, opts...)
	ctx.adapter = provider.AdapterInfo()
	slogger().Info("render: using host device", "adapter", ctx.adapter.Name, "type", ctx.adapter.Type)
	return ctx, nil
}

// adapterInfo converts HAL adapter metadata to the gpucontext form.
func adapterInfo(info gputypes.AdapterInfo) gpucontext.AdapterInfo {
	t := gpucontext.AdapterTypeUnknown
	switch info.DeviceType {
	case gputypes.DeviceTypeDiscreteGPU:
		t = gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		t = gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		t = gpucontext.AdapterTypeSoftware
	}
	return gpucontext.AdapterInfo{Name: info.Name, Type: t}
}
