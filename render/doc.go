// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render is the GPU side of the asset system: it turns decoded pixels,
// vertex data and SPIR-V into wgpu HAL objects.
//
// # Key Principle
//
// The asset table RECEIVES a device from the host application, it does NOT
// require one of its own. A host that already runs gogpu hands over its
// gpucontext.DeviceProvider through [FromProvider]; tools and tests can
// open a private device with [Open] or [OpenNoop].
//
// # Thread Safety
//
// Background loaders create GPU objects from worker goroutines while the
// render goroutine records frames. [Context] serializes every creation and
// upload call on one mutex, so a single *Context may be shared freely.
// Resources ([Texture], [Buffer], [Shader]) remember the context that made
// them and are destroyed through it.
//
// # Usage
//
//	ctx, err := render.Open(gputypes.BackendVulkan)
//	if err != nil {
//	    ctx, _ = render.OpenNoop() // headless fallback
//	}
//	defer ctx.Close()
//
//	desc := render.DefaultTextureDescriptor(1, 1, gputypes.TextureFormatRGBA8UnormSrgb)
//	tex, err := ctx.CreateTexture(desc, [][]byte{{255, 255, 255, 255}})
package render
