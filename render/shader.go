// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"sync/atomic"

	"github.com/gogpu/wgpu/hal"
)

// Shader is a compiled shader module.
//
// The zero Shader is a valid placeholder: it has no module and Ready
// reports false until the asset table swaps in a compiled one.
type Shader struct {
	ctx    *Context
	module hal.ShaderModule
	label  string
	words  int

	destroyed atomic.Bool
}

// Module returns the HAL shader module, or nil for a placeholder.
func (s *Shader) Module() hal.ShaderModule { return s.module }

// Ready reports whether the shader holds a live module.
func (s *Shader) Ready() bool { return s.module != nil && !s.destroyed.Load() }

// Label returns the debug label.
func (s *Shader) Label() string { return s.label }

// SPIRVWords returns the length of the SPIR-V the module was built from.
func (s *Shader) SPIRVWords() int { return s.words }

// IsDestroyed reports whether Destroy has been called.
func (s *Shader) IsDestroyed() bool { return s.destroyed.Load() }

// Destroy releases the shader module. Subsequent calls are no-ops.
func (s *Shader) Destroy() {
	if s == nil || !s.destroyed.CompareAndSwap(false, true) {
		return
	}
	if s.ctx != nil {
		s.ctx.destroyShader(s)
	}
}
