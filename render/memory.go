// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
)

// ErrMemoryBudgetExceeded is returned when an allocation would exceed the budget.
var ErrMemoryBudgetExceeded = errors.New("render: memory budget exceeded")

// MemoryStats contains GPU memory usage statistics for one Context.
type MemoryStats struct {
	// BudgetBytes is the memory budget in bytes. Zero means unlimited.
	BudgetBytes uint64

	// UsedBytes is the currently allocated memory in bytes.
	UsedBytes uint64

	// PeakBytes is the highest UsedBytes observed.
	PeakBytes uint64

	// TextureCount is the number of live textures.
	TextureCount int

	// BufferCount is the number of live buffers.
	BufferCount int

	// ShaderCount is the number of live shader modules.
	ShaderCount int

	// Rejected counts allocations refused because of the budget.
	Rejected uint64
}

// Utilization is the fraction of the budget in use (0.0 to 1.0).
// It is always 0 for an unlimited budget.
func (s MemoryStats) Utilization() float64 {
	if s.BudgetBytes == 0 {
		return 0
	}
	return float64(s.UsedBytes) / float64(s.BudgetBytes)
}

// String returns a human-readable string of memory stats.
func (s MemoryStats) String() string {
	if s.BudgetBytes == 0 {
		return fmt.Sprintf("Memory[%d KB used, %d textures, %d buffers, %d shaders]",
			s.UsedBytes/1024, s.TextureCount, s.BufferCount, s.ShaderCount)
	}
	return fmt.Sprintf("Memory[%.1f%% used, %d/%d MB, %d textures, %d buffers, %d shaders, %d rejected]",
		s.Utilization()*100,
		s.UsedBytes/(1024*1024),
		s.BudgetBytes/(1024*1024),
		s.TextureCount,
		s.BufferCount,
		s.ShaderCount,
		s.Rejected)
}

// budget tracks allocations against an optional limit.
// Not safe for concurrent use; Context guards it with its mutex.
type budget struct {
	limit    uint64
	used     uint64
	peak     uint64
	textures int
	buffers  int
	shaders  int
	rejected uint64
}

// reserve accounts for size bytes, failing if the limit would be exceeded.
func (b *budget) reserve(size uint64) error {
	if b.limit > 0 && b.used+size > b.limit {
		b.rejected++
		return fmt.Errorf("%w: need %d bytes, have %d bytes available",
			ErrMemoryBudgetExceeded, size, b.limit-b.used)
	}
	b.used += size
	if b.used > b.peak {
		b.peak = b.used
	}
	return nil
}

// release returns size bytes to the budget.
func (b *budget) release(size uint64) {
	if size > b.used {
		b.used = 0
		return
	}
	b.used -= size
}

func (b *budget) stats() MemoryStats {
	return MemoryStats{
		BudgetBytes:  b.limit,
		UsedBytes:    b.used,
		PeakBytes:    b.peak,
		TextureCount: b.textures,
		BufferCount:  b.buffers,
		ShaderCount:  b.shaders,
		Rejected:     b.rejected,
	}
}
