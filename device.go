package assets

import "github.com/gogpu/assets/render"

// Device creates the GPU objects loaders hand to the table.
//
// Loader tasks call Device from worker goroutines while the owning
// goroutine renders, so implementations must be safe for concurrent use.
// *render.Context is the standard implementation.
type Device interface {
	// CreateTexture creates a sampled texture and uploads one byte slice
	// per mip level.
	CreateTexture(desc render.TextureDescriptor, levels [][]byte) (*render.Texture, error)

	// CreateBuffer creates a buffer initialized with data.
	CreateBuffer(desc render.BufferDescriptor, data []byte) (*render.Buffer, error)

	// CreateShader creates a shader module from SPIR-V words.
	CreateShader(label string, spirv []uint32) (*render.Shader, error)

	// MaxTextureSize returns the largest texture width or height.
	MaxTextureSize() uint32
}

// memoryReporter is implemented by devices that track their allocations.
type memoryReporter interface {
	Stats() render.MemoryStats
}

var (
	_ Device         = (*render.Context)(nil)
	_ memoryReporter = (*render.Context)(nil)
)
