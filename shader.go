package assets

import (
	"context"
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/assets/render"
)

// LoadShader compiles WGSL source to SPIR-V in the background and creates a
// shader module. Files, bytes and inline text are all accepted. Until the
// module lands the handle resolves to a placeholder whose Ready reports
// false.
func (t *Table) LoadShader(src AssetPath) *Handle[render.Shader] {
	key := src.cacheKey(t.opts.rootPath)
	if key != "" {
		key = "shader:" + key
	}
	device, root, label := t.device, t.opts.rootPath, src.String()
	return startLoad(t, key, t.defaults.shader, label, t.watchPath(src), func(ctx context.Context) (any, error) {
		source, err := readText(root, src)
		if err != nil {
			return nil, err
		}
		spirv, err := compileWGSL(source)
		if err != nil {
			return nil, fmt.Errorf("assets: compile %s: %w", label, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sh, err := device.CreateShader(label, spirv)
		if err != nil {
			return nil, err
		}
		return sh, nil
	})
}

// compileWGSL compiles WGSL to little-endian SPIR-V words.
func compileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, err
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}

	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirv, nil
}
