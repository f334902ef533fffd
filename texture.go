package assets

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/assets/internal/decode"
	"github.com/gogpu/assets/render"
)

// Fallback texel values.
var (
	whitePixel = [4]byte{255, 255, 255, 255}

	// flatNormal encodes the tangent-space normal (0, 0, 1) in a linear
	// texture.
	flatNormal = [4]byte{128, 128, 255, 255}
)

// TextureOptions controls how a texture asset is decoded and uploaded.
type TextureOptions struct {
	// SRGB stores the texels in an sRGB format so sampling converts them to
	// linear. Use it for colour data, not for normal or data maps.
	SRGB bool

	// Normal makes the placeholder the flat normal texture instead of white.
	Normal bool

	// Repeat uses a repeating sampler instead of clamp-to-edge.
	Repeat bool

	// Mipmaps generates a full mip chain. WithMipmaps enables it for all loads.
	Mipmaps bool

	// Label overrides the debug label, which defaults to the source name.
	Label string
}

// variant is the part of the path-cache key that distinguishes different
// textures made from the same file.
func (o TextureOptions) variant() string {
	return fmt.Sprintf("srgb=%t,normal=%t,repeat=%t,mips=%t", o.SRGB, o.Normal, o.Repeat, o.Mipmaps)
}

func (o TextureOptions) format() gputypes.TextureFormat {
	if o.SRGB {
		return gputypes.TextureFormatRGBA8UnormSrgb
	}
	return gputypes.TextureFormatRGBA8Unorm
}

// newSolidTexture creates a 1×1 texture of one colour.
func newSolidTexture(device Device, label string, texel [4]byte, srgb bool) (*render.Texture, error) {
	desc := render.DefaultTextureDescriptor(1, 1, TextureOptions{SRGB: srgb}.format())
	desc.Label = label
	return device.CreateTexture(desc, [][]byte{texel[:]})
}

// LoadColorTexture loads a colour texture with a repeating sampler, as
// tiled UVs expect, from a file. gamma selects an sRGB format. The handle
// resolves to the white default until the load lands. Loading the same path
// with the same gamma again returns a handle to the same asset while it is
// alive.
func (t *Table) LoadColorTexture(path string, gamma bool) *Handle[render.Texture] {
	return t.LoadTexture(FilePath(path), TextureOptions{SRGB: gamma, Repeat: true})
}

// LoadNormalTexture loads a linear normal map with a repeating sampler from
// a file. The handle resolves to the flat normal default until the load
// lands.
func (t *Table) LoadNormalTexture(path string) *Handle[render.Texture] {
	return t.LoadTexture(FilePath(path), TextureOptions{Normal: true, Repeat: true})
}

// LoadTexture loads a texture from a file or in-memory bytes. Inline text
// sources fail in the background with ErrUnsupportedSource.
//
// Decoded images larger than the device limit (or WithMaxTextureSize) are
// scaled down preserving the aspect ratio. Images declaring more pixels than
// WithMaxDecodePixels allows fail with ErrImageTooLarge without being
// decoded.
func (t *Table) LoadTexture(src AssetPath, o TextureOptions) *Handle[render.Texture] {
	o.Mipmaps = o.Mipmaps || t.opts.mipmaps

	placeholder := t.defaults.color
	if o.Normal {
		placeholder = t.defaults.normal
	}

	key := src.cacheKey(t.opts.rootPath)
	if key != "" {
		key = "texture:" + o.variant() + ":" + key
	}

	b := textureBuild{
		device:  t.device,
		root:    t.opts.rootPath,
		maxSize: t.opts.maxTextureSize,
		pixels:  t.opts.maxPixels,
		src:     src,
		opts:    o,
	}
	return startLoad(t, key, placeholder, src.String(), t.watchPath(src), b.run)
}

// textureBuild is the worker-side half of a texture load.
type textureBuild struct {
	device  Device
	root    string
	maxSize uint32
	pixels  int
	src     AssetPath
	opts    TextureOptions
}

func (b textureBuild) run(ctx context.Context) (any, error) {
	data, err := readBytes(b.root, b.src)
	if err != nil {
		return nil, err
	}
	img, _, err := decode.DecodeLimit(data, b.pixels)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := b.device.MaxTextureSize()
	if b.maxSize > 0 && b.maxSize < limit {
		limit = b.maxSize
	}
	img = img.Fit(int(limit))

	chain := []*decode.Image{img}
	if b.opts.Mipmaps {
		chain = decode.Mipmaps(img)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	label := b.opts.Label
	if label == "" {
		label = b.src.String()
	}
	tex, err := b.device.CreateTexture(render.TextureDescriptor{
		Label:     label,
		Width:     uint32(img.Width),
		Height:    uint32(img.Height),
		MipLevels: uint32(len(chain)),
		Format:    b.opts.format(),
		Usage:     render.DefaultTextureUsage,
		Repeat:    b.opts.Repeat,
	}, decode.Levels(chain))
	if err != nil {
		return nil, err
	}
	return tex, nil
}

// watchPath returns the resolved file behind src when hot reload is on.
func (t *Table) watchPath(src AssetPath) string {
	if t.reloader == nil || src.Kind() != SourceFile {
		return ""
	}
	return resolve(t.opts.rootPath, src.Path())
}
