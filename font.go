package assets

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Font is the payload of a font asset.
type Font struct {
	// Name is the source the font was loaded from.
	Name string

	// Face is the parsed font. A Face is not safe for concurrent use;
	// goroutines that shape text should each wrap Face.Font with font.NewFace.
	Face *font.Face
}

// parseFont parses TrueType or OpenType data.
func parseFont(name string, data []byte) (*Font, error) {
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("assets: parse font %s: %w", name, err)
	}
	return &Font{Name: name, Face: face}, nil
}

// defaultFont returns Go Regular, embedded in the binary.
func defaultFont() (*Font, error) {
	return parseFont("goregular", goregular.TTF)
}

// LoadFont parses a TrueType or OpenType font from a file or bytes in the
// background. The handle resolves to the default font until then.
func (t *Table) LoadFont(src AssetPath) *Handle[Font] {
	key := src.cacheKey(t.opts.rootPath)
	if key != "" {
		key = "font:" + key
	}
	root, name := t.opts.rootPath, src.String()
	return startLoad(t, key, t.defaults.font, name, t.watchPath(src), func(ctx context.Context) (any, error) {
		data, err := readBytes(root, src)
		if err != nil {
			return nil, err
		}
		f, err := parseFont(name, data)
		if err != nil {
			return nil, err
		}
		return f, nil
	})
}
