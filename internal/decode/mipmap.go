package decode

import "math"

// MipLevelCount returns the number of levels in a full mip chain for the
// given extent: 1 + floor(log2(max(width, height))).
func MipLevelCount(width, height int) int {
	maxDim := max(width, height)
	if maxDim <= 0 {
		return 0
	}
	return 1 + int(math.Floor(math.Log2(float64(maxDim))))
}

// Mipmaps creates a mip chain from src.
//
// Uses a box filter (2x2 average) to downsample each level. The process
// continues until both dimensions reach 1 pixel. src becomes level 0 and
// is not copied.
//
// Returns nil if src is nil or empty.
func Mipmaps(src *Image) []*Image {
	if src == nil || src.Width == 0 || src.Height == 0 {
		return nil
	}

	levels := make([]*Image, MipLevelCount(src.Width, src.Height))
	levels[0] = src
	for i := 1; i < len(levels); i++ {
		levels[i] = downsample(levels[i-1])
	}
	return levels
}

// downsample creates a half-size version of src using a box filter.
func downsample(src *Image) *Image {
	srcW, srcH := src.Width, src.Height
	dst := NewImage(max(1, srcW/2), max(1, srcH/2))

	at := func(x, y int) int { return (y*srcW + x) * 4 }

	for dy := range dst.Height {
		for dx := range dst.Width {
			sx, sy := dx*2, dy*2
			sx1, sy1 := min(sx+1, srcW-1), min(sy+1, srcH-1)

			p0, p1, p2, p3 := at(sx, sy), at(sx1, sy), at(sx, sy1), at(sx1, sy1)
			o := (dy*dst.Width + dx) * 4
			for c := range 4 {
				sum := uint16(src.Pix[p0+c]) + uint16(src.Pix[p1+c]) +
					uint16(src.Pix[p2+c]) + uint16(src.Pix[p3+c])
				dst.Pix[o+c] = byte(sum / 4)
			}
		}
	}
	return dst
}

// Levels returns the pixel data of each level in order, as expected by
// texture upload.
func Levels(chain []*Image) [][]byte {
	out := make([][]byte, len(chain))
	for i, level := range chain {
		out[i] = level.Pix
	}
	return out
}
