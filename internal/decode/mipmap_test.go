package decode

import "testing"

func TestMipLevelCount(t *testing.T) {
	tests := []struct {
		w, h, want int
	}{
		{1, 1, 1},
		{2, 2, 2},
		{256, 256, 9},
		{256, 1, 9},
		{300, 200, 9},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := MipLevelCount(tt.w, tt.h); got != tt.want {
			t.Errorf("MipLevelCount(%d, %d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestMipmaps(t *testing.T) {
	src := Solid(8, 2, 200, 100, 50, 255)
	chain := Mipmaps(src)

	if len(chain) != 4 {
		t.Fatalf("len(chain) = %d, want 4", len(chain))
	}
	if chain[0] != src {
		t.Error("level 0 should be the source image")
	}

	wantSizes := [][2]int{{8, 2}, {4, 1}, {2, 1}, {1, 1}}
	for i, level := range chain {
		if level.Width != wantSizes[i][0] || level.Height != wantSizes[i][1] {
			t.Errorf("level %d = %dx%d, want %dx%d", i, level.Width, level.Height, wantSizes[i][0], wantSizes[i][1])
		}
		// A solid image stays solid under a box filter.
		if level.Pix[0] != 200 || level.Pix[1] != 100 || level.Pix[2] != 50 || level.Pix[3] != 255 {
			t.Errorf("level %d pixel = %v, want (200,100,50,255)", i, level.Pix[:4])
		}
	}

	levels := Levels(chain)
	if len(levels) != 4 || len(levels[1]) != 4*1*4 {
		t.Errorf("Levels() sizes wrong: %d levels, level 1 has %d bytes", len(levels), len(levels[1]))
	}
}

func TestMipmapsAverages(t *testing.T) {
	src := NewImage(2, 2)
	copy(src.Pix, []byte{
		0, 0, 0, 0, 255, 255, 255, 255,
		0, 0, 0, 0, 255, 255, 255, 255,
	})
	chain := Mipmaps(src)
	if got := chain[1].Pix; got[0] != 127 || got[3] != 127 {
		t.Errorf("averaged pixel = %v, want 127s", got)
	}
}

func TestMipmapsNil(t *testing.T) {
	if Mipmaps(nil) != nil {
		t.Error("Mipmaps(nil) should be nil")
	}
	if Mipmaps(&Image{}) != nil {
		t.Error("Mipmaps(empty) should be nil")
	}
}
