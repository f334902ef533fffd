package assets

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestAssetPathString(t *testing.T) {
	tests := []struct {
		path AssetPath
		kind SourceKind
		want string
	}{
		{FilePath("tex/a.png"), SourceFile, "tex/a.png"},
		{Bytes("logo", []byte{1, 2}), SourceBytes, "bytes:logo"},
		{Bytes("", []byte{1, 2}), SourceBytes, "bytes(2)"},
		{Text("blit.wgsl", "x"), SourceText, "text:blit.wgsl"},
		{Text("", "abc"), SourceText, "text(3)"},
		{AssetPath{}, SourceNone, "none"},
	}
	for _, tt := range tests {
		if tt.path.Kind() != tt.kind {
			t.Errorf("%v.Kind() = %v, want %v", tt.path, tt.path.Kind(), tt.kind)
		}
		if got := tt.path.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if got := SourceKind(9).String(); got != "SourceKind(9)" {
		t.Errorf("SourceKind(9).String() = %q", got)
	}
}

func TestCacheKeyNormalization(t *testing.T) {
	composed := FilePath("caf\u00e9.png")
	decomposed := FilePath("cafe\u0301.png")
	if composed.cacheKey("res") != decomposed.cacheKey("res") {
		t.Error("NFC and NFD spellings produce different keys")
	}
	if FilePath("a.png").cacheKey("res") != FilePath("res/./a.png").cacheKey("") {
		t.Error("root-relative and cleaned paths produce different keys")
	}
	if Bytes("", nil).cacheKey("") != "" || Text("", "x").cacheKey("") != "" {
		t.Error("unnamed sources must not be cached")
	}
	if FilePath("a").cacheKey("") == Text("a", "").cacheKey("") {
		t.Error("file and text sources share a key")
	}
}

func TestReadTextAndBytes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cfg.txt"), []byte("from file"), 0o644); err != nil {
		t.Fatal(err)
	}
	table := newTable(t, WithRootPath(dir))

	for _, src := range []AssetPath{FilePath("cfg.txt"), Bytes("b", []byte("from file")), Text("t", "from file")} {
		got, err := table.ReadText(src)
		if err != nil || got != "from file" {
			t.Errorf("ReadText(%v) = %q, %v", src, got, err)
		}
	}

	if data, err := table.ReadBytes(FilePath("cfg.txt")); err != nil || string(data) != "from file" {
		t.Errorf("ReadBytes(file) = %q, %v", data, err)
	}
	if _, err := table.ReadBytes(Text("t", "x")); !errors.Is(err, ErrUnsupportedSource) {
		t.Errorf("ReadBytes(text) error = %v, want ErrUnsupportedSource", err)
	}
	if _, err := table.ReadText(AssetPath{}); !errors.Is(err, ErrEmptySource) {
		t.Errorf("ReadText(zero) error = %v, want ErrEmptySource", err)
	}
	if _, err := table.ReadBytes(FilePath("missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadBytes(missing) error = %v, want ErrNotExist", err)
	}
}

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.PNG", "sub/c.png", "sub/deeper/d.png", "e.jpg", "png"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	table := newTable(t, WithRootPath(dir))

	got, err := table.FindFiles(".png")
	if err != nil {
		t.Fatalf("FindFiles failed: %v", err)
	}
	want := []string{
		"a.png",
		"b.PNG",
		filepath.Join("sub", "c.png"),
		filepath.Join("sub", "deeper", "d.png"),
	}
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Errorf("FindFiles(.png) = %v, want %v", got, want)
	}

	if got, _ := table.FindFiles("jpg"); len(got) != 1 {
		t.Errorf("FindFiles(jpg) = %v, want one file", got)
	}

	missing := newTable(t, WithRootPath(filepath.Join(dir, "nope")))
	if got, err := missing.FindFiles("png"); err != nil || len(got) != 0 {
		t.Errorf("FindFiles on missing root = %v, %v; want none", got, err)
	}
}
