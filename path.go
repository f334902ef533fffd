package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SourceKind tells how an AssetPath carries its content.
type SourceKind uint8

const (
	// SourceNone is the zero AssetPath.
	SourceNone SourceKind = iota

	// SourceFile is a filesystem path.
	SourceFile

	// SourceBytes is raw in-memory data.
	SourceBytes

	// SourceText is an inline text blob.
	SourceText
)

// String returns the kind name.
func (k SourceKind) String() string {
	switch k {
	case SourceNone:
		return "none"
	case SourceFile:
		return "file"
	case SourceBytes:
		return "bytes"
	case SourceText:
		return "text"
	default:
		return fmt.Sprintf("SourceKind(%d)", k)
	}
}

// AssetPath addresses asset content: a file, raw bytes or inline text.
//
// Text and config assets accept all three kinds uniformly. Binary assets
// (images) accept files and bytes only.
type AssetPath struct {
	kind SourceKind
	path string
	data []byte
	text string
	name string
}

// FilePath addresses a file. Relative paths are resolved against the
// table's root path.
func FilePath(path string) AssetPath {
	return AssetPath{kind: SourceFile, path: path}
}

// Bytes addresses in-memory content. name identifies the content for
// deduplication and diagnostics; an empty name disables deduplication.
func Bytes(name string, data []byte) AssetPath {
	return AssetPath{kind: SourceBytes, data: data, name: name}
}

// Text addresses an inline text blob, e.g. embedded shader source.
// name works as for Bytes.
func Text(name, text string) AssetPath {
	return AssetPath{kind: SourceText, text: text, name: name}
}

// Kind returns how the content is carried.
func (p AssetPath) Kind() SourceKind { return p.kind }

// Path returns the file path for SourceFile, "" otherwise.
func (p AssetPath) Path() string { return p.path }

// String returns a diagnostic description, never the content itself.
func (p AssetPath) String() string {
	switch p.kind {
	case SourceFile:
		return p.path
	case SourceBytes:
		if p.name != "" {
			return "bytes:" + p.name
		}
		return fmt.Sprintf("bytes(%d)", len(p.data))
	case SourceText:
		if p.name != "" {
			return "text:" + p.name
		}
		return fmt.Sprintf("text(%d)", len(p.text))
	default:
		return "none"
	}
}

// cacheKey returns the path-cache key, or "" if p must not be deduplicated.
// File keys are cleaned and NFC-normalized so the same file spelled with
// composed or decomposed characters maps to one asset.
func (p AssetPath) cacheKey(root string) string {
	switch p.kind {
	case SourceFile:
		return "file:" + norm.NFC.String(resolve(root, p.path))
	case SourceBytes:
		if p.name != "" {
			return "bytes:" + norm.NFC.String(p.name)
		}
	case SourceText:
		if p.name != "" {
			return "text:" + norm.NFC.String(p.name)
		}
	}
	return ""
}

// resolve joins relative paths onto root and cleans the result.
func resolve(root, path string) string {
	if root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	return filepath.Clean(path)
}

// readText returns the content of p as text. All kinds are accepted.
func readText(root string, p AssetPath) (string, error) {
	switch p.kind {
	case SourceFile:
		data, err := os.ReadFile(resolve(root, p.path))
		if err != nil {
			return "", fmt.Errorf("assets: read %s: %w", p.path, err)
		}
		return string(data), nil
	case SourceBytes:
		return string(p.data), nil
	case SourceText:
		return p.text, nil
	default:
		return "", ErrEmptySource
	}
}

// readBytes returns the content of p for a binary asset. Inline text is
// rejected with ErrUnsupportedSource.
func readBytes(root string, p AssetPath) ([]byte, error) {
	switch p.kind {
	case SourceFile:
		data, err := os.ReadFile(resolve(root, p.path))
		if err != nil {
			return nil, fmt.Errorf("assets: read %s: %w", p.path, err)
		}
		return data, nil
	case SourceBytes:
		return p.data, nil
	case SourceText:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, p)
	default:
		return nil, ErrEmptySource
	}
}

// ReadText returns the content of p as text. Files, bytes and inline text
// are all accepted. Safe for concurrent use.
func (t *Table) ReadText(p AssetPath) (string, error) {
	return readText(t.opts.rootPath, p)
}

// ReadBytes returns the content of p for a binary asset. Inline text
// sources fail with ErrUnsupportedSource. Safe for concurrent use.
func (t *Table) ReadBytes(p AssetPath) ([]byte, error) {
	return readBytes(t.opts.rootPath, p)
}

// FindFiles returns every file under the root path (recursively) whose
// extension equals ext, with or without the leading dot, compared
// case-insensitively. Paths are relative to the root so they can be passed
// straight to the Load functions. The result is sorted. A missing root yields
// no files.
func (t *Table) FindFiles(ext string) ([]string, error) {
	root := t.opts.rootPath
	if root == "" {
		root = "."
	}
	want := strings.ToLower(strings.TrimPrefix(ext, "."))

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && os.IsNotExist(err) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) != want {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("assets: find files: %w", err)
	}
	slices.Sort(files)
	return files, nil
}
