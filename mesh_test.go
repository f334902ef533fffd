package assets

import (
	"context"
	"errors"
	"testing"
)

// quad is two triangles with position (3 floats) and uv (2 floats).
func quad() *MeshData {
	return &MeshData{
		Label: "quad",
		Vertices: []float32{
			-1, -1, 0, 0, 0,
			1, -1, 0, 1, 0,
			1, 1, 0, 1, 1,
			-1, 1, 0, 0, 1,
		},
		Stride:  5,
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

func TestMeshDataValidate(t *testing.T) {
	tests := []struct {
		name string
		data *MeshData
		ok   bool
	}{
		{"quad", quad(), true},
		{"no indices", &MeshData{Vertices: []float32{0, 0, 0}, Stride: 3}, true},
		{"nil", nil, false},
		{"zero stride", &MeshData{Vertices: []float32{0}, Stride: 0}, false},
		{"no vertices", &MeshData{Stride: 3}, false},
		{"partial vertex", &MeshData{Vertices: []float32{0, 0, 0, 0}, Stride: 3}, false},
		{"index out of range", &MeshData{Vertices: []float32{0, 0, 0}, Stride: 3, Indices: []uint32{1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidMesh) {
				t.Errorf("Validate() = %v, want ErrInvalidMesh", err)
			}
		})
	}
}

func TestNewMesh(t *testing.T) {
	table := newTable(t, WithFramesInFlight(0))

	h, err := table.NewMesh(quad())
	if err != nil {
		t.Fatalf("NewMesh failed: %v", err)
	}
	m, ok := Get(table, h)
	if !ok || m.Empty() {
		t.Fatalf("Get() = %v, %v; want uploaded mesh", m, ok)
	}
	if m.VertexCount != 4 || m.IndexCount != 6 || m.Stride != 20 {
		t.Errorf("mesh = %d vertices, %d indices, stride %d; want 4, 6, 20", m.VertexCount, m.IndexCount, m.Stride)
	}
	if m.Vertex.Size() != 80 || m.Index.Size() != 24 {
		t.Errorf("buffer sizes = %d, %d; want 80, 24", m.Vertex.Size(), m.Index.Size())
	}

	h.Release()
	table.Sync()
	if !m.Vertex.IsDestroyed() || !m.Index.IsDestroyed() {
		t.Error("collected mesh buffers not destroyed")
	}

	if _, err := table.NewMesh(&MeshData{Stride: 3}); !errors.Is(err, ErrInvalidMesh) {
		t.Errorf("NewMesh(invalid) error = %v, want ErrInvalidMesh", err)
	}
}

func TestLoadMesh(t *testing.T) {
	spawner := &manualSpawner{}
	table := newTable(t, WithSpawner(spawner))

	h := table.LoadMesh("quad.obj", func(context.Context) (*MeshData, error) { return quad(), nil })
	if again := table.LoadMesh("quad.obj", nil); again.ID() != h.ID() {
		t.Error("LoadMesh with the same key did not deduplicate")
	}
	if m, _ := Get(table, h); !m.Empty() {
		t.Error("placeholder mesh is not empty")
	}

	spawner.runAll()
	table.Sync()
	m, _ := Get(table, h)
	if m.Empty() || m.IndexCount != 6 {
		t.Errorf("loaded mesh = %+v", m)
	}
}

func TestFloat32Bytes(t *testing.T) {
	got := float32Bytes([]float32{1})
	want := []byte{0x00, 0x00, 0x80, 0x3f}
	if string(got) != string(want) {
		t.Errorf("float32Bytes(1) = %x, want %x", got, want)
	}
	if got := uint32Bytes([]uint32{0x04030201}); string(got) != "\x01\x02\x03\x04" {
		t.Errorf("uint32Bytes = %x", got)
	}
}
