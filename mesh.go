package assets

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/assets/render"
)

// MeshData is CPU-side geometry: interleaved float32 vertex attributes and
// optional uint32 indices. The attribute layout is up to the consumer; the
// table only needs the stride.
type MeshData struct {
	Label string

	// Vertices holds VertexCount*Stride floats.
	Vertices []float32

	// Stride is the number of floats per vertex.
	Stride int

	// Indices may be empty for non-indexed draws.
	Indices []uint32
}

// VertexCount returns the number of vertices.
func (d *MeshData) VertexCount() int {
	if d.Stride <= 0 {
		return 0
	}
	return len(d.Vertices) / d.Stride
}

// Validate reports whether the data can be uploaded.
func (d *MeshData) Validate() error {
	switch {
	case d == nil:
		return fmt.Errorf("%w: nil data", ErrInvalidMesh)
	case d.Stride <= 0:
		return fmt.Errorf("%w: stride %d", ErrInvalidMesh, d.Stride)
	case len(d.Vertices) == 0:
		return fmt.Errorf("%w: no vertices", ErrInvalidMesh)
	case len(d.Vertices)%d.Stride != 0:
		return fmt.Errorf("%w: %d floats is not a multiple of stride %d", ErrInvalidMesh, len(d.Vertices), d.Stride)
	}
	n := uint32(d.VertexCount())
	for i, idx := range d.Indices {
		if idx >= n {
			return fmt.Errorf("%w: index %d at %d out of range (%d vertices)", ErrInvalidMesh, idx, i, n)
		}
	}
	return nil
}

// Mesh is the GPU payload of a mesh asset. The zero Mesh is the placeholder
// loads resolve to before their data arrives.
type Mesh struct {
	Label string

	Vertex *render.Buffer
	Index  *render.Buffer

	VertexCount int
	IndexCount  int

	// Stride is the vertex size in bytes.
	Stride int
}

// Empty reports whether the mesh has no vertex buffer.
func (m *Mesh) Empty() bool { return m.Vertex == nil }

// Destroy releases the buffers.
func (m *Mesh) Destroy() {
	m.Vertex.Destroy()
	m.Index.Destroy()
}

// buildMesh uploads data to device.
func buildMesh(device Device, d *MeshData) (*Mesh, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	vb, err := device.CreateBuffer(render.BufferDescriptor{
		Label: d.Label + "_vertices",
		Usage: gputypes.BufferUsageVertex,
	}, float32Bytes(d.Vertices))
	if err != nil {
		return nil, fmt.Errorf("assets: mesh %q vertices: %w", d.Label, err)
	}

	m := &Mesh{
		Label:       d.Label,
		Vertex:      vb,
		VertexCount: d.VertexCount(),
		Stride:      d.Stride * 4,
	}
	if len(d.Indices) > 0 {
		ib, err := device.CreateBuffer(render.BufferDescriptor{
			Label: d.Label + "_indices",
			Usage: gputypes.BufferUsageIndex,
		}, uint32Bytes(d.Indices))
		if err != nil {
			vb.Destroy()
			return nil, fmt.Errorf("assets: mesh %q indices: %w", d.Label, err)
		}
		m.Index = ib
		m.IndexCount = len(d.Indices)
	}
	return m, nil
}

func float32Bytes(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func uint32Bytes(v []uint32) []byte {
	out := make([]byte, len(v)*4)
	for i, u := range v {
		binary.LittleEndian.PutUint32(out[i*4:], u)
	}
	return out
}

// NewMesh uploads data synchronously and stores the mesh under a fresh id.
// The table destroys the buffers once the mesh is collected.
func (t *Table) NewMesh(data *MeshData) (*Handle[Mesh], error) {
	m, err := buildMesh(t.device, data)
	if err != nil {
		return nil, err
	}
	id := t.insert(m, true, "")
	return newHandle[Mesh](id, t.queues), nil
}

// LoadMesh runs build in the background, uploads the result and returns a
// handle that resolves to an empty mesh until then. key deduplicates like
// Load; build typically parses a model file.
func (t *Table) LoadMesh(key string, build func(ctx context.Context) (*MeshData, error)) *Handle[Mesh] {
	cacheKey := ""
	if key != "" {
		cacheKey = "mesh:" + key
	}
	source := key
	if source == "" {
		source = "mesh"
	}
	device := t.device
	return startLoad(t, cacheKey, t.defaults.mesh, source, "", func(ctx context.Context) (any, error) {
		data, err := build(ctx)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := buildMesh(device, data)
		if err != nil {
			return nil, err
		}
		return m, nil
	})
}
