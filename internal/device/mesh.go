package device

import (
	"fmt"

	"lightfield-renderer/internal/mathutil"
)

// Vertex is the single vertex layout understood by DrawIndexed.
type Vertex struct {
	Pos    mathutil.Vec3
	Normal mathutil.Vec3
	Color  [4]float64
	UV     [2]float64
}

// Mesh is an immutable vertex + index buffer pair.
type Mesh struct {
	dev      *Device
	vertices []Vertex
	indices  []uint32
	released bool
}

// NewMesh uploads vertices and a triangle list. Every index must reference
// an existing vertex.
func (d *Device) NewMesh(vertices []Vertex, indices []uint32) (*Mesh, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices is not a triangle list", ErrInvalidMesh, len(indices))
	}
	for _, i := range indices {
		if int(i) >= len(vertices) {
			return nil, fmt.Errorf("%w: index %d with %d vertices", ErrInvalidMesh, i, len(vertices))
		}
	}
	if err := d.track(); err != nil {
		return nil, err
	}
	m := &Mesh{
		dev:      d,
		vertices: append([]Vertex(nil), vertices...),
		indices:  append([]uint32(nil), indices...),
	}
	return m, nil
}

func (m *Mesh) VertexCount() int   { return len(m.vertices) }
func (m *Mesh) IndexCount() int    { return len(m.indices) }
func (m *Mesh) TriangleCount() int { return len(m.indices) / 3 }

func (m *Mesh) Released() bool { return m.released }

func (m *Mesh) Release() {
	if m.released {
		return
	}
	m.released = true
	m.vertices = nil
	m.indices = nil
	m.dev.untrack()
}
