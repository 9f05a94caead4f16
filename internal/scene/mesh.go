package scene

import (
	"fmt"
	"image"
	"math"

	"lightfield-renderer/internal/device"
	"lightfield-renderer/internal/mathutil"
)

// Mesh is CPU-side geometry plus an optional diffuse texture. Upload
// creates the device copies used for drawing.
type Mesh struct {
	Name     string
	Vertices []device.Vertex
	Indices  []uint32
	Diffuse  *image.NRGBA

	gpu *device.Mesh
	tex *device.Texture2D
}

// Upload creates the vertex/index buffer and the diffuse texture.
func (m *Mesh) Upload(dev *device.Device) error {
	if m.gpu != nil {
		return nil
	}
	gpu, err := dev.NewMesh(m.Vertices, m.Indices)
	if err != nil {
		return fmt.Errorf("scene: upload mesh %q: %w", m.Name, err)
	}
	if m.Diffuse != nil {
		tex, err := UploadTexture(dev, m.Diffuse)
		if err != nil {
			gpu.Release()
			return fmt.Errorf("scene: upload texture of %q: %w", m.Name, err)
		}
		m.tex = tex
	}
	m.gpu = gpu
	return nil
}

// GPU returns the uploaded buffers, or nil before Upload.
func (m *Mesh) GPU() *device.Mesh { return m.gpu }

// Texture returns the uploaded diffuse texture, or nil.
func (m *Mesh) Texture() *device.Texture2D { return m.tex }

func (m *Mesh) Release() {
	if m.tex != nil {
		m.tex.Release()
		m.tex = nil
	}
	if m.gpu != nil {
		m.gpu.Release()
		m.gpu = nil
	}
}

// Bounds returns the axis-aligned box of the vertices.
func (m *Mesh) Bounds() (min, max mathutil.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	min, max = m.Vertices[0].Pos, m.Vertices[0].Pos
	for _, v := range m.Vertices[1:] {
		for k := 0; k < 3; k++ {
			min[k] = math.Min(min[k], v.Pos[k])
			max[k] = math.Max(max[k], v.Pos[k])
		}
	}
	return
}

var cubeFaces = []struct {
	normal, u, v mathutil.Vec3
	color        [4]float64
}{
	{mathutil.Vec3{0, 0, -1}, mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 1, 0}, [4]float64{0.90, 0.25, 0.20, 1}},
	{mathutil.Vec3{0, 0, 1}, mathutil.Vec3{-1, 0, 0}, mathutil.Vec3{0, 1, 0}, [4]float64{0.20, 0.70, 0.30, 1}},
	{mathutil.Vec3{-1, 0, 0}, mathutil.Vec3{0, 0, -1}, mathutil.Vec3{0, 1, 0}, [4]float64{0.20, 0.35, 0.90, 1}},
	{mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 0, 1}, mathutil.Vec3{0, 1, 0}, [4]float64{0.95, 0.80, 0.20, 1}},
	{mathutil.Vec3{0, 1, 0}, mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 0, 1}, [4]float64{0.85, 0.85, 0.85, 1}},
	{mathutil.Vec3{0, -1, 0}, mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 0, -1}, [4]float64{0.60, 0.25, 0.75, 1}},
}

// Cube returns a unit cube centred on the origin with one colour per face.
func Cube() *Mesh {
	m := &Mesh{Name: "cube"}
	for _, f := range cubeFaces {
		base := uint32(len(m.Vertices))
		centre := f.normal.Scale(0.5)
		for _, c := range [4][2]float64{{-1, -1}, {-1, 1}, {1, 1}, {1, -1}} {
			p := centre.Add(f.u.Scale(c[0] * 0.5)).Add(f.v.Scale(c[1] * 0.5))
			m.Vertices = append(m.Vertices, device.Vertex{
				Pos:    p,
				Normal: f.normal,
				Color:  f.color,
				UV:     [2]float64{(c[0] + 1) / 2, (1 - c[1]) / 2},
			})
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

// Quad returns a unit square in the xy plane facing -z.
func Quad() *Mesh {
	n := mathutil.Vec3{0, 0, -1}
	col := [4]float64{0.7, 0.7, 0.7, 1}
	return &Mesh{
		Name: "quad",
		Vertices: []device.Vertex{
			{Pos: mathutil.Vec3{-0.5, -0.5, 0}, Normal: n, Color: col, UV: [2]float64{0, 1}},
			{Pos: mathutil.Vec3{-0.5, 0.5, 0}, Normal: n, Color: col, UV: [2]float64{0, 0}},
			{Pos: mathutil.Vec3{0.5, 0.5, 0}, Normal: n, Color: col, UV: [2]float64{1, 0}},
			{Pos: mathutil.Vec3{0.5, -0.5, 0}, Normal: n, Color: col, UV: [2]float64{1, 1}},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// Sphere returns a UV sphere of radius 0.5.
func Sphere(slices, stacks int) *Mesh {
	if slices < 3 {
		slices = 3
	}
	if stacks < 2 {
		stacks = 2
	}
	m := &Mesh{Name: "sphere"}
	col := [4]float64{0.8, 0.8, 0.8, 1}
	for i := 0; i <= stacks; i++ {
		phi := math.Pi * float64(i) / float64(stacks)
		for j := 0; j <= slices; j++ {
			theta := 2 * math.Pi * float64(j) / float64(slices)
			n := mathutil.Vec3{
				math.Sin(phi) * math.Cos(theta),
				math.Cos(phi),
				math.Sin(phi) * math.Sin(theta),
			}
			m.Vertices = append(m.Vertices, device.Vertex{
				Pos:    n.Scale(0.5),
				Normal: n,
				Color:  col,
				UV:     [2]float64{float64(j) / float64(slices), float64(i) / float64(stacks)},
			})
		}
	}
	row := uint32(slices + 1)
	for i := 0; i < stacks; i++ {
		for j := 0; j < slices; j++ {
			a := uint32(i)*row + uint32(j)
			b := a + row
			m.Indices = append(m.Indices, a, b, a+1, a+1, b, b+1)
		}
	}
	return m
}

// Primitive returns a built-in mesh by name.
func Primitive(name string) (*Mesh, error) {
	switch name {
	case "cube":
		return Cube(), nil
	case "quad":
		return Quad(), nil
	case "sphere":
		return Sphere(24, 16), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPrimitive, name)
}
