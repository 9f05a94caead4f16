package scene

import (
	"fmt"
	"path/filepath"

	"lightfield-renderer/internal/device"
	"lightfield-renderer/internal/log"
	"lightfield-renderer/internal/mathutil"
)

var logger = log.New("scene")

// Object is a drawable: a named mesh placed by a transform.
type Object struct {
	Name      string
	Transform *Transform
	Mesh      *Mesh
}

func (o *Object) ModelMatrix() mathutil.Mat4  { return o.Transform.Matrix() }
func (o *Object) NormalMatrix() mathutil.Mat4 { return o.Transform.NormalMatrix() }
func (o *Object) GPUMesh() *device.Mesh       { return o.Mesh.GPU() }
func (o *Object) DiffuseTexture() *device.Texture2D {
	return o.Mesh.Texture()
}

// ObjectDesc places a primitive or a Wavefront model in the scene. Rotation
// is given in degrees.
type ObjectDesc struct {
	Name      string        `json:"name" toml:"name"`
	Primitive string        `json:"primitive,omitempty" toml:"primitive,omitempty"`
	Model     string        `json:"model,omitempty" toml:"model,omitempty"`
	Texture   string        `json:"texture,omitempty" toml:"texture,omitempty"`
	Position  mathutil.Vec3 `json:"position" toml:"position"`
	Rotation  mathutil.Vec3 `json:"rotation" toml:"rotation"`
	Scale     mathutil.Vec3 `json:"scale" toml:"scale"`
}

// Scene owns the object list and the main camera. The render pass only
// reads it.
type Scene struct {
	Objects []*Object
	Camera  *Camera

	textures *TextureCache
}

// New creates an empty scene around cam.
func New(cam *Camera) *Scene {
	return &Scene{Camera: cam, textures: NewTextureCache()}
}

// Add appends an object with an identity transform and returns it.
func (s *Scene) Add(name string, m *Mesh) *Object {
	o := &Object{Name: name, Transform: NewTransform(), Mesh: m}
	s.Objects = append(s.Objects, o)
	return o
}

// Build adds every described object. Relative model and texture paths are
// resolved against baseDir.
func (s *Scene) Build(descs []ObjectDesc, baseDir string) error {
	for _, d := range descs {
		meshes, err := d.meshes(baseDir, s.textures)
		if err != nil {
			return err
		}
		for i, m := range meshes {
			name := d.Name
			if len(meshes) > 1 {
				name = fmt.Sprintf("%s/%s", d.Name, m.Name)
			}
			o := s.Add(name, m)
			o.Transform.SetPosition(d.Position)
			o.Transform.SetRotation(mathutil.EulerDeg(d.Rotation))
			scale := d.Scale
			if scale == (mathutil.Vec3{}) {
				scale = mathutil.Vec3{1, 1, 1}
			}
			o.Transform.SetScale(scale)
			logger.Debugf("object %q mesh %d: %d triangles", name, i, len(m.Indices)/3)
		}
	}
	return nil
}

func (d ObjectDesc) meshes(baseDir string, textures *TextureCache) ([]*Mesh, error) {
	var meshes []*Mesh
	switch {
	case d.Model != "":
		var err error
		meshes, err = loadOBJ(resolve(baseDir, d.Model), textures)
		if err != nil {
			return nil, err
		}
	default:
		m, err := Primitive(d.Primitive)
		if err != nil {
			return nil, fmt.Errorf("scene: object %q: %w", d.Name, err)
		}
		meshes = []*Mesh{m}
	}
	if d.Texture != "" {
		img, err := textures.Load(resolve(baseDir, d.Texture))
		if err != nil {
			return nil, err
		}
		for _, m := range meshes {
			m.Diffuse = img
		}
	}
	return meshes, nil
}

func resolve(baseDir, p string) string {
	if baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// Upload creates device resources for every mesh.
func (s *Scene) Upload(dev *device.Device) error {
	for _, o := range s.Objects {
		if err := o.Mesh.Upload(dev); err != nil {
			return err
		}
	}
	return nil
}

// Release frees the device resources of every mesh.
func (s *Scene) Release() {
	for i := len(s.Objects) - 1; i >= 0; i-- {
		s.Objects[i].Mesh.Release()
	}
}
