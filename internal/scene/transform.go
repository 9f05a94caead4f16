package scene

import "lightfield-renderer/internal/mathutil"

// Transform is a position, rotation and non-uniform scale. The model matrix
// T * R * S and its inverse are rebuilt lazily on the first read after a
// mutation.
type Transform struct {
	position mathutil.Vec3
	rotation mathutil.Quat
	scale    mathutil.Vec3

	dirty   bool
	model   mathutil.Mat4
	inverse mathutil.Mat4
	normal  mathutil.Mat4
}

// NewTransform returns an identity transform.
func NewTransform() *Transform {
	return &Transform{
		rotation: mathutil.QuatIdentity(),
		scale:    mathutil.Vec3{1, 1, 1},
		dirty:    true,
	}
}

func (t *Transform) Position() mathutil.Vec3 { return t.position }
func (t *Transform) Rotation() mathutil.Quat { return t.rotation }
func (t *Transform) Scale() mathutil.Vec3    { return t.scale }

func (t *Transform) SetPosition(p mathutil.Vec3) {
	t.position = p
	t.dirty = true
}

func (t *Transform) SetRotation(q mathutil.Quat) {
	t.rotation = q.Normalize()
	t.dirty = true
}

// SetRotationEuler replaces the rotation with roll about z, then pitch about
// x, then yaw about y. Angles are in radians.
func (t *Transform) SetRotationEuler(pitch, yaw, roll float64) {
	t.rotation = mathutil.QuatRollPitchYaw(pitch, yaw, roll)
	t.dirty = true
}

func (t *Transform) SetScale(s mathutil.Vec3) {
	t.scale = s
	t.dirty = true
}

// Translate moves the position by d in world space.
func (t *Transform) Translate(d mathutil.Vec3) {
	t.position = t.position.Add(d)
	t.dirty = true
}

// RotateEuler applies an additional world-space rotation after the current one.
func (t *Transform) RotateEuler(pitch, yaw, roll float64) {
	t.rotation = mathutil.QuatRollPitchYaw(pitch, yaw, roll).Mul(t.rotation).Normalize()
	t.dirty = true
}

func (t *Transform) Right() mathutil.Vec3   { return t.rotation.Rotate(mathutil.Vec3{1, 0, 0}) }
func (t *Transform) Up() mathutil.Vec3      { return t.rotation.Rotate(mathutil.Vec3{0, 1, 0}) }
func (t *Transform) Forward() mathutil.Vec3 { return t.rotation.Rotate(mathutil.Vec3{0, 0, 1}) }

// Matrix returns the model matrix.
func (t *Transform) Matrix() mathutil.Mat4 {
	t.update()
	return t.model
}

// Inverse returns the inverse of the model matrix.
func (t *Transform) Inverse() mathutil.Mat4 {
	t.update()
	return t.inverse
}

// NormalMatrix returns the inverse transpose of the model's linear part.
func (t *Transform) NormalMatrix() mathutil.Mat4 {
	t.update()
	return t.normal
}

func (t *Transform) update() {
	if !t.dirty {
		return
	}
	r := mathutil.FromMat3Translation(mathutil.QuatToMat3(t.rotation), mathutil.Vec3{})
	t.model = mathutil.Mat4Mul(mathutil.Mat4Translation(t.position),
		mathutil.Mat4Mul(r, mathutil.Mat4Scale(t.scale)))
	t.inverse = t.model.Inverse()
	t.normal = mathutil.NormalMatrix(t.model)
	t.dirty = false
}
