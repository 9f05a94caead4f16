package device

import "lightfield-renderer/internal/mathutil"

// Vertex-stage constant slots read by DrawIndexed.
const (
	VSSlotObject = 0
	VSSlotCamera = 1
	VSSlotOffset = 3
)

// ObjectConstants carries an object's model matrix and the matching normal matrix.
type ObjectConstants struct {
	Model  mathutil.Mat4
	Normal mathutil.Mat4
}

// CameraConstants carries the main camera. Near and Far are the projection
// planes, needed by pixel shaders that linearise depth.
type CameraConstants struct {
	View       mathutil.Mat4
	Projection mathutil.Mat4
	Position   mathutil.Vec3
	Near       float64
	Far        float64
}

// OffsetConstants displaces the view-space position of every vertex; one
// per rig camera.
type OffsetConstants struct {
	Offset mathutil.Vec3
}

// ConstantBinding is a constant buffer of any type, as accepted by the
// Set*ConstantBuffer calls.
type ConstantBinding interface {
	Resource
	value() any
}

// ConstantBuffer is a small typed block of shader constants.
type ConstantBuffer[T any] struct {
	dev      *Device
	data     T
	released bool
}

// NewConstantBuffer creates a buffer holding init.
func NewConstantBuffer[T any](dev *Device, init T) (*ConstantBuffer[T], error) {
	if err := dev.track(); err != nil {
		return nil, err
	}
	return &ConstantBuffer[T]{dev: dev, data: init}, nil
}

// Update replaces the contents. The write is synchronous: it is visible to
// the next draw issued on ctx.
func (cb *ConstantBuffer[T]) Update(ctx *Context, v T) {
	cb.data = v
	ctx.stats.ConstantUpdates++
}

// Data returns the current contents.
func (cb *ConstantBuffer[T]) Data() T { return cb.data }

func (cb *ConstantBuffer[T]) Released() bool { return cb.released }

func (cb *ConstantBuffer[T]) Release() {
	if cb.released {
		return
	}
	cb.released = true
	cb.dev.untrack()
}

func (cb *ConstantBuffer[T]) value() any { return cb.data }

func constantAt[T any](b ConstantBinding) (T, bool) {
	var zero T
	if b == nil || b.Released() {
		return zero, false
	}
	v, ok := b.value().(T)
	return v, ok
}
