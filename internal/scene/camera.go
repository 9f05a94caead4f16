package scene

import (
	"lightfield-renderer/internal/device"
	"lightfield-renderer/internal/mathutil"
)

// Camera is the main viewpoint. Rig cameras are offsets from it.
type Camera struct {
	Transform *Transform
	FovY      float64
	Aspect    float64
	Near      float64
	Far       float64
}

// NewCamera returns a left-handed perspective camera at the origin looking
// down +z.
func NewCamera(fovY, aspect, near, far float64) *Camera {
	return &Camera{
		Transform: NewTransform(),
		FovY:      fovY,
		Aspect:    aspect,
		Near:      near,
		Far:       far,
	}
}

// View returns the world-to-view matrix.
func (c *Camera) View() mathutil.Mat4 {
	return c.Transform.Inverse()
}

func (c *Camera) Projection() mathutil.Mat4 {
	return mathutil.PerspectiveFovLH(c.FovY, c.Aspect, c.Near, c.Far)
}

// Constants packs the camera for the vertex stage.
func (c *Camera) Constants() device.CameraConstants {
	return device.CameraConstants{
		View:       c.View(),
		Projection: c.Projection(),
		Position:   c.Transform.Position(),
		Near:       c.Near,
		Far:        c.Far,
	}
}
