package input

import (
	"lightfield-renderer/internal/mathutil"
	"lightfield-renderer/internal/scene"
)

// Controller flies a transform with WASD/QE and aims it with the mouse.
type Controller struct {
	Speed       float64 // units per second
	FastFactor  float64 // with Shift held
	SlowFactor  float64 // with Control held
	Sensitivity float64 // radians per unit of mouse motion

	// Base is the orientation at mouse position (0, 0).
	Base mathutil.Quat
}

func DefaultController() Controller {
	return Controller{Speed: 3, FastFactor: 4, SlowFactor: 0.5, Sensitivity: 0.0025, Base: mathutil.QuatIdentity()}
}

// Apply moves tr for a frame lasting dt seconds. Orientation is absolute:
// pitch and yaw follow the accumulated mouse position.
func (c Controller) Apply(tr *scene.Transform, s *State, dt float64) {
	tr.SetRotation(mathutil.QuatRollPitchYaw(s.Mouse.Y*c.Sensitivity, s.Mouse.X*c.Sensitivity, 0).Mul(c.Base))

	speed := c.Speed
	if s.Keyboard.Down(KeyShift) {
		speed *= c.FastFactor
	}
	if s.Keyboard.Down(KeyControl) {
		speed *= c.SlowFactor
	}
	magn := dt * speed

	kb := &s.Keyboard
	if kb.Down(KeyW) {
		tr.Translate(tr.Forward().Scale(magn))
	} else if kb.Down(KeyS) {
		tr.Translate(tr.Forward().Scale(-magn))
	}
	if kb.Down(KeyA) {
		tr.Translate(tr.Right().Scale(-magn))
	} else if kb.Down(KeyD) {
		tr.Translate(tr.Right().Scale(magn))
	}
	if kb.Down(KeyQ) {
		tr.Translate(tr.Up().Scale(-magn))
	} else if kb.Down(KeyE) {
		tr.Translate(tr.Up().Scale(magn))
	}
}
