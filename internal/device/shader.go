package device

import "lightfield-renderer/internal/mathutil"

// Fragment is the interpolated input of a pixel shader invocation.
type Fragment struct {
	X, Y      int
	U, V      float64 // interpolated texture coordinate
	Depth     float64 // clip-space depth in [0, 1]
	ViewDepth float64 // view-space z before projection
	World     mathutil.Vec3
	Normal    mathutil.Vec3
	Color     [4]float64
}

// Output holds one colour per simultaneously bound render target.
type Output [MaxRenderTargets][4]float64

// PixelShader shades one fragment. Returning false discards it: no target
// and no depth is written.
type PixelShader func(st *ShaderState, f *Fragment, out *Output) bool

// ShaderState is the read-only view of the context's pipeline bindings
// available to a pixel shader.
type ShaderState struct {
	ctx *Context
}

// Viewport returns the size of the bound render targets.
func (s *ShaderState) Viewport() (int, int) {
	return s.ctx.vpW, s.ctx.vpH
}

// Texture returns the 2D texture bound at a pixel-stage slot, or nil.
func (s *ShaderState) Texture(slot int) *Texture2D {
	if slot < 0 || slot >= MaxResourceSlots {
		return nil
	}
	t, _ := s.ctx.psRes[slot].(*Texture2D)
	return t
}

// Array returns the texture array bound at a pixel-stage slot, or nil.
func (s *ShaderState) Array(slot int) *TextureArray {
	if slot < 0 || slot >= MaxResourceSlots {
		return nil
	}
	a, _ := s.ctx.psRes[slot].(*TextureArray)
	return a
}

// PSConstant reads a pixel-stage constant buffer of type T.
func PSConstant[T any](s *ShaderState, slot int) (T, bool) {
	if slot < 0 || slot >= MaxConstantSlots {
		var zero T
		return zero, false
	}
	return constantAt[T](s.ctx.psConst[slot])
}

// VSConstant reads a vertex-stage constant buffer of type T.
func VSConstant[T any](s *ShaderState, slot int) (T, bool) {
	if slot < 0 || slot >= MaxConstantSlots {
		var zero T
		return zero, false
	}
	return constantAt[T](s.ctx.vsConst[slot])
}
