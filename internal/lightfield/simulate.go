package lightfield

import (
	"math"

	"lightfield-renderer/internal/device"
	"lightfield-renderer/internal/mathutil"
)

// Drawable is a scene object as seen by the render pass.
type Drawable interface {
	ModelMatrix() mathutil.Mat4
	NormalMatrix() mathutil.Mat4
	GPUMesh() *device.Mesh
	DiffuseTexture() *device.Texture2D
}

// alphaCutoff discards nearly transparent texels.
const alphaCutoff = 8.0 / 255

// Simulate renders every object into every camera slot, slots in index
// order and objects in list order. Nothing is culled. The camera constants
// must already be bound to device.VSSlotCamera.
func (r *Rig) Simulate(ctx *device.Context, objects []Drawable) error {
	ctx.SetPixelShader(r.shade)
	for i := range r.offsets {
		if err := r.BindSlot(ctx, i); err != nil {
			return err
		}
		for _, o := range objects {
			r.objectCB.Update(ctx, device.ObjectConstants{
				Model:  o.ModelMatrix(),
				Normal: o.NormalMatrix(),
			})
			if err := ctx.VSSetConstantBuffer(device.VSSlotObject, r.objectCB); err != nil {
				return err
			}
			if err := ctx.PSSetShaderResource(0, o.DiffuseTexture()); err != nil {
				return err
			}
			ctx.DrawIndexed(o.GPUMesh())
		}
	}
	ctx.ClearRenderTargets()
	return ctx.PSSetShaderResource(0, nil)
}

// shade writes the lit colour to target 0 and the linear view depth,
// normalised to [near, far], to target 1.
func (r *Rig) shade(st *device.ShaderState, f *device.Fragment, out *device.Output) bool {
	albedo := f.Color
	if tex := st.Texture(0); tex != nil {
		t := tex.Sample(f.U, f.V, device.AddressWrap)
		for k := 0; k < 4; k++ {
			albedo[k] *= t[k]
		}
	}
	if albedo[3] < alphaCutoff {
		return false
	}

	lit := r.lighting.Apply(albedo, r.lighting.Shade(f.Normal.Normalize()))
	lit[3] = 1
	out[0] = lit

	depth := f.Depth
	if cam, ok := device.VSConstant[device.CameraConstants](st, device.VSSlotCamera); ok && cam.Far > cam.Near {
		depth = (f.ViewDepth - cam.Near) / (cam.Far - cam.Near)
	}
	out[1] = [4]float64{math.Min(math.Max(depth, 0), 1), 0, 0, 0}
	return true
}
