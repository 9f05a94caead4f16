// Package lightfield implements the camera array: a square grid of
// sub-aperture cameras around the main camera, each with its own colour,
// simulated depth and depth/stencil targets, and the scene pass that
// renders every object once per camera.
package lightfield

import (
	"fmt"
	"math"

	"lightfield-renderer/internal/device"
	"lightfield-renderer/internal/log"
	"lightfield-renderer/internal/mathutil"
)

// Pixel-stage resource slots used while previewing a camera.
const (
	SlotPreviewColor = 0
	SlotPreviewDepth = 1
	SlotColorArray   = 0
)

var logger = log.New("lightfield")

// Options sizes the camera grid. The grid has 2*GridRadius+1 cameras per
// side, Spacing world units apart.
type Options struct {
	GridRadius int
	Spacing    float64
}

// Grid describes the camera layout.
type Grid struct {
	Side   int
	Radius int
	Centre int // slot of the camera with zero offset
}

// Offsets lays out the camera displacements in row-major slot order. Row 0
// is the top of the grid and therefore has the largest y: the grid row is
// negated when mapped to world space.
func Offsets(radius int, spacing float64) []mathutil.Vec3 {
	side := 2*radius + 1
	out := make([]mathutil.Vec3, 0, side*side)
	for row := 0; row < side; row++ {
		for col := 0; col < side; col++ {
			out = append(out, mathutil.Vec3{
				float64(col-radius) * spacing,
				-float64(row-radius) * spacing,
				0,
			})
		}
	}
	return out
}

// Rig owns every per-camera resource. All targets share the presentation
// resolution and are never resized.
type Rig struct {
	dev    *device.Device
	opts   Options
	width  int
	height int

	offsets  []mathutil.Vec3
	colors   *device.TextureArray
	depths   []*device.Texture2D
	stencils []*device.DepthStencil
	offsetCB []*device.ConstantBuffer[device.OffsetConstants]
	objectCB *device.ConstantBuffer[device.ObjectConstants]

	preview  int
	lighting Lighting
}

// New allocates a rig of (2*GridRadius+1)² cameras at width x height. On
// any allocation failure the resources created so far are released.
func New(dev *device.Device, opts Options, width, height int) (*Rig, error) {
	if opts.GridRadius < 0 || math.IsNaN(opts.Spacing) || math.IsInf(opts.Spacing, 0) {
		return nil, fmt.Errorf("%w: radius %d spacing %v", ErrInvalidOptions, opts.GridRadius, opts.Spacing)
	}

	r := &Rig{
		dev:      dev,
		opts:     opts,
		width:    width,
		height:   height,
		offsets:  Offsets(opts.GridRadius, opts.Spacing),
		lighting: DefaultLighting(),
	}
	if err := r.allocate(); err != nil {
		r.Release()
		return nil, fmt.Errorf("lightfield: create rig: %w", err)
	}
	logger.Infof("rig of %d cameras (%dx%d), spacing %g", len(r.offsets), width, height, opts.Spacing)
	return r, nil
}

func (r *Rig) allocate() error {
	n := len(r.offsets)
	var err error
	r.colors, err = r.dev.NewTextureArray(device.Desc{Width: r.width, Height: r.height, Format: device.FormatRGBA8}, n)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		d, err := r.dev.NewTexture2D(device.Desc{Width: r.width, Height: r.height, Format: device.FormatR32F})
		if err != nil {
			return err
		}
		r.depths = append(r.depths, d)

		ds, err := r.dev.NewDepthStencil(r.width, r.height)
		if err != nil {
			return err
		}
		r.stencils = append(r.stencils, ds)

		cb, err := device.NewConstantBuffer(r.dev, device.OffsetConstants{Offset: r.offsets[i]})
		if err != nil {
			return err
		}
		r.offsetCB = append(r.offsetCB, cb)
	}
	r.objectCB, err = device.NewConstantBuffer(r.dev, device.ObjectConstants{
		Model:  mathutil.Mat4Identity(),
		Normal: mathutil.Mat4Identity(),
	})
	return err
}

// ClearAll clears every colour and simulated-depth target to transparent
// black and every depth/stencil surface to depth 1, stencil 0.
func (r *Rig) ClearAll(ctx *device.Context) {
	var clear [4]float64
	for i := range r.offsets {
		ctx.ClearRenderTarget(r.colors.Slice(i), clear)
		ctx.ClearRenderTarget(r.depths[i], clear)
		ctx.ClearDepthStencil(r.stencils[i], 1, 0)
	}
}

// BindSlot makes slot i's colour and simulated depth the render targets,
// with its depth/stencil surface, and binds its offset to the vertex stage.
func (r *Rig) BindSlot(ctx *device.Context, i int) error {
	if i < 0 || i >= len(r.offsets) {
		return fmt.Errorf("%w: %d of %d", ErrSlotOutOfRange, i, len(r.offsets))
	}
	if err := ctx.SetRenderTargets([]*device.Texture2D{r.colors.Slice(i), r.depths[i]}, r.stencils[i]); err != nil {
		return err
	}
	return ctx.VSSetConstantBuffer(device.VSSlotOffset, r.offsetCB[i])
}

// CyclePreviewCamera advances the preview camera, wrapping at Len.
func (r *Rig) CyclePreviewCamera() {
	r.preview = (r.preview + 1) % len(r.offsets)
}

func (r *Rig) PreviewCamera() int { return r.preview }

// SetPreviewCamera selects the camera shown by the compositor.
func (r *Rig) SetPreviewCamera(i int) error {
	if i < 0 || i >= len(r.offsets) {
		return fmt.Errorf("%w: %d of %d", ErrSlotOutOfRange, i, len(r.offsets))
	}
	r.preview = i
	return nil
}

// BindPreviewTextures exposes the preview camera's colour and simulated
// depth to the pixel stage.
func (r *Rig) BindPreviewTextures(ctx *device.Context) error {
	if err := ctx.PSSetShaderResource(SlotPreviewColor, r.colors.Slice(r.preview)); err != nil {
		return err
	}
	return ctx.PSSetShaderResource(SlotPreviewDepth, r.depths[r.preview])
}

// UnbindPreviewTextures undoes BindPreviewTextures.
func (r *Rig) UnbindPreviewTextures(ctx *device.Context) error {
	if err := ctx.PSSetShaderResource(SlotPreviewColor, nil); err != nil {
		return err
	}
	return ctx.PSSetShaderResource(SlotPreviewDepth, nil)
}

// BindColorTextures exposes every camera's colour as one texture array.
func (r *Rig) BindColorTextures(ctx *device.Context) error {
	return ctx.PSSetShaderResource(SlotColorArray, r.colors)
}

func (r *Rig) UnbindColorTextures(ctx *device.Context) error {
	return ctx.PSSetShaderResource(SlotColorArray, nil)
}

// Len returns the number of cameras.
func (r *Rig) Len() int { return len(r.offsets) }

func (r *Rig) Width() int  { return r.width }
func (r *Rig) Height() int { return r.height }

// Offsets returns a copy of the camera displacements in slot order.
func (r *Rig) Offsets() []mathutil.Vec3 {
	return append([]mathutil.Vec3(nil), r.offsets...)
}

func (r *Rig) Offset(i int) mathutil.Vec3 { return r.offsets[i] }

func (r *Rig) Grid() Grid {
	side := 2*r.opts.GridRadius + 1
	return Grid{Side: side, Radius: r.opts.GridRadius, Centre: len(r.offsets) / 2}
}

func (r *Rig) Options() Options { return r.opts }

func (r *Rig) Color(i int) *device.Texture2D      { return r.colors.Slice(i) }
func (r *Rig) Depth(i int) *device.Texture2D      { return r.depths[i] }
func (r *Rig) Colors() *device.TextureArray       { return r.colors }
func (r *Rig) Stencil(i int) *device.DepthStencil { return r.stencils[i] }

// Release frees every resource in reverse order of creation.
func (r *Rig) Release() {
	if r.objectCB != nil {
		r.objectCB.Release()
		r.objectCB = nil
	}
	for i := len(r.offsetCB) - 1; i >= 0; i-- {
		r.offsetCB[i].Release()
	}
	for i := len(r.stencils) - 1; i >= 0; i-- {
		r.stencils[i].Release()
	}
	for i := len(r.depths) - 1; i >= 0; i-- {
		r.depths[i].Release()
	}
	r.offsetCB, r.stencils, r.depths = nil, nil, nil
	if r.colors != nil {
		r.colors.Release()
		r.colors = nil
	}
}
