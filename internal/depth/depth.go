// Package depth reconstructs one depth estimate from the camera array.
//
// The gradient pass compares neighbouring sub-aperture views: a camera step
// of one grid cell shifts a surface by a disparity d, so the inter-view
// derivatives satisfy I_u ≈ d*I_x and I_v ≈ -d*I_y. The reduction pass
// solves for d in the least-squares sense and maps |d| to [0, 1], with 1
// meaning far or no measurable parallax.
package depth

import (
	"errors"
	"fmt"

	"lightfield-renderer/internal/device"
	"lightfield-renderer/internal/lightfield"
	"lightfield-renderer/internal/log"
)

var logger = log.New("depth")

var ErrSizeMismatch = errors.New("depth: view size differs from deducer size")

// Options tunes the reduction.
type Options struct {
	// Gain scales disparity before it is mapped to depth.
	Gain float64
	// Epsilon is the squared spatial gradient below which a pixel is
	// treated as textureless and reported as far.
	Epsilon float64
}

// Views is the camera array as read by the gradient pass.
type Views interface {
	Grid() lightfield.Grid
	Width() int
	Height() int
	BindColorTextures(ctx *device.Context) error
	UnbindColorTextures(ctx *device.Context) error
}

// GridConstants tells the gradient shader how slices map to the camera grid.
type GridConstants struct {
	Side   int
	Centre int
}

// ReductionConstants parameterise the reduction shader.
type ReductionConstants struct {
	Gain    float64
	Epsilon float64
}

// Deducer owns the gradient buffer and the output depth.
type Deducer struct {
	width  int
	height int
	opts   Options

	gradient *device.Texture2D
	output   *device.Texture2D
	gridCB   *device.ConstantBuffer[GridConstants]
	reduceCB *device.ConstantBuffer[ReductionConstants]
	grid     GridConstants
}

// New allocates the gradient buffer (RGBA32F) and output depth (R32F).
func New(dev *device.Device, width, height int, opts Options) (*Deducer, error) {
	d := &Deducer{width: width, height: height, opts: opts}
	if err := d.allocate(dev); err != nil {
		d.Release()
		return nil, fmt.Errorf("depth: create deducer: %w", err)
	}
	return d, nil
}

func (d *Deducer) allocate(dev *device.Device) error {
	var err error
	d.gradient, err = dev.NewTexture2D(device.Desc{Width: d.width, Height: d.height, Format: device.FormatRGBA32F})
	if err != nil {
		return err
	}
	d.output, err = dev.NewTexture2D(device.Desc{Width: d.width, Height: d.height, Format: device.FormatR32F})
	if err != nil {
		return err
	}
	d.gridCB, err = device.NewConstantBuffer(dev, GridConstants{})
	if err != nil {
		return err
	}
	d.reduceCB, err = device.NewConstantBuffer(dev, ReductionConstants(d.opts))
	return err
}

// SetOptions changes the reduction parameters used from the next Deduce.
func (d *Deducer) SetOptions(ctx *device.Context, opts Options) {
	d.opts = opts
	d.reduceCB.Update(ctx, ReductionConstants(opts))
}

func (d *Deducer) Options() Options { return d.opts }

// Deduce clears both buffers, then runs the gradient pass over the views
// followed by the reduction pass. The reduction only starts once the
// gradient buffer is no longer a render target.
func (d *Deducer) Deduce(ctx *device.Context, views Views) error {
	if views.Width() != d.width || views.Height() != d.height {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, views.Width(), views.Height(), d.width, d.height)
	}

	var clear [4]float64
	ctx.ClearRenderTarget(d.gradient, clear)
	ctx.ClearRenderTarget(d.output, clear)

	g := views.Grid()
	if grid := (GridConstants{Side: g.Side, Centre: g.Centre}); grid != d.grid {
		d.gridCB.Update(ctx, grid)
		d.grid = grid
		logger.Debugf("grid constants: side %d centre %d", grid.Side, grid.Centre)
	}

	if err := ctx.SetRenderTargets([]*device.Texture2D{d.gradient}, nil); err != nil {
		return err
	}
	if err := views.BindColorTextures(ctx); err != nil {
		return err
	}
	if err := ctx.PSSetConstantBuffer(0, d.gridCB); err != nil {
		return err
	}
	ctx.SetPixelShader(gradientShader)
	ctx.DrawFullScreen()
	if err := views.UnbindColorTextures(ctx); err != nil {
		return err
	}

	if err := ctx.SetRenderTargets([]*device.Texture2D{d.output}, nil); err != nil {
		return err
	}
	if err := ctx.PSSetShaderResource(0, d.gradient); err != nil {
		return err
	}
	if err := ctx.PSSetConstantBuffer(0, d.reduceCB); err != nil {
		return err
	}
	ctx.SetPixelShader(reductionShader)
	ctx.DrawFullScreen()

	ctx.ClearRenderTargets()
	if err := ctx.PSSetShaderResource(0, nil); err != nil {
		return err
	}
	return ctx.PSSetConstantBuffer(0, nil)
}

// Gradient returns the buffer holding I_u, I_v, I_x, I_y per pixel.
func (d *Deducer) Gradient() *device.Texture2D { return d.gradient }

// Output returns the reconstructed depth.
func (d *Deducer) Output() *device.Texture2D { return d.output }

func (d *Deducer) Release() {
	if d.reduceCB != nil {
		d.reduceCB.Release()
		d.reduceCB = nil
	}
	if d.gridCB != nil {
		d.gridCB.Release()
		d.gridCB = nil
	}
	if d.output != nil {
		d.output.Release()
		d.output = nil
	}
	if d.gradient != nil {
		d.gradient.Release()
		d.gradient = nil
	}
}
