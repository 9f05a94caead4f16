// Package present composites the camera array and the reconstructed depth
// onto the back buffer and hands finished frames to a surface.
package present

import (
	"fmt"

	"lightfield-renderer/internal/device"
	"lightfield-renderer/internal/log"
)

// SlotOutputDepth is the pixel-stage slot of the reconstructed depth. The
// preview camera occupies slots 0 and 1.
const SlotOutputDepth = 2

var logger = log.New("present")

// Preview is the camera array as seen by the compositor.
type Preview interface {
	Width() int
	Height() int
	BindPreviewTextures(ctx *device.Context) error
	UnbindPreviewTextures(ctx *device.Context) error
}

// DepthSource provides the reconstructed depth.
type DepthSource interface {
	Output() *device.Texture2D
}

// ModeConstants is the constant block the composite shader branches on.
type ModeConstants struct {
	Mode Mode
}

// Compositor runs one full-screen pass per frame. The mode is a shader
// constant written only when it changes.
type Compositor struct {
	mode   Mode
	dirty  bool
	modeCB *device.ConstantBuffer[ModeConstants]
}

// NewCompositor starts in ModeColor.
func NewCompositor(dev *device.Device) (*Compositor, error) {
	cb, err := device.NewConstantBuffer(dev, ModeConstants{Mode: ModeColor})
	if err != nil {
		return nil, fmt.Errorf("present: create compositor: %w", err)
	}
	return &Compositor{mode: ModeColor, modeCB: cb}, nil
}

func (c *Compositor) Mode() Mode { return c.mode }

// SetMode selects what the next Composite shows. Selecting the current
// mode is a no-op.
func (c *Compositor) SetMode(m Mode) {
	if m == c.mode {
		return
	}
	logger.Infof("presentation mode %s -> %s", c.mode, m)
	c.mode = m
	c.dirty = true
}

// Composite draws the current mode into the swapchain's back buffer. The
// rig and the deducer are only read.
func (c *Compositor) Composite(ctx *device.Context, rig Preview, depth DepthSource, sc *Swapchain) error {
	back := sc.BackBuffer()
	if rig.Width() != back.Width() || rig.Height() != back.Height() {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, rig.Width(), rig.Height(), back.Width(), back.Height())
	}
	if c.dirty {
		c.modeCB.Update(ctx, ModeConstants{Mode: c.mode})
		c.dirty = false
	}

	if err := ctx.SetRenderTargets([]*device.Texture2D{back}, nil); err != nil {
		return err
	}
	if err := rig.BindPreviewTextures(ctx); err != nil {
		return err
	}
	if err := ctx.PSSetShaderResource(SlotOutputDepth, depth.Output()); err != nil {
		return err
	}
	if err := ctx.PSSetConstantBuffer(0, c.modeCB); err != nil {
		return err
	}
	ctx.SetPixelShader(compositeShader)
	ctx.DrawFullScreen()

	ctx.ClearRenderTargets()
	if err := rig.UnbindPreviewTextures(ctx); err != nil {
		return err
	}
	if err := ctx.PSSetShaderResource(SlotOutputDepth, nil); err != nil {
		return err
	}
	return ctx.PSSetConstantBuffer(0, nil)
}

func (c *Compositor) Release() {
	if c.modeCB != nil {
		c.modeCB.Release()
		c.modeCB = nil
	}
}

func compositeShader(st *device.ShaderState, f *device.Fragment, out *device.Output) bool {
	mc, ok := device.PSConstant[ModeConstants](st, 0)
	if !ok {
		return false
	}
	var src *device.Texture2D
	switch mc.Mode {
	case ModeColor:
		src = st.Texture(0)
	case ModeSimulatedDepth:
		src = st.Texture(1)
	case ModeOutputDepth:
		src = st.Texture(SlotOutputDepth)
	}
	if src == nil {
		return false
	}
	c := src.Load(f.X, f.Y)
	if mc.Mode != ModeColor {
		c = [4]float64{c[0], c[0], c[0], 1}
	}
	out[0] = c
	return true
}
