package device

import (
	"fmt"
)

const (
	MaxRenderTargets = 2
	MaxConstantSlots = 8
	MaxResourceSlots = 8
)

// Stats counts the work issued on a context since the last ResetStats.
type Stats struct {
	DrawCalls        int
	SkippedDraws     int
	Triangles        int
	FullScreenPasses int
	ConstantUpdates  int
	TargetBinds      int
	HazardUnbinds    int
}

// Context is the immediate context: all binding state and all draws.
// It is not safe for concurrent use.
type Context struct {
	dev *Device

	targets  [MaxRenderTargets]*Texture2D
	nTargets int
	ds       *DepthStencil
	vpW, vpH int

	vsConst [MaxConstantSlots]ConstantBinding
	psConst [MaxConstantSlots]ConstantBinding
	psRes   [MaxResourceSlots]Resource
	shader  PixelShader

	scratch []clipVertex
	stats   Stats
}

// SetRenderTargets binds up to MaxRenderTargets colour targets and an
// optional depth/stencil surface. All must share dimensions; the viewport
// follows them. A target currently bound as a pixel-stage resource is
// unbound from that slot first.
func (c *Context) SetRenderTargets(targets []*Texture2D, ds *DepthStencil) error {
	if len(targets) > MaxRenderTargets {
		return fmt.Errorf("%w: %d", ErrTooManyTargets, len(targets))
	}
	w, h := 0, 0
	for _, t := range targets {
		if t == nil {
			continue
		}
		if t.Released() {
			return ErrResourceReleased
		}
		if w == 0 {
			w, h = t.Width(), t.Height()
		} else if t.Width() != w || t.Height() != h {
			return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, t.Width(), t.Height(), w, h)
		}
	}
	if ds != nil {
		if ds.Released() {
			return ErrResourceReleased
		}
		if w == 0 {
			w, h = ds.width, ds.height
		} else if ds.width != w || ds.height != h {
			return fmt.Errorf("%w: depth %dx%d vs %dx%d", ErrDimensionMismatch, ds.width, ds.height, w, h)
		}
	}

	c.ClearRenderTargets()
	for _, t := range targets {
		if t == nil {
			continue
		}
		c.resolveHazard(t)
		c.targets[c.nTargets] = t
		c.nTargets++
	}
	c.ds = ds
	c.vpW, c.vpH = w, h
	c.stats.TargetBinds++
	return nil
}

// ClearRenderTargets unbinds every render target and the depth/stencil surface.
func (c *Context) ClearRenderTargets() {
	for i := range c.targets {
		c.targets[i] = nil
	}
	c.nTargets = 0
	c.ds = nil
	c.vpW, c.vpH = 0, 0
}

// RenderTargets returns the bound colour targets in slot order.
func (c *Context) RenderTargets() []*Texture2D {
	return append([]*Texture2D(nil), c.targets[:c.nTargets]...)
}

// ClearRenderTarget fills t with col.
func (c *Context) ClearRenderTarget(t *Texture2D, col [4]float64) {
	if t == nil || t.Released() {
		return
	}
	t.fill(col)
}

// ClearDepthStencil resets every depth and stencil value of ds.
func (c *Context) ClearDepthStencil(ds *DepthStencil, depth float64, stencil uint8) {
	if ds == nil || ds.Released() {
		return
	}
	ds.clear(depth, stencil)
}

// VSSetConstantBuffer binds cb to a vertex-stage slot; nil unbinds.
func (c *Context) VSSetConstantBuffer(slot int, cb ConstantBinding) error {
	if slot < 0 || slot >= MaxConstantSlots {
		return fmt.Errorf("%w: vs constant %d", ErrInvalidSlot, slot)
	}
	c.vsConst[slot] = cb
	return nil
}

// PSSetConstantBuffer binds cb to a pixel-stage slot; nil unbinds.
func (c *Context) PSSetConstantBuffer(slot int, cb ConstantBinding) error {
	if slot < 0 || slot >= MaxConstantSlots {
		return fmt.Errorf("%w: ps constant %d", ErrInvalidSlot, slot)
	}
	c.psConst[slot] = cb
	return nil
}

// PSSetShaderResource binds a texture or texture array to a pixel-stage
// slot; nil unbinds. A resource that is currently a render target is not
// bound and the slot is left empty.
func (c *Context) PSSetShaderResource(slot int, r Resource) error {
	if slot < 0 || slot >= MaxResourceSlots {
		return fmt.Errorf("%w: ps resource %d", ErrInvalidSlot, slot)
	}
	switch v := r.(type) {
	case nil:
	case *Texture2D:
		if v == nil {
			r = nil
		} else if c.isTarget(v) {
			logger.Warningf("resource for ps slot %d is bound as a render target; binding nil", slot)
			c.stats.HazardUnbinds++
			r = nil
		}
	case *TextureArray:
		if v == nil {
			r = nil
		} else {
			for _, t := range c.targets[:c.nTargets] {
				if v.contains(t) {
					logger.Warningf("array for ps slot %d has a slice bound as a render target; binding nil", slot)
					c.stats.HazardUnbinds++
					r = nil
					break
				}
			}
		}
	default:
		return fmt.Errorf("%w: %T as shader resource", ErrUnsupported, r)
	}
	c.psRes[slot] = r
	return nil
}

// ShaderResource returns what is bound at a pixel-stage slot.
func (c *Context) ShaderResource(slot int) Resource {
	if slot < 0 || slot >= MaxResourceSlots {
		return nil
	}
	return c.psRes[slot]
}

// SetPixelShader selects the pixel shader used by subsequent draws.
func (c *Context) SetPixelShader(ps PixelShader) {
	c.shader = ps
}

func (c *Context) Stats() Stats { return c.stats }

func (c *Context) ResetStats() { c.stats = Stats{} }

// ReadBack copies the texels of a 2D texture (or an array slice).
func (c *Context) ReadBack(r Resource) (*Image, error) {
	t, ok := r.(*Texture2D)
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: read back %T", ErrUnsupported, r)
	}
	if t.Released() {
		return nil, ErrResourceReleased
	}
	return &Image{
		Width:  t.Width(),
		Height: t.Height(),
		Format: t.Format(),
		Pix:    append([]float32(nil), t.pix...),
	}, nil
}

func (c *Context) isTarget(t *Texture2D) bool {
	for _, rt := range c.targets[:c.nTargets] {
		if rt == t {
			return true
		}
	}
	return false
}

// resolveHazard unbinds t from every pixel-stage slot where it would be
// read while written.
func (c *Context) resolveHazard(t *Texture2D) {
	for i, r := range c.psRes {
		switch v := r.(type) {
		case *Texture2D:
			if v != t {
				continue
			}
		case *TextureArray:
			if !v.contains(t) {
				continue
			}
		default:
			continue
		}
		logger.Debugf("unbinding ps slot %d: resource becomes a render target", i)
		c.psRes[i] = nil
		c.stats.HazardUnbinds++
	}
}

func (c *Context) unbindAll() {
	c.ClearRenderTargets()
	c.vsConst = [MaxConstantSlots]ConstantBinding{}
	c.psConst = [MaxConstantSlots]ConstantBinding{}
	c.psRes = [MaxResourceSlots]Resource{}
	c.shader = nil
}

// ClearState unbinds every target, resource, constant buffer and shader.
func (c *Context) ClearState() {
	c.unbindAll()
}
