package device

import (
	"fmt"
	"math"
)

// Resource is anything that can be bound to a context slot.
type Resource interface {
	Released() bool
	Release()
}

// Desc describes a 2D texture.
type Desc struct {
	Width  int
	Height int
	Format Format
}

// AddressMode selects how Sample treats coordinates outside [0, 1].
type AddressMode int

const (
	AddressClamp AddressMode = iota
	AddressWrap
)

// Texture2D holds texels as a flat float slice for cache locality.
type Texture2D struct {
	dev      *Device
	desc     Desc
	channels int
	pix      []float32
	array    *TextureArray // set for array slices, which the array owns
	released bool
}

// NewTexture2D allocates a zeroed texture.
func (d *Device) NewTexture2D(desc Desc) (*Texture2D, error) {
	if !validDims(desc.Width, desc.Height) {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, desc.Width, desc.Height)
	}
	if err := d.track(); err != nil {
		return nil, err
	}
	return newTexture(d, desc), nil
}

func newTexture(d *Device, desc Desc) *Texture2D {
	ch := desc.Format.Channels()
	return &Texture2D{
		dev:      d,
		desc:     desc,
		channels: ch,
		pix:      make([]float32, desc.Width*desc.Height*ch),
	}
}

func (t *Texture2D) Desc() Desc     { return t.desc }
func (t *Texture2D) Width() int     { return t.desc.Width }
func (t *Texture2D) Height() int    { return t.desc.Height }
func (t *Texture2D) Format() Format { return t.desc.Format }

// Released reports whether the texture (or the array owning it) was released.
func (t *Texture2D) Released() bool {
	if t.array != nil {
		return t.array.released
	}
	return t.released
}

// Release frees the texels. Slices of a texture array are released with
// the array.
func (t *Texture2D) Release() {
	if t.array != nil || t.released {
		return
	}
	t.released = true
	t.pix = nil
	t.dev.untrack()
}

// Load fetches one texel, clamping coordinates to the edge. Missing
// channels read as zero.
func (t *Texture2D) Load(x, y int) [4]float64 {
	if x < 0 {
		x = 0
	} else if x >= t.desc.Width {
		x = t.desc.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= t.desc.Height {
		y = t.desc.Height - 1
	}
	i := (y*t.desc.Width + x) * t.channels
	var c [4]float64
	for k := 0; k < t.channels; k++ {
		c[k] = float64(t.pix[i+k])
	}
	return c
}

// Store writes one texel in the texture's format. Out of range writes are dropped.
func (t *Texture2D) Store(x, y int, c [4]float64) {
	if x < 0 || y < 0 || x >= t.desc.Width || y >= t.desc.Height {
		return
	}
	i := (y*t.desc.Width + x) * t.channels
	for k := 0; k < t.channels; k++ {
		t.pix[i+k] = t.desc.Format.quantize(c[k])
	}
}

func (t *Texture2D) fill(c [4]float64) {
	var q [4]float32
	for k := 0; k < t.channels; k++ {
		q[k] = t.desc.Format.quantize(c[k])
	}
	for i := 0; i < len(t.pix); i += t.channels {
		copy(t.pix[i:i+t.channels], q[:t.channels])
	}
}

// Sample performs bilinear filtering with texel centres at (i+0.5)/size.
func (t *Texture2D) Sample(u, v float64, mode AddressMode) [4]float64 {
	w := t.desc.Width
	h := t.desc.Height

	if mode == AddressWrap {
		u -= math.Floor(u)
		v -= math.Floor(v)
	}

	fx := u*float64(w) - 0.5
	fy := v*float64(h) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	dx := fx - float64(x0)
	dy := fy - float64(y0)
	x1, y1 := x0+1, y0+1

	if mode == AddressWrap {
		x0, x1 = wrap(x0, w), wrap(x1, w)
		y0, y1 = wrap(y0, h), wrap(y1, h)
	}

	c00 := t.Load(x0, y0)
	c10 := t.Load(x1, y0)
	c01 := t.Load(x0, y1)
	c11 := t.Load(x1, y1)

	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	var c [4]float64
	for k := 0; k < 4; k++ {
		c[k] = c00[k]*w00 + c10[k]*w10 + c01[k]*w01 + c11[k]*w11
	}
	return c
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// TextureArray is a set of identically shaped textures bound as one resource.
type TextureArray struct {
	dev      *Device
	desc     Desc
	slices   []*Texture2D
	released bool
}

// NewTextureArray allocates n zeroed slices.
func (d *Device) NewTextureArray(desc Desc, n int) (*TextureArray, error) {
	if !validDims(desc.Width, desc.Height) {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, desc.Width, desc.Height)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: array size %d", ErrInvalidDimensions, n)
	}
	if err := d.track(); err != nil {
		return nil, err
	}
	a := &TextureArray{dev: d, desc: desc, slices: make([]*Texture2D, n)}
	for i := range a.slices {
		s := newTexture(d, desc)
		s.array = a
		a.slices[i] = s
	}
	return a, nil
}

func (a *TextureArray) Desc() Desc { return a.desc }
func (a *TextureArray) Len() int   { return len(a.slices) }

// Slice returns slice i, usable as a render target.
func (a *TextureArray) Slice(i int) *Texture2D {
	return a.slices[i]
}

func (a *TextureArray) Released() bool { return a.released }

func (a *TextureArray) Release() {
	if a.released {
		return
	}
	a.released = true
	for _, s := range a.slices {
		s.pix = nil
	}
	a.dev.untrack()
}

func (a *TextureArray) contains(t *Texture2D) bool {
	return t != nil && t.array == a
}

// DepthStencil is a depth/stencil surface.
type DepthStencil struct {
	dev      *Device
	width    int
	height   int
	depth    []float32
	stencil  []uint8
	released bool
}

// NewDepthStencil allocates a surface cleared to depth 1, stencil 0.
func (d *Device) NewDepthStencil(w, h int) (*DepthStencil, error) {
	if !validDims(w, h) {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, w, h)
	}
	if err := d.track(); err != nil {
		return nil, err
	}
	ds := &DepthStencil{
		dev:     d,
		width:   w,
		height:  h,
		depth:   make([]float32, w*h),
		stencil: make([]uint8, w*h),
	}
	ds.clear(1, 0)
	return ds, nil
}

func (ds *DepthStencil) Width() int  { return ds.width }
func (ds *DepthStencil) Height() int { return ds.height }

// Depth returns the stored depth at (x, y).
func (ds *DepthStencil) Depth(x, y int) float64 {
	return float64(ds.depth[y*ds.width+x])
}

func (ds *DepthStencil) Released() bool { return ds.released }

func (ds *DepthStencil) Release() {
	if ds.released {
		return
	}
	ds.released = true
	ds.depth = nil
	ds.stencil = nil
	ds.dev.untrack()
}

func (ds *DepthStencil) clear(depth float64, stencil uint8) {
	for i := range ds.depth {
		ds.depth[i] = float32(depth)
		ds.stencil[i] = stencil
	}
}
