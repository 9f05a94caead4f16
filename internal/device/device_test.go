package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightfield-renderer/internal/mathutil"
)

func newCamera(t *testing.T, dev *Device, w, h int) *ConstantBuffer[CameraConstants] {
	t.Helper()
	cb, err := NewConstantBuffer(dev, CameraConstants{
		View:       mathutil.Mat4Identity(),
		Projection: mathutil.PerspectiveFovLH(1.25, float64(w)/float64(h), 0.1, 100),
		Near:       0.1,
		Far:        100,
	})
	require.NoError(t, err)
	return cb
}

// quadAt returns a square of half-size s facing -z at depth z.
func quadAt(t *testing.T, dev *Device, z, s float64, col [4]float64) *Mesh {
	t.Helper()
	n := mathutil.Vec3{0, 0, -1}
	verts := []Vertex{
		{Pos: mathutil.Vec3{-s, -s, z}, Normal: n, Color: col, UV: [2]float64{0, 1}},
		{Pos: mathutil.Vec3{-s, s, z}, Normal: n, Color: col, UV: [2]float64{0, 0}},
		{Pos: mathutil.Vec3{s, s, z}, Normal: n, Color: col, UV: [2]float64{1, 0}},
		{Pos: mathutil.Vec3{s, -s, z}, Normal: n, Color: col, UV: [2]float64{1, 1}},
	}
	m, err := dev.NewMesh(verts, []uint32{0, 1, 2, 0, 2, 3})
	require.NoError(t, err)
	return m
}

func vertexColor(_ *ShaderState, f *Fragment, out *Output) bool {
	out[0] = f.Color
	out[1] = [4]float64{f.Depth, 0, 0, 0}
	return true
}

func TestTextureDimensions(t *testing.T) {
	dev := New()
	_, err := dev.NewTexture2D(Desc{Width: 0, Height: 4})
	assert.ErrorIs(t, err, ErrInvalidDimensions)
	_, err = dev.NewTexture2D(Desc{Width: MaxTextureDimension + 1, Height: 4})
	assert.ErrorIs(t, err, ErrInvalidDimensions)
	_, err = dev.NewTextureArray(Desc{Width: 4, Height: 4}, 0)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
	_, err = dev.NewDepthStencil(-1, 1)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
	assert.Equal(t, 0, dev.Live())
}

func TestLiveResourceAccounting(t *testing.T) {
	dev := New()
	tex, err := dev.NewTexture2D(Desc{Width: 2, Height: 2})
	require.NoError(t, err)
	arr, err := dev.NewTextureArray(Desc{Width: 2, Height: 2}, 3)
	require.NoError(t, err)
	cb, err := NewConstantBuffer(dev, OffsetConstants{})
	require.NoError(t, err)
	assert.Equal(t, 3, dev.Live())

	arr.Slice(1).Release() // owned by the array
	assert.Equal(t, 3, dev.Live())

	tex.Release()
	tex.Release()
	arr.Release()
	cb.Release()
	assert.Equal(t, 0, dev.Live())
	assert.True(t, arr.Slice(0).Released())

	dev.Release()
	_, err = dev.NewTexture2D(Desc{Width: 2, Height: 2})
	assert.ErrorIs(t, err, ErrDeviceReleased)
}

func TestSetRenderTargetsContract(t *testing.T) {
	dev := New()
	ctx := dev.Context()
	a, _ := dev.NewTexture2D(Desc{Width: 4, Height: 4})
	b, _ := dev.NewTexture2D(Desc{Width: 4, Height: 4})
	c, _ := dev.NewTexture2D(Desc{Width: 4, Height: 4})
	small, _ := dev.NewTexture2D(Desc{Width: 2, Height: 2})
	ds, _ := dev.NewDepthStencil(2, 2)

	assert.ErrorIs(t, ctx.SetRenderTargets([]*Texture2D{a, b, c}, nil), ErrTooManyTargets)
	assert.ErrorIs(t, ctx.SetRenderTargets([]*Texture2D{a, small}, nil), ErrDimensionMismatch)
	assert.ErrorIs(t, ctx.SetRenderTargets([]*Texture2D{a}, ds), ErrDimensionMismatch)
	require.NoError(t, ctx.SetRenderTargets([]*Texture2D{a, b}, nil))
	assert.Equal(t, []*Texture2D{a, b}, ctx.RenderTargets())
	assert.Equal(t, 1, ctx.Stats().TargetBinds)
}

func TestHazardResolution(t *testing.T) {
	dev := New()
	ctx := dev.Context()
	arr, err := dev.NewTextureArray(Desc{Width: 4, Height: 4}, 2)
	require.NoError(t, err)

	require.NoError(t, ctx.PSSetShaderResource(0, arr))
	require.NoError(t, ctx.SetRenderTargets([]*Texture2D{arr.Slice(1)}, nil))
	assert.Nil(t, ctx.ShaderResource(0))
	assert.Equal(t, 1, ctx.Stats().HazardUnbinds)

	require.NoError(t, ctx.PSSetShaderResource(1, arr.Slice(1)))
	assert.Nil(t, ctx.ShaderResource(1))

	ctx.ClearRenderTargets()
	require.NoError(t, ctx.PSSetShaderResource(1, arr.Slice(1)))
	assert.Equal(t, arr.Slice(1), ctx.ShaderResource(1))
	require.NoError(t, ctx.PSSetShaderResource(1, nil))
	assert.Nil(t, ctx.ShaderResource(1))

	assert.ErrorIs(t, ctx.PSSetShaderResource(MaxResourceSlots, nil), ErrInvalidSlot)
}

func TestRGBA8Quantisation(t *testing.T) {
	dev := New()
	tex, _ := dev.NewTexture2D(Desc{Width: 1, Height: 1, Format: FormatRGBA8})
	tex.Store(0, 0, [4]float64{0.5, 1.7, -1, 0.2})
	got := tex.Load(0, 0)
	assert.InDelta(t, 128.0/255, got[0], 1e-7)
	assert.Equal(t, 1.0, got[1])
	assert.Equal(t, 0.0, got[2])
	assert.InDelta(t, 51.0/255, got[3], 1e-7)

	f, _ := dev.NewTexture2D(Desc{Width: 1, Height: 1, Format: FormatR32F})
	f.Store(0, 0, [4]float64{3.25, 9, 9, 9})
	assert.Equal(t, [4]float64{3.25, 0, 0, 0}, f.Load(0, 0))
}

func TestSampleAtTexelCentre(t *testing.T) {
	dev := New()
	tex, _ := dev.NewTexture2D(Desc{Width: 2, Height: 1, Format: FormatRGBA32F})
	tex.Store(0, 0, [4]float64{0, 0, 0, 1})
	tex.Store(1, 0, [4]float64{1, 0, 0, 1})

	assert.InDelta(t, 0.0, tex.Sample(0.25, 0.5, AddressClamp)[0], 1e-12)
	assert.InDelta(t, 1.0, tex.Sample(0.75, 0.5, AddressClamp)[0], 1e-12)
	assert.InDelta(t, 0.5, tex.Sample(0.5, 0.5, AddressClamp)[0], 1e-12)
	// wrapping blends the last texel back into the first
	assert.InDelta(t, 0.5, tex.Sample(1.0, 0.5, AddressWrap)[0], 1e-12)
}

func TestDrawFullScreenCoversViewport(t *testing.T) {
	dev := New()
	ctx := dev.Context()
	const w, h = 7, 5
	tex, _ := dev.NewTexture2D(Desc{Width: w, Height: h, Format: FormatRGBA32F})
	require.NoError(t, ctx.SetRenderTargets([]*Texture2D{tex}, nil))

	calls := 0
	ctx.SetPixelShader(func(_ *ShaderState, f *Fragment, out *Output) bool {
		calls++
		out[0] = [4]float64{f.U, f.V, float64(f.X), float64(f.Y)}
		return true
	})
	ctx.DrawFullScreen()

	assert.Equal(t, w*h, calls)
	assert.Equal(t, 1, ctx.Stats().FullScreenPasses)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := tex.Load(x, y)
			assert.InDelta(t, (float64(x)+0.5)/w, c[0], 1e-6)
			assert.InDelta(t, (float64(y)+0.5)/h, c[1], 1e-6)
			assert.Equal(t, float64(x), c[2])
			assert.Equal(t, float64(y), c[3])
		}
	}
}

func TestDrawIndexedDepthTest(t *testing.T) {
	dev := New()
	ctx := dev.Context()
	const w, h = 16, 16
	color, _ := dev.NewTexture2D(Desc{Width: w, Height: h})
	depth, _ := dev.NewTexture2D(Desc{Width: w, Height: h, Format: FormatR32F})
	ds, _ := dev.NewDepthStencil(w, h)
	cam := newCamera(t, dev, w, h)

	require.NoError(t, ctx.SetRenderTargets([]*Texture2D{color, depth}, ds))
	require.NoError(t, ctx.VSSetConstantBuffer(VSSlotCamera, cam))
	ctx.SetPixelShader(vertexColor)

	near := quadAt(t, dev, 2, 1, [4]float64{1, 0, 0, 1})
	far := quadAt(t, dev, 4, 1, [4]float64{0, 0, 1, 1})
	ctx.DrawIndexed(near)
	ctx.DrawIndexed(far)

	assert.Equal(t, [4]float64{1, 0, 0, 1}, color.Load(w/2, h/2))
	assert.Greater(t, depth.Load(w/2, h/2)[0], 0.0)
	assert.Less(t, ds.Depth(w/2, h/2), 1.0)
	// corners lie outside the near quad's footprint
	assert.Equal(t, [4]float64{}, color.Load(0, 0))
	assert.Equal(t, 2, ctx.Stats().DrawCalls)
	assert.Equal(t, 4, ctx.Stats().Triangles)
}

func TestDrawIndexedSkipsWithoutCamera(t *testing.T) {
	dev := New()
	ctx := dev.Context()
	color, _ := dev.NewTexture2D(Desc{Width: 4, Height: 4})
	require.NoError(t, ctx.SetRenderTargets([]*Texture2D{color}, nil))
	ctx.SetPixelShader(vertexColor)

	ctx.DrawIndexed(quadAt(t, dev, 2, 1, [4]float64{1, 1, 1, 1}))
	assert.Equal(t, 1, ctx.Stats().SkippedDraws)
	assert.Equal(t, [4]float64{}, color.Load(2, 2))
}

func TestOffsetShiftsImage(t *testing.T) {
	dev := New()
	ctx := dev.Context()
	const w, h = 32, 32
	color, _ := dev.NewTexture2D(Desc{Width: w, Height: h})
	cam := newCamera(t, dev, w, h)
	off, _ := NewConstantBuffer(dev, OffsetConstants{Offset: mathutil.Vec3{0.5, 0, 0}})
	require.NoError(t, ctx.SetRenderTargets([]*Texture2D{color}, nil))
	require.NoError(t, ctx.VSSetConstantBuffer(VSSlotCamera, cam))
	require.NoError(t, ctx.VSSetConstantBuffer(VSSlotOffset, off))
	ctx.SetPixelShader(vertexColor)

	ctx.DrawIndexed(quadAt(t, dev, 2, 0.25, [4]float64{1, 1, 1, 1}))

	// a camera moved right sees the object further left
	sum, n := 0, 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if color.Load(x, y)[3] > 0 {
				sum += x
				n++
			}
		}
	}
	require.NotZero(t, n)
	assert.Less(t, float64(sum)/float64(n), float64(w)/2)
}

func TestNearPlaneClipping(t *testing.T) {
	dev := New()
	ctx := dev.Context()
	const w, h = 16, 16
	color, _ := dev.NewTexture2D(Desc{Width: w, Height: h})
	cam := newCamera(t, dev, w, h)
	require.NoError(t, ctx.SetRenderTargets([]*Texture2D{color}, nil))
	require.NoError(t, ctx.VSSetConstantBuffer(VSSlotCamera, cam))
	ctx.SetPixelShader(vertexColor)

	// a floor crossing the camera plane
	n := mathutil.Vec3{0, 1, 0}
	white := [4]float64{1, 1, 1, 1}
	floor, err := dev.NewMesh([]Vertex{
		{Pos: mathutil.Vec3{-5, -1, -5}, Normal: n, Color: white},
		{Pos: mathutil.Vec3{-5, -1, 5}, Normal: n, Color: white},
		{Pos: mathutil.Vec3{5, -1, 5}, Normal: n, Color: white},
		{Pos: mathutil.Vec3{5, -1, -5}, Normal: n, Color: white},
	}, []uint32{0, 1, 2, 0, 2, 3})
	require.NoError(t, err)
	ctx.DrawIndexed(floor)

	assert.Equal(t, white, color.Load(w/2, h-1))
	assert.Equal(t, [4]float64{}, color.Load(w/2, 0))
}

func TestNewMeshValidatesIndices(t *testing.T) {
	dev := New()
	_, err := dev.NewMesh(make([]Vertex, 3), []uint32{0, 1})
	assert.ErrorIs(t, err, ErrInvalidMesh)
	_, err = dev.NewMesh(make([]Vertex, 3), []uint32{0, 1, 3})
	assert.ErrorIs(t, err, ErrInvalidMesh)
}

func TestReadBackCopies(t *testing.T) {
	dev := New()
	ctx := dev.Context()
	tex, _ := dev.NewTexture2D(Desc{Width: 2, Height: 2, Format: FormatR32F})
	ctx.ClearRenderTarget(tex, [4]float64{0.5})
	img, err := ctx.ReadBack(tex)
	require.NoError(t, err)
	tex.Store(0, 0, [4]float64{1})
	assert.Equal(t, 0.5, img.At(0, 0)[0])

	_, err = ctx.ReadBack(nil)
	assert.ErrorIs(t, err, ErrUnsupported)
}
