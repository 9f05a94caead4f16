package present

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightfield-renderer/internal/depth"
	"lightfield-renderer/internal/device"
	"lightfield-renderer/internal/lightfield"
)

const testW, testH = 8, 6

type fixture struct {
	dev     *device.Device
	ctx     *device.Context
	rig     *lightfield.Rig
	deducer *depth.Deducer
	comp    *Compositor
	sc      *Swapchain
	surface *HeadlessSurface
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dev := device.New()
	rig, err := lightfield.New(dev, lightfield.Options{GridRadius: 1, Spacing: 0.1}, testW, testH)
	require.NoError(t, err)
	d, err := depth.New(dev, testW, testH, depth.Options{Gain: 4, Epsilon: 1e-4})
	require.NoError(t, err)
	comp, err := NewCompositor(dev)
	require.NoError(t, err)
	surface := &HeadlessSurface{}
	sc, err := NewSwapchain(dev, testW, testH, surface, true)
	require.NoError(t, err)

	// distinct content per camera and source
	for i := 0; i < rig.Len(); i++ {
		dev.Context().ClearRenderTarget(rig.Color(i), [4]float64{float64(i) / 8, 0.5, 1, 1})
		dev.Context().ClearRenderTarget(rig.Depth(i), [4]float64{0.2})
	}
	dev.Context().ClearRenderTarget(d.Output(), [4]float64{0.6})

	return &fixture{dev: dev, ctx: dev.Context(), rig: rig, deducer: d, comp: comp, sc: sc, surface: surface}
}

func (f *fixture) frame(t *testing.T) {
	t.Helper()
	require.NoError(t, f.comp.Composite(f.ctx, f.rig, f.deducer, f.sc))
	require.NoError(t, f.sc.Present())
}

func (f *fixture) snapshot(t *testing.T) []*device.Image {
	t.Helper()
	var out []*device.Image
	for i := 0; i < f.rig.Len(); i++ {
		for _, tex := range []*device.Texture2D{f.rig.Color(i), f.rig.Depth(i)} {
			img, err := f.ctx.ReadBack(tex)
			require.NoError(t, err)
			out = append(out, img)
		}
	}
	img, err := f.ctx.ReadBack(f.deducer.Output())
	require.NoError(t, err)
	return append(out, img)
}

func TestModeSwitchVisibleInNextPresent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.rig.SetPreviewCamera(3))

	f.frame(t)
	assert.Equal(t, color.NRGBA{96, 128, 255, 255}, f.surface.Last.NRGBAAt(2, 2))

	f.comp.SetMode(ModeOutputDepth)
	f.frame(t)
	assert.Equal(t, color.NRGBA{153, 153, 153, 255}, f.surface.Last.NRGBAAt(2, 2))

	f.comp.SetMode(ModeSimulatedDepth)
	f.frame(t)
	assert.Equal(t, color.NRGBA{51, 51, 51, 255}, f.surface.Last.NRGBAAt(2, 2))

	assert.Equal(t, 3, f.surface.Presents)
	assert.True(t, f.surface.LastVSync)
}

func TestCompositeIsReadOnly(t *testing.T) {
	f := newFixture(t)
	before := f.snapshot(t)
	for _, m := range []Mode{ModeColor, ModeSimulatedDepth, ModeOutputDepth} {
		f.comp.SetMode(m)
		f.frame(t)
	}
	after := f.snapshot(t)
	for i := range before {
		assert.True(t, before[i].Equal(after[i]), "texture %d", i)
	}
	assert.Zero(t, f.rig.PreviewCamera())
}

func TestModeConstantWrittenOnlyOnChange(t *testing.T) {
	f := newFixture(t)
	f.ctx.ResetStats()
	f.frame(t)
	f.comp.SetMode(ModeColor)
	f.frame(t)
	assert.Zero(t, f.ctx.Stats().ConstantUpdates)

	f.comp.SetMode(ModeOutputDepth)
	f.frame(t)
	f.frame(t)
	st := f.ctx.Stats()
	assert.Equal(t, 1, st.ConstantUpdates)
	assert.Equal(t, 4, st.FullScreenPasses)
}

func TestCompositeUnbindsEverything(t *testing.T) {
	f := newFixture(t)
	f.frame(t)
	assert.Empty(t, f.ctx.RenderTargets())
	for slot := 0; slot < 3; slot++ {
		assert.Nil(t, f.ctx.ShaderResource(slot))
	}
}

func TestCompositeRejectsSizeMismatch(t *testing.T) {
	f := newFixture(t)
	sc, err := NewSwapchain(f.dev, testW+1, testH, f.surface, false)
	require.NoError(t, err)
	assert.ErrorIs(t, f.comp.Composite(f.ctx, f.rig, f.deducer, sc), ErrSizeMismatch)
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeColor, ModeSimulatedDepth, ModeOutputDepth} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("Output-Depth")))
	assert.Equal(t, ModeOutputDepth, m)
	_, err := ParseMode("infrared")
	assert.ErrorIs(t, err, ErrUnknownMode)
	assert.Equal(t, "mode(7)", Mode(7).String())
}
