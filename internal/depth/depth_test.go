package depth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightfield-renderer/internal/device"
	"lightfield-renderer/internal/lightfield"
)

const testW, testH = 16, 12

var opts = Options{Gain: 4, Epsilon: 1e-4}

func setup(t *testing.T, radius int) (*device.Context, *lightfield.Rig, *Deducer) {
	t.Helper()
	dev := device.New()
	rig, err := lightfield.New(dev, lightfield.Options{GridRadius: radius, Spacing: 0.1}, testW, testH)
	require.NoError(t, err)
	d, err := New(dev, testW, testH, opts)
	require.NoError(t, err)
	return dev.Context(), rig, d
}

// paintViews fills every view with a black/white step. edge returns, per
// grid cell, the first white column (vertical edge) or row (horizontal).
func paintViews(rig *lightfield.Rig, vertical bool, edge func(row, col int) int) {
	side := rig.Grid().Side
	white := [4]float64{1, 1, 1, 1}
	black := [4]float64{0, 0, 0, 1}
	for i := 0; i < rig.Len(); i++ {
		e := edge(i/side, i%side)
		tex := rig.Color(i)
		for y := 0; y < testH; y++ {
			for x := 0; x < testW; x++ {
				p := x
				if !vertical {
					p = y
				}
				if p >= e {
					tex.Store(x, y, white)
				} else {
					tex.Store(x, y, black)
				}
			}
		}
	}
}

func TestIdenticalViewsHaveNoParallax(t *testing.T) {
	ctx, rig, d := setup(t, 1)
	paintViews(rig, true, func(int, int) int { return 8 })
	require.NoError(t, d.Deduce(ctx, rig))

	g := d.Gradient().Load(7, 5)
	assert.InDelta(t, 0, g[0], 1e-6)
	assert.InDelta(t, 0, g[1], 1e-6)
	assert.InDelta(t, 0.5, g[2], 1e-6)
	assert.InDelta(t, 0, g[3], 1e-6)
	assert.InDelta(t, 1, d.Output().Load(7, 5)[0], 1e-6)
}

func TestShiftedEdgeProducesDisparity(t *testing.T) {
	ctx, rig, d := setup(t, 1)
	// a camera one column to the right sees the edge one pixel further left
	paintViews(rig, true, func(_, col int) int { return 9 - col })
	require.NoError(t, d.Deduce(ctx, rig))

	// the centre view's edge is at column 8
	g := d.Gradient().Load(7, 5)
	assert.InDelta(t, 0.5, g[0], 1e-6)
	assert.InDelta(t, 0.5, g[2], 1e-6)
	assert.NotZero(t, g[0]*g[2])

	want := 1 / (1 + opts.Gain*1)
	assert.InDelta(t, want, d.Output().Load(7, 5)[0], 1e-6)
	// away from the edge nothing changes between views
	assert.InDelta(t, 1, d.Output().Load(2, 5)[0], 1e-6)
}

func TestSetOptionsAppliesToNextDeduce(t *testing.T) {
	ctx, rig, d := setup(t, 1)
	paintViews(rig, true, func(_, col int) int { return 9 - col })
	require.NoError(t, d.Deduce(ctx, rig))
	assert.InDelta(t, 1/(1+opts.Gain), d.Output().Load(7, 5)[0], 1e-6)

	d.SetOptions(ctx, Options{Gain: 9, Epsilon: opts.Epsilon})
	assert.Equal(t, 9.0, d.Options().Gain)
	// the stored output only changes once Deduce runs again
	assert.InDelta(t, 1/(1+opts.Gain), d.Output().Load(7, 5)[0], 1e-6)
	require.NoError(t, d.Deduce(ctx, rig))
	assert.InDelta(t, 0.1, d.Output().Load(7, 5)[0], 1e-6)

	// an epsilon above the squared image gradient treats the edge as flat
	d.SetOptions(ctx, Options{Gain: 9, Epsilon: 1})
	require.NoError(t, d.Deduce(ctx, rig))
	assert.InDelta(t, 1, d.Output().Load(7, 5)[0], 1e-6)
}

func TestVerticalParallaxMatchesHorizontal(t *testing.T) {
	ctx, rig, d := setup(t, 1)
	// a higher camera (smaller row) sees the edge lower in the image
	paintViews(rig, false, func(row, _ int) int { return 7 - row })
	require.NoError(t, d.Deduce(ctx, rig))

	g := d.Gradient().Load(4, 5)
	assert.InDelta(t, -0.5, g[1], 1e-6)
	assert.InDelta(t, 0.5, g[3], 1e-6)
	assert.InDelta(t, 1/(1+opts.Gain), d.Output().Load(4, 5)[0], 1e-6)
}

func TestSingleCameraHasNoInterViewGradient(t *testing.T) {
	ctx, rig, d := setup(t, 0)
	paintViews(rig, true, func(int, int) int { return 8 })
	require.NoError(t, d.Deduce(ctx, rig))
	for x := 0; x < testW; x++ {
		g := d.Gradient().Load(x, 3)
		assert.Zero(t, g[0])
		assert.Zero(t, g[1])
		assert.Equal(t, 1.0, d.Output().Load(x, 3)[0])
	}
}

func TestDeduceOverwritesStaleData(t *testing.T) {
	ctx, rig, d := setup(t, 1)
	d.Gradient().Store(3, 3, [4]float64{9, 9, 9, 9})
	d.Output().Store(3, 3, [4]float64{0.25})

	require.NoError(t, d.Deduce(ctx, rig))
	assert.Equal(t, [4]float64{}, d.Gradient().Load(3, 3))
	assert.Equal(t, 1.0, d.Output().Load(3, 3)[0])
}

func TestDeduceBindingDiscipline(t *testing.T) {
	ctx, rig, d := setup(t, 1)
	ctx.ResetStats()
	require.NoError(t, d.Deduce(ctx, rig))

	st := ctx.Stats()
	assert.Equal(t, 2, st.FullScreenPasses)
	assert.Equal(t, 2, st.TargetBinds)
	assert.Zero(t, st.HazardUnbinds)
	assert.Empty(t, ctx.RenderTargets())
	assert.Nil(t, ctx.ShaderResource(0))

	// grid constants are only written when the grid changes
	ctx.ResetStats()
	require.NoError(t, d.Deduce(ctx, rig))
	assert.Zero(t, ctx.Stats().ConstantUpdates)
}

func TestDeduceRejectsSizeMismatch(t *testing.T) {
	dev := device.New()
	rig, err := lightfield.New(dev, lightfield.Options{GridRadius: 1, Spacing: 0.1}, 8, 8)
	require.NoError(t, err)
	d, err := New(dev, 4, 4, opts)
	require.NoError(t, err)
	assert.ErrorIs(t, d.Deduce(dev.Context(), rig), ErrSizeMismatch)

	d.Release()
	rig.Release()
	assert.Zero(t, dev.Live())
}
