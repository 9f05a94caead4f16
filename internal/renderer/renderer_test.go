package renderer

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightfield-renderer/internal/config"
	"lightfield-renderer/internal/frametime"
	"lightfield-renderer/internal/input"
	"lightfield-renderer/internal/mathutil"
	"lightfield-renderer/internal/postprocess"
	"lightfield-renderer/internal/present"
	"lightfield-renderer/internal/scene"
)

const testW, testH = 64, 48

func testConfig(t *testing.T, radius int, camera mathutil.Vec3) config.Config {
	t.Helper()
	cfg := config.Config{
		Width:  testW,
		Height: testH,
		Grid:   config.GridConfig{Spacing: 0.01},
		Camera: config.CameraConfig{Position: &camera},
		Capture: config.CaptureConfig{
			Dir:     t.TempDir(),
			Format:  "png",
			Workers: 2,
		},
		Scene: []scene.ObjectDesc{{Name: "cube", Primitive: "cube"}},
	}
	cfg.Resolve(config.Flags{GridRadius: radius})
	return cfg
}

func newRenderer(t *testing.T, cfg config.Config) (*Renderer, *present.HeadlessSurface) {
	t.Helper()
	surface := &present.HeadlessSurface{}
	r, err := New(cfg, surface)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r, surface
}

func differingPixels(a, b *image.NRGBA, tol int) int {
	n := 0
	for i := 0; i < len(a.Pix); i += 4 {
		for k := 0; k < 4; k++ {
			d := int(a.Pix[i+k]) - int(b.Pix[i+k])
			if d > tol || d < -tol {
				n++
				break
			}
		}
	}
	return n
}

func covered(img *image.NRGBA) int {
	n := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 || img.Pix[i+1] != 0 || img.Pix[i+2] != 0 {
			n++
		}
	}
	return n
}

// The preview of slot 0 of a 3x3 rig shows what a lone camera displaced by
// (-0.01, +0.01, 0) sees.
func TestPreviewMatchesIsolatedCamera(t *testing.T) {
	r, surface := newRenderer(t, testConfig(t, 1, mathutil.Vec3{0, 0, -3}))
	require.Equal(t, 9, r.Rig().Len())
	require.Equal(t, 0, r.Rig().PreviewCamera())
	require.Equal(t, present.ModeColor, r.Mode())
	require.NoError(t, r.Render())

	slot0, err := r.ctx.ReadBack(r.Rig().Color(0))
	require.NoError(t, err)
	assert.Equal(t, postprocess.ToNRGBA(slot0).Pix, surface.Last.Pix)

	lone, loneSurface := newRenderer(t, testConfig(t, 0, mathutil.Vec3{-0.01, 0.01, -3}))
	require.Equal(t, 1, lone.Rig().Len())
	require.NoError(t, lone.Render())

	require.NotZero(t, covered(surface.Last))
	assert.LessOrEqual(t, differingPixels(surface.Last, loneSurface.Last, 1), testW*testH/50)
}

func TestRenderRunsEveryPassOnce(t *testing.T) {
	r, surface := newRenderer(t, testConfig(t, 1, mathutil.Vec3{0, 0, -3}))
	require.NoError(t, r.Render())

	s := r.Stats()
	assert.Equal(t, 9, s.Device.DrawCalls)
	assert.Equal(t, 3, s.Device.FullScreenPasses)
	assert.Zero(t, s.Device.HazardUnbinds)
	assert.Equal(t, 1, s.Frames)
	assert.Equal(t, 1, surface.Presents)
	assert.True(t, surface.LastVSync)

	require.NoError(t, r.Render())
	assert.Equal(t, 2, r.Stats().Frames)
	assert.Equal(t, 2, surface.Presents)
}

func TestUpdateAppliesActions(t *testing.T) {
	r, surface := newRenderer(t, testConfig(t, 1, mathutil.Vec3{0, 0, -3}))
	in := input.NewState()
	dt := frametime.Time{Delta: 0.016}

	in.Keyboard.Press(input.KeyTab)
	in.Keyboard.Press(input.KeyF3)
	r.Update(dt, in)
	in.FlushOldInputs()
	assert.Equal(t, 1, r.Rig().PreviewCamera())
	assert.Equal(t, present.ModeOutputDepth, r.Mode())

	// output depth is grey
	require.NoError(t, r.Render())
	p := surface.Last.Pix
	assert.Equal(t, p[0], p[1])
	assert.Equal(t, p[1], p[2])

	assert.False(t, r.Done())
	in.Keyboard.Press(input.KeyEscape)
	r.Update(dt, in)
	assert.True(t, r.Done())
}

func TestUpdateMovesCamera(t *testing.T) {
	r, _ := newRenderer(t, testConfig(t, 1, mathutil.Vec3{0, 0, -3}))
	in := input.NewState()
	in.Keyboard.Press(input.KeyW)
	r.Update(frametime.Time{Delta: 0.5}, in)
	assert.InDelta(t, -1.5, r.Camera().Transform.Position()[2], 1e-9)
}

func TestScreenshotKeepsPreviewCamera(t *testing.T) {
	cfg := testConfig(t, 1, mathutil.Vec3{0, 0, -3})
	r, _ := newRenderer(t, cfg)
	in := input.NewState()
	in.Keyboard.Press(input.KeyTab)
	in.Keyboard.Press(input.KeyTab)
	r.Update(frametime.Time{}, in)
	in.FlushOldInputs()
	in.Keyboard.Press(input.KeyF12)
	r.Update(frametime.Time{}, in)

	require.NoError(t, r.Render())
	assert.Equal(t, 1, r.Rig().PreviewCamera())
	for _, name := range []string{"simulated_color_0.png", "simulated_depth_8.png", "outputDepth.png", "manifest.json"} {
		_, err := os.Stat(filepath.Join(cfg.Capture.Dir, name))
		assert.NoError(t, err, name)
	}
}

func TestCloseReleasesEverything(t *testing.T) {
	r, err := New(testConfig(t, 1, mathutil.Vec3{0, 0, -3}), &present.HeadlessSurface{})
	require.NoError(t, err)
	require.NoError(t, r.Render())
	assert.Positive(t, r.dev.Live())
	r.Close()
	assert.Zero(t, r.dev.Live())
}

func TestNewFailsCleanly(t *testing.T) {
	cfg := testConfig(t, 1, mathutil.Vec3{0, 0, -3})
	cfg.Mode = "sepia"
	_, err := New(cfg, &present.HeadlessSurface{})
	assert.ErrorIs(t, err, present.ErrUnknownMode)

	cfg = testConfig(t, 1, mathutil.Vec3{0, 0, -3})
	cfg.Scene = []scene.ObjectDesc{{Name: "x", Primitive: "teapot"}}
	_, err = New(cfg, &present.HeadlessSurface{})
	assert.ErrorIs(t, err, scene.ErrUnknownPrimitive)
}
