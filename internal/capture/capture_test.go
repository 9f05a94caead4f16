package capture

import (
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightfield-renderer/internal/depth"
	"lightfield-renderer/internal/device"
	"lightfield-renderer/internal/lightfield"
)

const testW, testH = 8, 6

type fixture struct {
	ctx     *device.Context
	rig     *lightfield.Rig
	deducer *depth.Deducer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dev := device.New()
	rig, err := lightfield.New(dev, lightfield.Options{GridRadius: 1, Spacing: 0.1}, testW, testH)
	require.NoError(t, err)
	d, err := depth.New(dev, testW, testH, depth.Options{Gain: 4, Epsilon: 1e-4})
	require.NoError(t, err)

	ctx := dev.Context()
	for i := 0; i < rig.Len(); i++ {
		ctx.ClearRenderTarget(rig.Color(i), [4]float64{float64(i) / 8, 0.5, 1, 1})
		ctx.ClearRenderTarget(rig.Depth(i), [4]float64{0.2})
	}
	ctx.ClearRenderTarget(d.Output(), [4]float64{0.6})
	return &fixture{ctx: ctx, rig: rig, deducer: d}
}

func newCapturer(t *testing.T, dir string) *Capturer {
	t.Helper()
	c, err := New(Options{Dir: dir, Format: "png", Workers: 3, SheetTile: 4})
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return c
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

// failingSource refuses to bind one camera.
type failingSource struct {
	*lightfield.Rig
	failAt int
}

func (s *failingSource) BindPreviewTextures(ctx *device.Context) error {
	if s.PreviewCamera() == s.failAt {
		return errors.New("bind refused")
	}
	return s.Rig.BindPreviewTextures(ctx)
}

func TestCaptureWritesEveryView(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	c := newCapturer(t, dir)

	m, err := c.Capture(f.ctx, f.rig, f.deducer, "color")
	require.NoError(t, err)

	for i := 0; i < f.rig.Len(); i++ {
		assert.FileExists(t, filepath.Join(dir, ColorName(i)+".png"))
		assert.FileExists(t, filepath.Join(dir, DepthName(i)+".png"))
	}
	assert.FileExists(t, filepath.Join(dir, "outputDepth.png"))
	assert.FileExists(t, filepath.Join(dir, "lightfield_sheet.png"))
	assert.Len(t, m.Results, 2*9+2)

	col := decodePNG(t, filepath.Join(dir, "simulated_color_3.png"))
	r, g, b, a := col.At(2, 2).RGBA()
	assert.Equal(t, []uint32{96, 128, 255, 255}, []uint32{r >> 8, g >> 8, b >> 8, a >> 8})

	d := decodePNG(t, filepath.Join(dir, "outputDepth.png"))
	gr, _, _, _ := d.At(0, 0).RGBA()
	assert.Equal(t, uint32(153), gr>>8)

	sheet := decodePNG(t, filepath.Join(dir, "lightfield_sheet.png"))
	assert.Equal(t, 3*4+2*2, sheet.Bounds().Dx())
}

func TestCaptureRestoresPreviewCamera(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.rig.SetPreviewCamera(5))

	_, err := newCapturer(t, t.TempDir()).Capture(f.ctx, f.rig, f.deducer, "color")
	require.NoError(t, err)

	assert.Equal(t, 5, f.rig.PreviewCamera())
	assert.Nil(t, f.ctx.ShaderResource(lightfield.SlotPreviewColor))
	assert.Nil(t, f.ctx.ShaderResource(lightfield.SlotPreviewDepth))
}

func TestCaptureRestoresPreviewCameraOnFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.rig.SetPreviewCamera(7))
	src := &failingSource{Rig: f.rig, failAt: 4}

	_, err := newCapturer(t, t.TempDir()).Capture(f.ctx, src, f.deducer, "color")
	require.Error(t, err)
	assert.Equal(t, 7, f.rig.PreviewCamera())
}

func TestCaptureDoesNotTouchViews(t *testing.T) {
	f := newFixture(t)
	before, err := f.ctx.ReadBack(f.rig.Color(2))
	require.NoError(t, err)

	_, err = newCapturer(t, t.TempDir()).Capture(f.ctx, f.rig, f.deducer, "color")
	require.NoError(t, err)

	after, err := f.ctx.ReadBack(f.rig.Color(2))
	require.NoError(t, err)
	assert.True(t, before.Equal(after))
}

func TestCaptureCollectsWriteFailures(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	// a directory in place of the file makes that one write fail
	require.NoError(t, os.Mkdir(filepath.Join(dir, ColorName(0)+".png"), 0755))

	m, err := newCapturer(t, dir).Capture(f.ctx, f.rig, f.deducer, "color")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ColorName(0))

	failed := 0
	for _, r := range m.Results {
		if !r.Success {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.FileExists(t, filepath.Join(dir, ColorName(1)+".png"))
	assert.FileExists(t, filepath.Join(dir, ManifestName))
}

func TestManifest(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()

	_, err := newCapturer(t, dir).Capture(f.ctx, f.rig, f.deducer, "simulated-depth")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))

	assert.Equal(t, "simulated-depth", m.Mode)
	assert.Equal(t, 3, m.GridSide)
	assert.Equal(t, 0.1, m.Spacing)
	assert.Equal(t, "outputDepth.png", m.OutputDepth)
	assert.Equal(t, "lightfield_sheet.png", m.Sheet)
	require.Len(t, m.Cameras, 9)
	assert.Equal(t, "simulated_color_0.png", m.Cameras[0].Color)
	assert.InDelta(t, -0.1, m.Cameras[0].Offset[0], 1e-12)
	assert.InDelta(t, 0.1, m.Cameras[0].Offset[1], 1e-12)
	assert.True(t, m.Taken.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestNormalizeFormat(t *testing.T) {
	for in, want := range map[string]string{"": "jpg", "JPEG": "jpg", ".png": "png", "webp": "webp"} {
		got, err := NormalizeFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := NormalizeFormat("gif")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestCaptureWithoutSheet(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	c, err := New(Options{Dir: dir, Format: "png", Workers: 2})
	require.NoError(t, err)

	m, err := c.Capture(f.ctx, f.rig, f.deducer, "color")
	require.NoError(t, err)
	assert.Empty(t, m.Sheet)
	assert.Len(t, m.Results, 2*9+1)
	assert.NoFileExists(t, filepath.Join(dir, "lightfield_sheet.png"))
}
