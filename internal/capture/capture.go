// Package capture writes every sub-aperture view of the camera array, the
// reconstructed depth, a contact sheet and a manifest to disk.
package capture

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"lightfield-renderer/internal/device"
	"lightfield-renderer/internal/lightfield"
	"lightfield-renderer/internal/log"
	"lightfield-renderer/internal/mathutil"
	"lightfield-renderer/internal/postprocess"
)

var logger = log.New("capture")

// File names, without extension.
const (
	OutputDepthName = "outputDepth"
	SheetName       = "lightfield_sheet"
	ManifestName    = "manifest.json"
)

func ColorName(i int) string { return fmt.Sprintf("simulated_color_%d", i) }
func DepthName(i int) string { return fmt.Sprintf("simulated_depth_%d", i) }

// Source is the camera array as seen by a capture.
type Source interface {
	Len() int
	PreviewCamera() int
	SetPreviewCamera(i int) error
	BindPreviewTextures(ctx *device.Context) error
	UnbindPreviewTextures(ctx *device.Context) error
	Offsets() []mathutil.Vec3
	Grid() lightfield.Grid
	Options() lightfield.Options
}

// DepthSource provides the reconstructed depth.
type DepthSource interface {
	Output() *device.Texture2D
}

// Options configures where and how captures are written.
type Options struct {
	Dir            string
	Format         string // jpg, png or webp
	Quality        int    // jpg only
	Workers        int
	NormalizeDepth bool // stretch simulated depth to its non-zero range
	SheetTile      int  // longest side of a contact sheet tile; 0 disables the sheet
}

// DefaultOptions writes jpg files to ./screenshots.
func DefaultOptions() Options {
	return Options{
		Dir:       "screenshots",
		Format:    FormatJPEG,
		Quality:   90,
		Workers:   runtime.NumCPU(),
		SheetTile: 256,
	}
}

// Capturer reads back the camera array and writes it out.
type Capturer struct {
	opts Options
	now  func() time.Time
}

func New(opts Options) (*Capturer, error) {
	f, err := NormalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	opts.Format = f
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 90
	}
	if opts.Dir == "" {
		opts.Dir = "screenshots"
	}
	return &Capturer{opts: opts, now: time.Now}, nil
}

func (c *Capturer) Options() Options { return c.opts }

// views holds what was read back from the device.
type views struct {
	colors []*device.Image
	depths []*device.Image
	output *device.Image
}

// Capture reads back every camera through the preview bindings and the
// reconstructed depth, then writes them. The preview camera is restored
// before Capture returns, even on failure. Write failures do not stop the
// capture; they are logged and returned joined.
func (c *Capturer) Capture(ctx *device.Context, src Source, depth DepthSource, mode string) (*Manifest, error) {
	v, err := c.readBack(ctx, src, depth)
	if err != nil {
		return nil, fmt.Errorf("capture: read back: %w", err)
	}
	if err := os.MkdirAll(c.opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	jobs := c.jobs(v, src.Grid().Side)
	start := time.Now()
	results := c.writeAll(jobs)

	m := &Manifest{
		Taken:       c.now(),
		Mode:        mode,
		Preview:     src.PreviewCamera(),
		GridSide:    src.Grid().Side,
		Spacing:     src.Options().Spacing,
		OutputDepth: OutputDepthName + "." + c.opts.Format,
		Results:     results,
	}
	if c.opts.SheetTile > 0 {
		m.Sheet = SheetName + "." + c.opts.Format
	}
	for i, off := range src.Offsets() {
		m.Cameras = append(m.Cameras, CameraEntry{
			Slot:   i,
			Offset: [3]float64{off[0], off[1], off[2]},
			Color:  ColorName(i) + "." + c.opts.Format,
			Depth:  DepthName(i) + "." + c.opts.Format,
		})
	}

	var errs []error
	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
			continue
		}
		logger.Errorf("%s: %s", r.File, r.Error)
		errs = append(errs, fmt.Errorf("%s: %s", r.File, r.Error))
	}
	if err := WriteManifest(filepath.Join(c.opts.Dir, ManifestName), m); err != nil {
		logger.Errorf("manifest: %v", err)
		errs = append(errs, fmt.Errorf("manifest: %w", err))
	}
	logger.Noticef("captured %d/%d images to %s in %s", ok, len(results), c.opts.Dir, time.Since(start).Round(time.Millisecond))

	return m, errors.Join(errs...)
}

func (c *Capturer) readBack(ctx *device.Context, src Source, depth DepthSource) (v views, err error) {
	prev := src.PreviewCamera()
	defer func() {
		if rerr := src.SetPreviewCamera(prev); rerr != nil && err == nil {
			err = rerr
		}
	}()

	n := src.Len()
	v.colors = make([]*device.Image, n)
	v.depths = make([]*device.Image, n)
	for i := 0; i < n; i++ {
		if err = src.SetPreviewCamera(i); err != nil {
			return v, err
		}
		if err = src.BindPreviewTextures(ctx); err != nil {
			return v, err
		}
		v.colors[i], err = ctx.ReadBack(ctx.ShaderResource(lightfield.SlotPreviewColor))
		if err == nil {
			v.depths[i], err = ctx.ReadBack(ctx.ShaderResource(lightfield.SlotPreviewDepth))
		}
		if uerr := src.UnbindPreviewTextures(ctx); err == nil {
			err = uerr
		}
		if err != nil {
			return v, fmt.Errorf("camera %d: %w", i, err)
		}
	}

	v.output, err = ctx.ReadBack(depth.Output())
	return v, err
}

func (c *Capturer) jobs(v views, side int) []job {
	jobs := make([]job, 0, 2*len(v.colors)+2)
	tiles := make([]*image.NRGBA, len(v.colors))
	for i, img := range v.colors {
		tiles[i] = postprocess.ToNRGBA(img)
		jobs = append(jobs, job{name: ColorName(i), img: tiles[i]})
	}
	for i, img := range v.depths {
		jobs = append(jobs, job{name: DepthName(i), img: c.depthImage(img)})
	}
	jobs = append(jobs, job{name: OutputDepthName, img: postprocess.ToGray(v.output, 0, 1)})

	if c.opts.SheetTile > 0 && len(tiles) > 0 {
		b := tiles[0].Bounds()
		w, h := postprocess.Fit(b.Dx(), b.Dy(), c.opts.SheetTile, c.opts.SheetTile)
		jobs = append(jobs, job{name: SheetName, img: postprocess.ContactSheet(tiles, side, w, h, 2)})
	}
	return jobs
}

func (c *Capturer) depthImage(img *device.Image) image.Image {
	if !c.opts.NormalizeDepth {
		return postprocess.ToGray(img, 0, 1)
	}
	lo, hi := postprocess.Range(img)
	return postprocess.ToGray(img, lo, hi)
}
