// Package renderer owns the device and runs the per-frame chain: clear the
// camera array, render the scene into every camera, deduce depth, composite
// and present.
package renderer

import (
	"fmt"
	"time"

	"lightfield-renderer/internal/capture"
	"lightfield-renderer/internal/config"
	"lightfield-renderer/internal/depth"
	"lightfield-renderer/internal/device"
	"lightfield-renderer/internal/frametime"
	"lightfield-renderer/internal/input"
	"lightfield-renderer/internal/lightfield"
	"lightfield-renderer/internal/log"
	"lightfield-renderer/internal/mathutil"
	"lightfield-renderer/internal/present"
	"lightfield-renderer/internal/scene"
)

var logger = log.New("renderer")

// Stats describes the last rendered frame.
type Stats struct {
	Device  device.Stats
	Frame   time.Duration
	Frames  int
	Preview int
	Mode    present.Mode
}

type Renderer struct {
	cfg config.Config

	dev *device.Device
	ctx *device.Context

	scene     *scene.Scene
	drawables []lightfield.Drawable
	cameraCB  *device.ConstantBuffer[device.CameraConstants]

	rig      *lightfield.Rig
	deducer  *depth.Deducer
	comp     *present.Compositor
	sc       *present.Swapchain
	capturer *capture.Capturer

	bindings   input.Bindings
	controller input.Controller

	pendingCapture bool
	quit           bool
	stats          Stats
}

// New builds the scene described by cfg and every device resource the
// frame chain needs. cfg must be resolved. On failure everything created
// so far is released.
func New(cfg config.Config, surface present.Surface) (*Renderer, error) {
	r := &Renderer{
		cfg:        cfg,
		dev:        device.New(),
		bindings:   input.DefaultBindings(),
		controller: input.DefaultController(),
	}
	r.ctx = r.dev.Context()
	if err := r.init(surface); err != nil {
		r.Close()
		return nil, err
	}
	logger.Noticef("renderer ready: %dx%d, %d cameras, %d objects, mode %s",
		cfg.Width, cfg.Height, r.rig.Len(), len(r.scene.Objects), r.comp.Mode())
	return r, nil
}

func (r *Renderer) init(surface present.Surface) error {
	cfg := r.cfg
	mode, err := present.ParseMode(cfg.Mode)
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}

	cam := scene.NewCamera(cfg.Camera.FovY, float64(cfg.Width)/float64(cfg.Height), cfg.Camera.Near, cfg.Camera.Far)
	if cfg.Camera.Position != nil {
		cam.Transform.SetPosition(*cfg.Camera.Position)
	}
	r.controller.Base = mathutil.EulerDeg(cfg.Camera.Rotation)
	cam.Transform.SetRotation(r.controller.Base)
	r.scene = scene.New(cam)
	if err := r.scene.Build(cfg.Scene, cfg.BaseDir); err != nil {
		return fmt.Errorf("renderer: build scene: %w", err)
	}
	if len(r.scene.Objects) == 0 {
		logger.Warning("scene is empty")
	}
	if err := r.scene.Upload(r.dev); err != nil {
		return fmt.Errorf("renderer: upload scene: %w", err)
	}
	for _, o := range r.scene.Objects {
		r.drawables = append(r.drawables, o)
	}

	r.cameraCB, err = device.NewConstantBuffer(r.dev, cam.Constants())
	if err != nil {
		return fmt.Errorf("renderer: camera constants: %w", err)
	}

	r.rig, err = lightfield.New(r.dev, lightfield.Options{GridRadius: cfg.Radius(), Spacing: cfg.Grid.Spacing}, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	r.deducer, err = depth.New(r.dev, cfg.Width, cfg.Height, depth.Options{Gain: cfg.Depth.Gain, Epsilon: cfg.Depth.Epsilon})
	if err != nil {
		return err
	}
	r.comp, err = present.NewCompositor(r.dev)
	if err != nil {
		return err
	}
	r.comp.SetMode(mode)
	r.sc, err = present.NewSwapchain(r.dev, cfg.Width, cfg.Height, surface, cfg.VSyncEnabled())
	if err != nil {
		return err
	}
	r.capturer, err = capture.New(capture.Options{
		Dir:            cfg.Capture.Dir,
		Format:         cfg.Capture.Format,
		Quality:        cfg.Capture.Quality,
		Workers:        cfg.Capture.Workers,
		NormalizeDepth: cfg.Capture.NormalizeDepth,
		SheetTile:      cfg.SheetTile(),
	})
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	return nil
}

// Update applies the input of one frame. Discrete actions fire on key
// press; the camera moves by t.Delta.
func (r *Renderer) Update(t frametime.Time, in *input.State) {
	for _, a := range r.bindings.Actions(in) {
		switch a {
		case input.ActionColor:
			r.comp.SetMode(present.ModeColor)
		case input.ActionSimulatedDepth:
			r.comp.SetMode(present.ModeSimulatedDepth)
		case input.ActionOutputDepth:
			r.comp.SetMode(present.ModeOutputDepth)
		case input.ActionCyclePreview:
			r.rig.CyclePreviewCamera()
			logger.Infof("preview camera %d", r.rig.PreviewCamera())
		case input.ActionScreenshot:
			r.pendingCapture = true
		case input.ActionQuit:
			r.quit = true
		}
	}
	r.controller.Apply(r.scene.Camera.Transform, in, t.Delta)
}

// Render runs one frame. A capture requested by Update is taken once the
// frame is presented.
func (r *Renderer) Render() error {
	start := time.Now()
	r.ctx.ResetStats()

	r.cameraCB.Update(r.ctx, r.scene.Camera.Constants())
	if err := r.ctx.VSSetConstantBuffer(device.VSSlotCamera, r.cameraCB); err != nil {
		return err
	}

	r.rig.ClearAll(r.ctx)
	if err := r.rig.Simulate(r.ctx, r.drawables); err != nil {
		return fmt.Errorf("renderer: scene pass: %w", err)
	}
	if err := r.deducer.Deduce(r.ctx, r.rig); err != nil {
		return fmt.Errorf("renderer: depth pass: %w", err)
	}
	if err := r.comp.Composite(r.ctx, r.rig, r.deducer, r.sc); err != nil {
		return fmt.Errorf("renderer: composite: %w", err)
	}
	if err := r.sc.Present(); err != nil {
		return fmt.Errorf("renderer: present: %w", err)
	}

	r.stats = Stats{
		Device:  r.ctx.Stats(),
		Frame:   time.Since(start),
		Frames:  r.stats.Frames + 1,
		Preview: r.rig.PreviewCamera(),
		Mode:    r.comp.Mode(),
	}

	if r.pendingCapture {
		r.pendingCapture = false
		r.Screenshot()
	}
	return nil
}

// Screenshot captures the camera array and the reconstructed depth. Errors
// are logged, never returned.
func (r *Renderer) Screenshot() *capture.Manifest {
	m, err := r.capturer.Capture(r.ctx, r.rig, r.deducer, r.comp.Mode().String())
	if err != nil {
		logger.Errorf("screenshot: %v", err)
	}
	return m
}

// Done reports whether quit was requested.
func (r *Renderer) Done() bool { return r.quit }

func (r *Renderer) Stats() Stats { return r.stats }

func (r *Renderer) Mode() present.Mode { return r.comp.Mode() }

func (r *Renderer) SetMode(m present.Mode) { r.comp.SetMode(m) }

func (r *Renderer) Rig() *lightfield.Rig { return r.rig }

func (r *Renderer) Camera() *scene.Camera { return r.scene.Camera }

// Close releases everything in reverse acquisition order.
func (r *Renderer) Close() {
	r.ctx.ClearState()
	if r.sc != nil {
		r.sc.Release()
	}
	if r.comp != nil {
		r.comp.Release()
	}
	if r.deducer != nil {
		r.deducer.Release()
	}
	if r.rig != nil {
		r.rig.Release()
	}
	if r.cameraCB != nil {
		r.cameraCB.Release()
	}
	if r.scene != nil {
		r.scene.Release()
	}
	r.dev.Release()
}
