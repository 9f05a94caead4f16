package main

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"lightfield-renderer/internal/config"
	"lightfield-renderer/internal/frametime"
	"lightfield-renderer/internal/input"
	"lightfield-renderer/internal/lightfield"
	"lightfield-renderer/internal/log"
	"lightfield-renderer/internal/present"
	"lightfield-renderer/internal/renderer"
	"lightfield-renderer/internal/window"
)

var logger = log.New("lightfield")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}

// loadConfig reads the config file, if any, and applies command flags.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	var cfg config.Config
	path := ctx.GlobalString("config")
	if path == "" {
		path = config.Find()
	}
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
		logger.Infof("config %s", path)
	}

	// radius 0 is meaningful, so only an explicit flag overrides
	radius := -1
	if ctx.IsSet("radius") {
		radius = ctx.Int("radius")
	}
	cfg.Resolve(config.Flags{
		Width:      ctx.Int("width"),
		Height:     ctx.Int("height"),
		GridRadius: radius,
		Spacing:    ctx.Float64("spacing"),
		Mode:       ctx.String("mode"),
		CaptureDir: ctx.String("out"),
		Format:     ctx.String("format"),
		Quality:    ctx.Int("quality"),
		Workers:    ctx.Int("workers"),
		NoVSync:    ctx.Bool("no-vsync"),
	})
	return cfg, nil
}

func runInteractive(ctx *cli.Context) error {
	setupLogging(ctx)
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	state := input.NewState()
	win, err := window.Open("lightfield", cfg.Width, cfg.Height, state)
	if err != nil {
		return err
	}
	defer win.Close()

	r, err := renderer.New(cfg, win)
	if err != nil {
		return err
	}
	defer r.Close()

	clock := frametime.New()
	for !win.ShouldClose() && !r.Done() {
		win.PollEvents()
		t := clock.Mark()
		r.Update(t, state)
		if err := r.Render(); err != nil {
			return err
		}
		state.FlushOldInputs()

		if s := r.Stats(); s.Frames%60 == 0 {
			win.SetTitle(fmt.Sprintf("lightfield - %s - camera %d - %.1f ms", s.Mode, s.Preview, t.Delta*1000))
		}
	}
	return nil
}

func runHeadless(ctx *cli.Context) error {
	setupLogging(ctx)
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	r, err := renderer.New(cfg, &present.HeadlessSurface{})
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.Rig().SetPreviewCamera(ctx.Int("preview")); err != nil {
		return err
	}
	frames := ctx.Int("frames")
	if frames < 1 {
		frames = 1
	}
	for i := 0; i < frames; i++ {
		if err := r.Render(); err != nil {
			return err
		}
	}
	displayFrameStats(r.Stats())

	if m := r.Screenshot(); m != nil {
		logger.Noticef("capture written to %s (%d files)", cfg.Capture.Dir, len(m.Results))
	}
	return nil
}

func printOffsets(ctx *cli.Context) error {
	setupLogging(ctx)
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Slot", "Row", "Col", "Offset X", "Offset Y", "Offset Z"})
	side := 2*cfg.Radius() + 1
	for i, off := range lightfield.Offsets(cfg.Radius(), cfg.Grid.Spacing) {
		table.Append([]string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", i/side),
			fmt.Sprintf("%d", i%side),
			fmt.Sprintf("%+.4f", off[0]),
			fmt.Sprintf("%+.4f", off[1]),
			fmt.Sprintf("%+.4f", off[2]),
		})
	}
	table.Render()
	fmt.Print(buf.String())
	return nil
}

func displayFrameStats(stats renderer.Stats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Draws", "Skipped", "Triangles", "Full-screen", "Constant updates", "Target binds", "Frame time"})
	d := stats.Device
	table.Append([]string{
		fmt.Sprintf("%d", d.DrawCalls),
		fmt.Sprintf("%d", d.SkippedDraws),
		fmt.Sprintf("%d", d.Triangles),
		fmt.Sprintf("%d", d.FullScreenPasses),
		fmt.Sprintf("%d", d.ConstantUpdates),
		fmt.Sprintf("%d", d.TargetBinds),
		stats.Frame.String(),
	})
	table.SetFooter([]string{"", "", "", "", "MODE", stats.Mode.String(), fmt.Sprintf("camera %d", stats.Preview)})

	table.Render()
	logger.Noticef("frame statistics (%d frames)\n%s", stats.Frames, buf.String())
}
