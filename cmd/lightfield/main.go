package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "lightfield"
	app.Usage = "preview a scene through a grid of sub-aperture cameras and reconstruct depth from it"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "config file (.toml or .json); lightfield.toml or lightfield.json are picked up when present",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "open the interactive preview window",
			Description: `
F1/F2/F3 show the preview colour, its simulated depth or the reconstructed
depth. Tab cycles the preview camera, F12 writes a capture, Escape quits.
WASD/QE move the camera (Shift faster, Ctrl slower), the mouse aims it.`,
			Flags:  renderFlags(),
			Action: runInteractive,
		},
		{
			Name:        "render",
			Usage:       "render frames headless and write a capture",
			Description: `Render a number of frames without a window, then capture every view.`,
			Flags: append(renderFlags(),
				cli.IntFlag{
					Name:  "frames",
					Value: 1,
					Usage: "frames to render before capturing",
				},
				cli.IntFlag{
					Name:  "preview",
					Usage: "preview camera slot",
				},
			),
			Action: runHeadless,
		},
		{
			Name:   "offsets",
			Usage:  "print the camera grid",
			Flags:  renderFlags(),
			Action: printOffsets,
		},
	}
	app.Action = runInteractive

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func renderFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{Name: "width", Usage: "presentation width (default 1280)"},
		cli.IntFlag{Name: "height", Usage: "presentation height (default 720)"},
		cli.IntFlag{Name: "radius", Usage: "camera grid radius; the grid has 2r+1 cameras per side (default 1)"},
		cli.Float64Flag{Name: "spacing", Usage: "distance between neighbouring cameras (default 0.1)"},
		cli.StringFlag{Name: "mode", Usage: "color, simulated-depth or output-depth"},
		cli.StringFlag{Name: "out, o", Usage: "capture directory (default screenshots)"},
		cli.StringFlag{Name: "format", Usage: "capture format: jpg, png or webp"},
		cli.IntFlag{Name: "quality", Usage: "jpg quality 1-100 (default 90)"},
		cli.IntFlag{Name: "workers", Usage: "capture writer goroutines (default NumCPU)"},
		cli.BoolFlag{Name: "no-vsync", Usage: "present without waiting for the vertical blank"},
	}
}
