package present

import (
	"fmt"
	"image"

	"lightfield-renderer/internal/device"
	"lightfield-renderer/internal/postprocess"
)

// Surface displays finished frames. With vsync the call waits for the
// vertical blank.
type Surface interface {
	Present(img *image.NRGBA, vsync bool) error
}

// Swapchain is a single RGBA8 back buffer in front of a surface.
type Swapchain struct {
	ctx     *device.Context
	back    *device.Texture2D
	surface Surface
	vsync   bool
}

// NewSwapchain allocates a width x height back buffer.
func NewSwapchain(dev *device.Device, width, height int, surface Surface, vsync bool) (*Swapchain, error) {
	back, err := dev.NewTexture2D(device.Desc{Width: width, Height: height, Format: device.FormatRGBA8})
	if err != nil {
		return nil, fmt.Errorf("present: create swapchain: %w", err)
	}
	return &Swapchain{ctx: dev.Context(), back: back, surface: surface, vsync: vsync}, nil
}

func (s *Swapchain) BackBuffer() *device.Texture2D { return s.back }
func (s *Swapchain) VSync() bool                   { return s.vsync }

// Present hands the back buffer to the surface.
func (s *Swapchain) Present() error {
	img, err := s.ctx.ReadBack(s.back)
	if err != nil {
		return err
	}
	return s.surface.Present(postprocess.ToNRGBA(img), s.vsync)
}

func (s *Swapchain) Release() {
	if s.back != nil {
		s.back.Release()
		s.back = nil
	}
}

// HeadlessSurface keeps the last presented frame in memory.
type HeadlessSurface struct {
	Last      *image.NRGBA
	Presents  int
	LastVSync bool
}

func (h *HeadlessSurface) Present(img *image.NRGBA, vsync bool) error {
	h.Last = img
	h.Presents++
	h.LastVSync = vsync
	return nil
}
