package capture

import (
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/HugoSmits86/nativewebp"
)

// Supported output formats.
const (
	FormatJPEG = "jpg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// NormalizeFormat maps accepted spellings to one of the Format constants.
func NormalizeFormat(f string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(f, ".")) {
	case "", "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

func encode(w io.Writer, img image.Image, format string, quality int) error {
	switch format {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatPNG:
		return png.Encode(w, img)
	case FormatWebP:
		return nativewebp.Encode(w, toNRGBA(img), nil)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
