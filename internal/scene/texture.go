package scene

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"

	"lightfield-renderer/internal/device"
)

// Decoders by file extension. TGA has no magic number, so image.Decode
// cannot tell it apart from other formats once the tga package is linked.
var textureDecoders = map[string]func(io.Reader) (image.Image, error){
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".tga":  tga.Decode,
	".bmp":  bmp.Decode,
}

// LoadTexture decodes a PNG, JPEG, TGA or BMP file into NRGBA. The format
// is chosen by extension.
func LoadTexture(path string) (*image.NRGBA, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := textureDecoders[ext]
	if !ok {
		return nil, fmt.Errorf("scene: texture %s: %w", path, ErrUnknownTextureFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene: open texture %s: %w", path, err)
	}
	defer f.Close()

	img, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("scene: decode texture %s: %w", path, err)
	}
	logger.Debugf("loaded %s texture %s (%dx%d)", ext[1:], path, img.Bounds().Dx(), img.Bounds().Dy())
	return toNRGBA(img), nil
}

// toNRGBA converts any image to NRGBA with its origin at (0, 0).
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	switch src.(type) {
	case *image.YCbCr, *image.Gray:
		// opaque sources draw straight through
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
				i := dst.PixOffset(x-b.Min.X, y-b.Min.Y)
				dst.Pix[i] = c.R
				dst.Pix[i+1] = c.G
				dst.Pix[i+2] = c.B
				dst.Pix[i+3] = c.A
			}
		}
	}
	return dst
}

// UploadTexture copies img into a new RGBA8 device texture.
func UploadTexture(dev *device.Device, img *image.NRGBA) (*device.Texture2D, error) {
	b := img.Bounds()
	tex, err := dev.NewTexture2D(device.Desc{Width: b.Dx(), Height: b.Dy(), Format: device.FormatRGBA8})
	if err != nil {
		return nil, err
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			tex.Store(x, y, [4]float64{
				float64(img.Pix[i]) / 255,
				float64(img.Pix[i+1]) / 255,
				float64(img.Pix[i+2]) / 255,
				float64(img.Pix[i+3]) / 255,
			})
		}
	}
	return tex, nil
}
