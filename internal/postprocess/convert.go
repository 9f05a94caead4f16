// Package postprocess turns read-back textures into images for display and
// capture.
package postprocess

import (
	"image"
	"math"

	"lightfield-renderer/internal/device"
)

// ToNRGBA converts a texture copy to 8-bit colour. Single-channel textures
// become opaque grey; values are clamped to [0, 1].
func ToNRGBA(img *device.Image) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	single := img.Format.Channels() == 1
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := img.At(x, y)
			if single {
				c = [4]float64{c[0], c[0], c[0], 1}
			}
			i := dst.PixOffset(x, y)
			for k := 0; k < 4; k++ {
				dst.Pix[i+k] = clamp8(c[k] * 255)
			}
		}
	}
	return dst
}

// ToGray maps channel 0 from [lo, hi] to 8-bit grey. An empty range maps
// [0, max(hi, 1)] instead.
func ToGray(img *device.Image, lo, hi float64) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, img.Width, img.Height))
	if hi <= lo {
		lo, hi = 0, math.Max(hi, 1)
	}
	scale := 255 / (hi - lo)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			dst.Pix[dst.PixOffset(x, y)] = clamp8((img.At(x, y)[0] - lo) * scale)
		}
	}
	return dst
}

// Range returns the smallest and largest non-zero value of channel 0.
// Zero marks cleared texels and is skipped. Both are 0 when every texel
// is clear.
func Range(img *device.Image) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v := img.At(x, y)[0]
			if v == 0 {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}
