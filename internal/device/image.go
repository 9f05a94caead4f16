package device

// Image is a CPU copy of a texture, as returned by ReadBack.
type Image struct {
	Width  int
	Height int
	Format Format
	Pix    []float32
}

// At returns the texel at (x, y). Missing channels read as zero.
func (im *Image) At(x, y int) [4]float64 {
	ch := im.Format.Channels()
	i := (y*im.Width + x) * ch
	var c [4]float64
	for k := 0; k < ch; k++ {
		c[k] = float64(im.Pix[i+k])
	}
	return c
}

// Equal reports whether both images have the same shape and texels.
func (im *Image) Equal(o *Image) bool {
	if im.Width != o.Width || im.Height != o.Height || im.Format != o.Format || len(im.Pix) != len(o.Pix) {
		return false
	}
	for i := range im.Pix {
		if im.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}
