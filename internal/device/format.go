package device

// Format describes the texel layout of a texture.
type Format int

const (
	// FormatRGBA8 stores four unorm channels; writes are quantised to 1/255.
	FormatRGBA8 Format = iota
	// FormatR32F stores one float channel.
	FormatR32F
	// FormatRGBA32F stores four float channels.
	FormatRGBA32F
)

// Channels returns the number of stored channels per texel.
func (f Format) Channels() int {
	if f == FormatR32F {
		return 1
	}
	return 4
}

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatR32F:
		return "R32F"
	case FormatRGBA32F:
		return "RGBA32F"
	}
	return "unknown"
}

func (f Format) quantize(v float64) float32 {
	if f != FormatRGBA8 {
		return float32(v)
	}
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 1
	}
	return float32(float64(int(v*255+0.5)) / 255)
}
