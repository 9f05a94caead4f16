package lightfield

import (
	"math"

	"lightfield-renderer/internal/mathutil"
)

// Lighting holds the fixed key/rim/hemisphere light setup of the scene shader.
type Lighting struct {
	LightDir mathutil.Vec3
	RimDir   mathutil.Vec3
	HalfMain mathutil.Vec3 // Blinn-Phong half vector of the key light
	Ambient  float64
	Hemi     float64
	Direct   float64
	Rim      float64
	SpecInt  float64
	SpecPow  float64
	Exposure float64
	Gamma    float64
}

// DefaultLighting is a key light from the upper left front with a cool rim
// from behind.
func DefaultLighting() Lighting {
	lightDir := mathutil.Vec3{-0.45, 0.65, -0.6}.Normalize()
	rimDir := mathutil.Vec3{0.4, 0.3, 0.85}.Normalize()
	viewDir := mathutil.Vec3{0, 0, 1}

	return Lighting{
		LightDir: lightDir,
		RimDir:   rimDir,
		HalfMain: lightDir.Sub(viewDir).Normalize(),
		Ambient:  0.30,
		Hemi:     0.25,
		Direct:   0.80,
		Rim:      0.25,
		SpecInt:  0.30,
		SpecPow:  12.0,
		Exposure: 1.0,
		Gamma:    2.2,
	}
}

// Shade returns the combined lighting scalar for a world normal. Both faces
// of a surface are lit alike.
func (l *Lighting) Shade(normal mathutil.Vec3) float64 {
	ndlMain := math.Abs(normal.Dot(l.LightDir))
	ndlRim := math.Abs(normal.Dot(l.RimDir))

	hemi := (1.0-math.Abs(normal[1]))*0.5 + 0.5

	ndh := normal.Dot(l.HalfMain)
	if ndh < 0 {
		ndh = 0
	}
	spec := math.Pow(ndh, l.SpecPow) * l.SpecInt

	return l.Ambient + hemi*l.Hemi + ndlMain*l.Direct + ndlRim*l.Rim + spec
}

// Apply lights an sRGB albedo: decode, scale by shade, ACES tone map, encode.
func (l *Lighting) Apply(albedo [4]float64, shade float64) [4]float64 {
	inv := 1 / l.Gamma
	out := albedo
	for k := 0; k < 3; k++ {
		lin := math.Pow(math.Max(albedo[k], 0), l.Gamma)
		out[k] = math.Pow(acesTonemap(lin*shade*l.Exposure), inv)
	}
	return out
}

// acesTonemap applies the ACES filmic curve to a linear value.
func acesTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}
