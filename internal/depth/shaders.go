package depth

import (
	"math"

	"lightfield-renderer/internal/device"
)

func luminance(c [4]float64) float64 {
	return 0.299*c[0] + 0.587*c[1] + 0.114*c[2]
}

// gradientShader writes R = I_u, the mean horizontal inter-view difference
// (right view minus left), G = I_v, the mean vertical inter-view difference
// (upper view minus lower), and B, A = the central differences of the
// centre view along x and y.
func gradientShader(st *device.ShaderState, f *device.Fragment, out *device.Output) bool {
	views := st.Array(0)
	grid, ok := device.PSConstant[GridConstants](st, 0)
	if views == nil || !ok || grid.Side*grid.Side > views.Len() {
		return false
	}
	x, y := f.X, f.Y
	side := grid.Side
	lum := func(slot, x, y int) float64 {
		return luminance(views.Slice(slot).Load(x, y))
	}

	var iu, iv float64
	if side > 1 {
		for row := 0; row < side; row++ {
			for col := 0; col+1 < side; col++ {
				iu += lum(row*side+col+1, x, y) - lum(row*side+col, x, y)
			}
		}
		for row := 0; row+1 < side; row++ {
			for col := 0; col < side; col++ {
				iv += lum(row*side+col, x, y) - lum((row+1)*side+col, x, y)
			}
		}
		pairs := float64(side * (side - 1))
		iu /= pairs
		iv /= pairs
	}

	c := grid.Centre
	ix := (lum(c, x+1, y) - lum(c, x-1, y)) / 2
	iy := (lum(c, x, y+1) - lum(c, x, y-1)) / 2

	out[0] = [4]float64{iu, iv, ix, iy}
	return true
}

// reductionShader maps the least-squares disparity to depth in [0, 1].
func reductionShader(st *device.ShaderState, f *device.Fragment, out *device.Output) bool {
	grad := st.Texture(0)
	rc, ok := device.PSConstant[ReductionConstants](st, 0)
	if grad == nil || !ok {
		return false
	}
	g := grad.Load(f.X, f.Y)
	iu, iv, ix, iy := g[0], g[1], g[2], g[3]

	g2 := ix*ix + iy*iy
	if g2 == 0 || g2 < rc.Epsilon {
		out[0] = [4]float64{1}
		return true
	}
	disparity := (iu*ix - iv*iy) / g2
	out[0] = [4]float64{1 / (1 + rc.Gain*math.Abs(disparity))}
	return true
}
