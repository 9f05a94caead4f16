package mathutil

import "math"

// Mat4 is a 4×4 matrix stored row-major and applied to column vectors.
type Mat4 [16]float64

func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4Mul returns a × b.
func Mat4Mul(a, b Mat4) Mat4 {
	var m Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[r*4+c] = a[r*4+0]*b[0*4+c] + a[r*4+1]*b[1*4+c] +
				a[r*4+2]*b[2*4+c] + a[r*4+3]*b[3*4+c]
		}
	}
	return m
}

// MulPoint transforms a 3D point (w=1) by the 4×4 matrix, ignoring the
// projective row.
func (m Mat4) MulPoint(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
	}
}

// MulDir transforms a direction (w=0).
func (m Mat4) MulDir(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2],
	}
}

// MulVec4 returns M × v.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3]*v[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7]*v[3],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11]*v[3],
		m[12]*v[0] + m[13]*v[1] + m[14]*v[2] + m[15]*v[3],
	}
}

// FromMat3Translation builds a 4×4 affine matrix from a 3×3 rotation and translation.
func FromMat3Translation(r Mat3, t Vec3) Mat4 {
	return Mat4{
		r[0], r[1], r[2], t[0],
		r[3], r[4], r[5], t[1],
		r[6], r[7], r[8], t[2],
		0, 0, 0, 1,
	}
}

// Mat4Translation returns a pure translation.
func Mat4Translation(t Vec3) Mat4 {
	return FromMat3Translation(Mat3Identity(), t)
}

// Mat4Scale returns a non-uniform scale.
func Mat4Scale(s Vec3) Mat4 {
	return FromMat3Translation(Mat3Diag(s[0], s[1], s[2]), Vec3{})
}

// Upper3 returns the upper-left 3×3 block.
func (m Mat4) Upper3() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

func (m Mat4) Transpose() Mat4 {
	return Mat4{
		m[0], m[4], m[8], m[12],
		m[1], m[5], m[9], m[13],
		m[2], m[6], m[10], m[14],
		m[3], m[7], m[11], m[15],
	}
}

// Inverse returns the inverse by Gauss-Jordan elimination with partial
// pivoting. A singular matrix yields identity.
func (m Mat4) Inverse() Mat4 {
	a := m
	inv := Mat4Identity()
	for col := 0; col < 4; col++ {
		pivot := col
		for r := col + 1; r < 4; r++ {
			if math.Abs(a[r*4+col]) > math.Abs(a[pivot*4+col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot*4+col]) < 1e-12 {
			return Mat4Identity()
		}
		if pivot != col {
			for c := 0; c < 4; c++ {
				a[col*4+c], a[pivot*4+c] = a[pivot*4+c], a[col*4+c]
				inv[col*4+c], inv[pivot*4+c] = inv[pivot*4+c], inv[col*4+c]
			}
		}
		p := 1.0 / a[col*4+col]
		for c := 0; c < 4; c++ {
			a[col*4+c] *= p
			inv[col*4+c] *= p
		}
		for r := 0; r < 4; r++ {
			if r == col {
				continue
			}
			f := a[r*4+col]
			if f == 0 {
				continue
			}
			for c := 0; c < 4; c++ {
				a[r*4+c] -= f * a[col*4+c]
				inv[r*4+c] -= f * inv[col*4+c]
			}
		}
	}
	return inv
}

// PerspectiveFovLH returns a left-handed perspective projection mapping view
// depth [near, far] to clip depth [0, 1]. Clip w equals view-space z.
func PerspectiveFovLH(fovY, aspect, near, far float64) Mat4 {
	yScale := 1 / math.Tan(fovY/2)
	xScale := yScale / aspect
	q := far / (far - near)
	return Mat4{
		xScale, 0, 0, 0,
		0, yScale, 0, 0,
		0, 0, q, -q * near,
		0, 0, 1, 0,
	}
}
