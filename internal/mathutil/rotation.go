package mathutil

import "math"

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// EulerDeg converts an XYZ angle triple in degrees to a roll-pitch-yaw
// quaternion (x = pitch, y = yaw, z = roll).
func EulerDeg(v Vec3) Quat {
	return QuatRollPitchYaw(Deg2Rad(v[0]), Deg2Rad(v[1]), Deg2Rad(v[2]))
}
