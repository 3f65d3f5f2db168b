// Package domain holds the pure MMSS types: quaternion rotors, geometric
// metrics, task commands, and the errors shared across the engine.
// Domain code is dependency-free math and data — no infrastructure.
package domain

import "math"

// normEpsilon is the threshold below which a quaternion or axis is treated
// as zero-length and cannot define a rotation.
const normEpsilon = 1e-10

// slerpDotThreshold: above this dot product two rotors are near-parallel and
// great-circle interpolation becomes numerically unstable.
const slerpDotThreshold = 0.9995

// Quaternion is a 4-component rotor (w, x, y, z) encoding a 3D rotation.
// All operations are pure: they never mutate their operands, so values can
// be shared across goroutines without synchronization.
type Quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NewQuaternion builds a quaternion from its four components.
func NewQuaternion(w, x, y, z float64) Quaternion {
	return Quaternion{W: w, X: x, Y: y, Z: z}
}

// IdentityQuaternion returns the multiplicative identity (1, 0, 0, 0).
func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

// FromAxisAngle builds a unit rotor from a 3-vector axis and an angle in
// radians. A zero-length axis cannot define a rotation, so axes with norm
// below 1e-10 yield the identity instead of failing.
func FromAxisAngle(axis [3]float64, angleRad float64) Quaternion {
	half := angleRad / 2
	norm := math.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
	if norm < normEpsilon {
		return IdentityQuaternion()
	}

	s := math.Sin(half) / norm
	return Quaternion{
		W: math.Cos(half),
		X: axis[0] * s,
		Y: axis[1] * s,
		Z: axis[2] * s,
	}
}

// Multiply returns the Hamilton product q·r. Non-commutative, associative.
func (q Quaternion) Multiply(r Quaternion) Quaternion {
	return Quaternion{
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
	}
}

// Conjugate negates the vector part.
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Norm returns the Euclidean length of the quaternion.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalize scales the quaternion to unit length. Near-zero quaternions
// (norm < 1e-10) return the identity to avoid division by near-zero.
func (q Quaternion) Normalize() Quaternion {
	n := q.Norm()
	if n < normEpsilon {
		return IdentityQuaternion()
	}
	return Quaternion{W: q.W / n, X: q.X / n, Y: q.Y / n, Z: q.Z / n}
}

// RotateVector rotates a 3-vector by conjugation q·(0,v)·q⁻¹. The rotor is
// normalized first, so the output is a pure vector up to floating-point
// precision.
func (q Quaternion) RotateVector(v [3]float64) [3]float64 {
	unit := q.Normalize()
	p := Quaternion{X: v[0], Y: v[1], Z: v[2]}
	rotated := unit.Multiply(p).Multiply(unit.Conjugate())
	return [3]float64{rotated.X, rotated.Y, rotated.Z}
}

// ToEuler converts the rotor to (roll, pitch, yaw) in radians. When the
// arcsine argument for pitch leaves [-1, 1] the pitch is clamped to ±90°
// instead of producing NaN (gimbal-lock guard).
func (q Quaternion) ToEuler() (roll, pitch, yaw float64) {
	sinrCosp := 2 * (q.W*q.X + q.Y*q.Z)
	cosrCosp := 1 - 2*(q.X*q.X+q.Y*q.Y)
	roll = math.Atan2(sinrCosp, cosrCosp)

	sinp := 2 * (q.W*q.Y - q.Z*q.X)
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}

	sinyCosp := 2 * (q.W*q.Z + q.X*q.Y)
	cosyCosp := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	yaw = math.Atan2(sinyCosp, cosyCosp)

	return roll, pitch, yaw
}

// Slerp spherically interpolates between q and r for t in [0, 1] along the
// shorter great-circle arc. When the dot product is negative, r is
// sign-flipped first so interpolation follows the shorter arc. Near-parallel
// rotors (dot > 0.9995) fall back to linear interpolation plus
// re-normalization. There is no error path: the result is always a rotor.
func (q Quaternion) Slerp(r Quaternion, t float64) Quaternion {
	dot := q.W*r.W + q.X*r.X + q.Y*r.Y + q.Z*r.Z
	if dot < 0 {
		r = Quaternion{W: -r.W, X: -r.X, Y: -r.Y, Z: -r.Z}
		dot = -dot
	}

	if dot > slerpDotThreshold {
		lerp := Quaternion{
			W: q.W + t*(r.W-q.W),
			X: q.X + t*(r.X-q.X),
			Y: q.Y + t*(r.Y-q.Y),
			Z: q.Z + t*(r.Z-q.Z),
		}
		return lerp.Normalize()
	}

	// dot is in [0, 0.9995], so Acos is safe.
	theta0 := math.Acos(dot)
	theta := theta0 * t
	sinTheta := math.Sin(theta)
	sinTheta0 := math.Sin(theta0)

	s1 := math.Cos(theta) - dot*sinTheta/sinTheta0
	s2 := sinTheta / sinTheta0

	return Quaternion{
		W: q.W*s1 + r.W*s2,
		X: q.X*s1 + r.X*s2,
		Y: q.Y*s1 + r.Y*s2,
		Z: q.Z*s1 + r.Z*s2,
	}
}
