// Package quaternion provides the unit-quaternion math used by wave patterns:
// normalization, the Hamilton product, spherical interpolation and phase helpers.
package quaternion

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Tolerance is the allowed deviation of a unit quaternion's norm from 1.
const Tolerance = 1e-6

// slerpLinearThreshold is the cosine above which slerp degrades to normalized lerp.
const slerpLinearThreshold = 0.9995

// Quaternion is w + xi + yj + zk.
type Quaternion struct {
	W, X, Y, Z float64
}

// Identity is the unit quaternion (1,0,0,0).
var Identity = Quaternion{W: 1}

// New returns the quaternion (w,x,y,z).
func New(w, x, y, z float64) Quaternion {
	return Quaternion{W: w, X: x, Y: y, Z: z}
}

// FromSlice builds a quaternion from a [w,x,y,z] slice. ok is false unless len(s) == 4.
func FromSlice(s []float64) (q Quaternion, ok bool) {
	if len(s) != 4 {
		return Quaternion{}, false
	}
	return Quaternion{W: s[0], X: s[1], Y: s[2], Z: s[3]}, true
}

// Slice returns [w,x,y,z].
func (q Quaternion) Slice() []float64 {
	return []float64{q.W, q.X, q.Y, q.Z}
}

func (q Quaternion) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

func fromNumber(n quat.Number) Quaternion {
	return Quaternion{W: n.Real, X: n.Imag, Y: n.Jmag, Z: n.Kmag}
}

// Norm returns the Euclidean length of q.
func (q Quaternion) Norm() float64 {
	return quat.Abs(q.number())
}

// IsUnit reports whether q has unit length within Tolerance.
func (q Quaternion) IsUnit() bool {
	return math.Abs(q.Norm()-1) <= Tolerance
}

// IsFinite reports whether every component is a finite number.
func (q Quaternion) IsFinite() bool {
	for _, v := range []float64{q.W, q.X, q.Y, q.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Normalize returns q scaled to unit length. A zero (or non-finite) quaternion has no
// direction and normalizes to Identity.
func (q Quaternion) Normalize() Quaternion {
	n := q.Norm()
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return Identity
	}
	return Quaternion{W: q.W / n, X: q.X / n, Y: q.Y / n, Z: q.Z / n}
}

// Conj returns the conjugate (w,-x,-y,-z).
func (q Quaternion) Conj() Quaternion {
	return fromNumber(quat.Conj(q.number()))
}

// Neg returns -q, which encodes the same rotation as q.
func (q Quaternion) Neg() Quaternion {
	return Quaternion{W: -q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Dot returns the 4D inner product of a and b.
func Dot(a, b Quaternion) float64 {
	return a.W*b.W + a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Mul returns the Hamilton product a ⊗ b. It is not commutative.
func Mul(a, b Quaternion) Quaternion {
	return fromNumber(quat.Mul(a.number(), b.number()))
}

// VectorNorm returns the length of the vector (imaginary) part of q.
func (q Quaternion) VectorNorm() float64 {
	return math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Slerp interpolates from a to b by t along the shortest great arc of the unit
// 3-sphere. Inputs are expected to be unit quaternions; the result is normalized.
func Slerp(a, b Quaternion, t float64) Quaternion {
	cos := Dot(a, b)
	if cos < 0 {
		b = b.Neg()
		cos = -cos
	}
	if cos > slerpLinearThreshold {
		return Quaternion{
			W: a.W + t*(b.W-a.W),
			X: a.X + t*(b.X-a.X),
			Y: a.Y + t*(b.Y-a.Y),
			Z: a.Z + t*(b.Z-a.Z),
		}.Normalize()
	}
	theta := math.Acos(cos)
	sin := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sin
	wb := math.Sin(t*theta) / sin
	return Quaternion{
		W: wa*a.W + wb*b.W,
		X: wa*a.X + wb*b.X,
		Y: wa*a.Y + wb*b.Y,
		Z: wa*a.Z + wb*b.Z,
	}.Normalize()
}
