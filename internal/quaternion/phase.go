package quaternion

import "math"

// WrapPhase maps any finite angle into [-π, π].
func WrapPhase(theta float64) float64 {
	if theta >= -math.Pi && theta <= math.Pi {
		return theta
	}
	wrapped := math.Mod(theta+math.Pi, 2*math.Pi)
	if wrapped < 0 {
		wrapped += 2 * math.Pi
	}
	return wrapped - math.Pi
}

// CircularInterpolate moves from angle a toward angle b by fraction t along the
// shorter arc and returns the wrapped result.
func CircularInterpolate(a, b, t float64) float64 {
	delta := WrapPhase(b - a)
	return WrapPhase(a + t*delta)
}
