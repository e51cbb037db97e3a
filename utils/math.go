package utils

import (
	"math"
)

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// WrapAngle returns the equivalent angle in (-π, π].
func WrapAngle(rad float64) float64 {
	wrapped := math.Mod(rad, 2*math.Pi)
	if wrapped <= -math.Pi {
		wrapped += 2 * math.Pi
	} else if wrapped > math.Pi {
		wrapped -= 2 * math.Pi
	}
	return wrapped
}

// AngleDiff returns the signed shortest rotation, in radians, that takes `from` onto `to`. The
// result is in (-π, π].
func AngleDiff(from, to float64) float64 {
	return WrapAngle(to - from)
}

// InputModulus wraps input into the range [minimum, maximum] by adding or removing whole
// multiples of the range width.
func InputModulus(input, minimum, maximum float64) float64 {
	modulus := maximum - minimum
	if modulus <= 0 {
		return input
	}
	numMax := math.Trunc((input - minimum) / modulus)
	input -= numMax * modulus
	numMin := math.Trunc((input - maximum) / modulus)
	input -= numMin * modulus
	return input
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Lerp linearly interpolates between a and b. t is not clamped.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Float64AlmostEqual reports whether a and b differ by no more than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// IsFinite reports whether none of the values is NaN or infinite.
func IsFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Math.pow( x, 2 ) is slow, this is faster
func Square(n float64) float64 {
	return n * n
}
