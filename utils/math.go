// Package utils contains shared math helpers.
package utils

import "math"

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Float64AlmostEqual compares two float64s within the given epsilon.
func Float64AlmostEqual(v1, v2, epsilon float64) bool {
	return math.Abs(v1-v2) <= epsilon
}

// Clamp returns min if value is less than min, max if value is greater than max, and
// the value otherwise.
func Clamp(value, min, max float64) float64 {
	switch {
	case value < min:
		return min
	case value > max:
		return max
	}
	return value
}

// AngleDiffRad returns the closest difference between two angles in radians.
// The arguments are commutative.
func AngleDiffRad(a1, a2 float64) float64 {
	return math.Pi - math.Abs(math.Abs(a1-a2)-math.Pi)
}
