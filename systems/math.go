package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// RNG is the subset of *rand.Rand used by systems.
type RNG interface {
	Float64() float64
}

// SetMag returns v scaled to magnitude m. The zero vector stays zero.
func SetMag(v r2.Vec, m float64) r2.Vec {
	n := r2.Norm(v)
	if n == 0 {
		return r2.Vec{}
	}
	return r2.Scale(m/n, v)
}

// Limit caps the magnitude of v at maxMag.
func Limit(v r2.Vec, maxMag float64) r2.Vec {
	n2 := r2.Norm2(v)
	if n2 <= maxMag*maxMag || n2 == 0 {
		return v
	}
	return r2.Scale(maxMag/math.Sqrt(n2), v)
}

// Normalize returns the unit vector of v, or zero for the zero vector.
func Normalize(v r2.Vec) r2.Vec {
	return SetMag(v, 1)
}

// Random2D returns a uniformly oriented unit vector.
func Random2D(rng RNG) r2.Vec {
	a := rng.Float64() * 2 * math.Pi
	return r2.Vec{X: math.Cos(a), Y: math.Sin(a)}
}

// RandRange returns a uniform value in [lo, hi).
func RandRange(rng RNG, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// distance returns the Euclidean distance between two points.
func distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}
