package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
)

// Bounds represents the simulation bounds.
type Bounds struct {
	Width, Height float64
}

// Integrate advances one frame: position moves by the current velocity, then
// velocity takes the accumulated acceleration and is capped at MaxSpeed.
// The acceleration accumulator is cleared.
func Integrate(pos *components.Position, vel *components.Velocity, acc *components.Acceleration, lim components.Limits) {
	pos.X += vel.X
	pos.Y += vel.Y

	v := r2.Add(r2.Vec(*vel), r2.Vec(*acc))
	*vel = components.Velocity(Limit(v, lim.MaxSpeed))

	*acc = components.Acceleration{}
}

// Reflect flips velocity components whose position lies outside [0, bound].
// Reflection happens at the bound itself with no radius offset.
func Reflect(pos components.Position, vel *components.Velocity, b Bounds) {
	if pos.X > b.Width || pos.X < 0 {
		vel.X = -vel.X
	}
	if pos.Y > b.Height || pos.Y < 0 {
		vel.Y = -vel.Y
	}
}

// Accumulate adds a force to the acceleration accumulator.
func Accumulate(acc *components.Acceleration, force r2.Vec) {
	acc.X += force.X
	acc.Y += force.Y
}

// Jitter returns a random perturbation with magnitude in [lo, hi).
func Jitter(rng RNG, lo, hi float64) r2.Vec {
	if hi <= 0 {
		return r2.Vec{}
	}
	return r2.Scale(RandRange(rng, lo, hi), Random2D(rng))
}

// InitialVelocity returns a random heading with speed in [lo, hi).
func InitialVelocity(rng RNG, lo, hi float64) components.Velocity {
	return components.Velocity(Jitter(rng, lo, hi))
}
