package systems

import (
	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/config"
)

// LifeParams holds the life economics applied to boids.
type LifeParams struct {
	Decay      int     // life lost per decay tick
	Gain       int     // life gained per meal below the color cap
	ColorCap   float64 // meals stop adding life once color reaches this
	ColorGain  float64
	ColorDecay float64
}

// LifeParamsFrom extracts life parameters from config.
func LifeParamsFrom(cfg *config.Config) LifeParams {
	return LifeParams{
		Decay:      cfg.Life.DecayAmount,
		Gain:       cfg.Life.EatGain,
		ColorCap:   cfg.Life.ColorCap,
		ColorGain:  cfg.Life.ColorGain,
		ColorDecay: cfg.Life.ColorDecay,
	}
}

// NewLife returns a living boid life component.
func NewLife(initial int, color float64) components.Life {
	return components.Life{Value: initial, Color: color, Alive: true}
}

// Decay applies one decay tick and marks the boid dead at zero.
// Dead boids are left in place for the batched cleanup at the end of the step.
func Decay(life *components.Life, p LifeParams) {
	if !life.Alive {
		return
	}

	life.Value -= p.Decay
	life.Color -= p.ColorDecay
	if life.Color < 0 {
		life.Color = 0
	}

	if life.Value <= 0 {
		life.Value = 0
		life.Alive = false
	}
}

// Eat records a meal. Life grows only while the color is below its cap,
// so repeated meals give diminishing returns. Returns whether life grew.
func Eat(life *components.Life, p LifeParams) bool {
	if !life.Alive {
		return false
	}

	life.Eating = true
	if life.Color >= p.ColorCap {
		return false
	}

	life.Color += p.ColorGain
	life.Value += p.Gain
	return true
}
