// Package policy provides the pluggable boid decision policies: a
// deterministic seek-nearest-food steering policy and a learned Q-network
// controller.
package policy

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/systems"
)

// State is a decision observation: x, y, vx, vy and nearest food distance,
// each normalized to roughly [-1, 1].
type State [components.StateSize]float64

// Action is a discrete decision. Push actions index the Q-network outputs.
type Action int

const (
	ActionPushPosX Action = iota
	ActionPushNegX
	ActionPushPosY
	ActionPushNegY

	// NumActions is the Q-network output width.
	NumActions = 4

	// ActionSteer means "flock and seek the nearest resource".
	ActionSteer Action = -1
)

// String returns a short action name.
func (a Action) String() string {
	switch a {
	case ActionPushPosX:
		return "+x"
	case ActionPushNegX:
		return "-x"
	case ActionPushPosY:
		return "+y"
	case ActionPushNegY:
		return "-y"
	case ActionSteer:
		return "steer"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// direction returns the unit push vector of a push action, or zero.
func (a Action) direction() r2.Vec {
	switch a {
	case ActionPushPosX:
		return r2.Vec{X: 1}
	case ActionPushNegX:
		return r2.Vec{X: -1}
	case ActionPushPosY:
		return r2.Vec{Y: 1}
	case ActionPushNegY:
		return r2.Vec{Y: -1}
	default:
		return r2.Vec{}
	}
}

// Context is what a policy sees of one boid and its surroundings.
type Context struct {
	Body      systems.Body
	Neighbors []systems.Occupant
	Target    r2.Vec  // nearest resource
	Distance  float64 // to Target
	HasTarget bool
	Bounds    systems.Bounds
}

// Outcome summarizes what happened to a boid since its last decision.
type Outcome struct {
	Ate  int
	Died bool
}

// Transition is one learning sample.
type Transition struct {
	State  State
	Action Action
	Reward float64
	Next   State
	Done   bool
}

// Policy maps a boid's observation to an action and learns from outcomes.
// Apply returns a force; the caller adds it to the boid's acceleration
// alongside the flocking forces.
type Policy interface {
	Observe(ctx Context) State
	Act(s State) Action
	Apply(ctx Context, a Action) r2.Vec
	Reward(o Outcome) float64
	Learn(t Transition)
}

// Observe builds the normalized observation shared by both policies.
func Observe(ctx Context) State {
	var s State
	b := ctx.Bounds
	if b.Width > 0 {
		s[0] = ctx.Body.Pos.X / b.Width
	}
	if b.Height > 0 {
		s[1] = ctx.Body.Pos.Y / b.Height
	}
	if ctx.Body.MaxSpeed > 0 {
		s[2] = ctx.Body.Vel.X / ctx.Body.MaxSpeed
		s[3] = ctx.Body.Vel.Y / ctx.Body.MaxSpeed
	}
	s[4] = 1
	if diag := math.Hypot(b.Width, b.Height); ctx.HasTarget && diag > 0 {
		s[4] = math.Min(ctx.Distance/diag, 1)
	}
	return s
}

// Reward is +1 per meal, -1 on death.
func Reward(o Outcome) float64 {
	r := float64(o.Ate)
	if o.Died {
		r--
	}
	return r
}

// FromConfig builds the policy named by cfg.Policy.Kind. A nil store means
// learned weights are neither loaded nor persisted.
func FromConfig(ctx context.Context, cfg *config.Config, store WeightStore, rng *rand.Rand) (Policy, error) {
	switch cfg.Policy.Kind {
	case "", KindSteering:
		return SteeringPolicy{}, nil
	case KindLearned:
		var loader WeightLoader
		var saver WeightSaver
		if store != nil {
			loader, saver = store, store
		}
		model, err := LoadOrCreate(ctx, loader, cfg.Policy.Name, rng, cfg.Policy.HiddenLayers)
		if err != nil {
			return nil, fmt.Errorf("creating learned policy: %w", err)
		}
		return NewLearnedPolicy(model, rng, LearnedConfigFrom(cfg), saver), nil
	default:
		return nil, fmt.Errorf("unknown policy kind %q: %w", cfg.Policy.Kind, config.ErrInvalid)
	}
}

// Policy kinds accepted by FromConfig.
const (
	KindSteering = "steering"
	KindLearned  = "learned"
)
