package policy

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/systems"
)

// SteeringPolicy always seeks the nearest resource. It never learns.
type SteeringPolicy struct{}

func (SteeringPolicy) Observe(ctx Context) State { return Observe(ctx) }

func (SteeringPolicy) Act(State) Action { return ActionSteer }

// Apply returns the seek force toward the nearest resource, or zero when
// the field is empty.
func (SteeringPolicy) Apply(ctx Context, _ Action) r2.Vec {
	if !ctx.HasTarget {
		return r2.Vec{}
	}
	return systems.Seek(ctx.Body, ctx.Target)
}

func (SteeringPolicy) Reward(o Outcome) float64 { return Reward(o) }

func (SteeringPolicy) Learn(Transition) {}
