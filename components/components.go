// Package components defines ECS components for the simulation.
package components

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Class discriminates the agent variants sharing the kinematics capability.
type Class uint8

const (
	ClassBoid  Class = iota // flocks, eats, decays
	ClassEnemy              // independent random motion
)

// String returns the lowercase class name.
func (c Class) String() string {
	switch c {
	case ClassBoid:
		return "boid"
	case ClassEnemy:
		return "enemy"
	default:
		return "unknown"
	}
}

// MarshalText encodes the class by name.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a class name.
func (c *Class) UnmarshalText(b []byte) error {
	switch string(b) {
	case "boid":
		*c = ClassBoid
	case "enemy":
		*c = ClassEnemy
	default:
		return fmt.Errorf("unknown class %q", b)
	}
	return nil
}

// Position represents an agent's world position.
type Position r2.Vec

// Velocity represents an agent's velocity in world units per frame.
type Velocity r2.Vec

// Acceleration is the per-frame force accumulator. It is zeroed by integration.
type Acceleration r2.Vec

// Limits holds the kinematic caps of an agent.
type Limits struct {
	MaxSpeed float64
	MaxForce float64
}

// Agent identifies an agent and its class.
type Agent struct {
	ID    uint32
	Class Class
}

// Life holds the boid-only health state.
// Color is the green channel used by renderers; it tracks life changes only.
type Life struct {
	Value  int
	Color  float64
	Eating bool
	Alive  bool
}

// Decision holds the per-boid decision policy memory between decision ticks.
type Decision struct {
	State     [StateSize]float64
	Action    int
	Reward    float64 // accumulated since the last decision
	HasState  bool
	Countdown int // ticks until the next decision
}

// StateSize is the length of a decision observation: x, y, vx, vy, nearest food distance.
const StateSize = 5
