package game

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/systems"
)

// AgentSnapshot is a copy of one agent's observable state.
type AgentSnapshot struct {
	ID     uint32           `json:"id"`
	Class  components.Class `json:"class"`
	Pos    r2.Vec           `json:"pos"`
	Vel    r2.Vec           `json:"vel"`
	Life   int              `json:"life,omitempty"`
	Color  float64          `json:"color,omitempty"`
	Eating bool             `json:"eating,omitempty"`
}

// FrameResult is the observable outcome of one step. It shares no memory
// with the engine.
type FrameResult struct {
	Tick      int32                   `json:"tick"`
	SimTime   float64                 `json:"sim_time"`
	Width     float64                 `json:"width"`
	Height    float64                 `json:"height"`
	Agents    []AgentSnapshot         `json:"agents"`
	Resources []systems.ResourcePoint `json:"resources"`
	Eaten     int                     `json:"eaten"`
	Died      int                     `json:"died"`
}

// Boids returns the boid snapshots.
func (f FrameResult) Boids() []AgentSnapshot {
	return f.ofClass(components.ClassBoid)
}

// Enemies returns the enemy snapshots.
func (f FrameResult) Enemies() []AgentSnapshot {
	return f.ofClass(components.ClassEnemy)
}

func (f FrameResult) ofClass(c components.Class) []AgentSnapshot {
	var out []AgentSnapshot
	for _, a := range f.Agents {
		if a.Class == c {
			out = append(out, a)
		}
	}
	return out
}

// Snapshot returns the current state without stepping.
func (g *Game) Snapshot() FrameResult {
	return g.snapshot()
}

// snapshot copies agents and resources, sorted by ID.
func (g *Game) snapshot() FrameResult {
	f := FrameResult{
		Tick:      g.tick,
		SimTime:   g.simTime,
		Width:     g.bounds.Width,
		Height:    g.bounds.Height,
		Agents:    make([]AgentSnapshot, 0, g.numBoids+g.numEnemies),
		Resources: g.field.Points(),
		Eaten:     g.frameEaten,
		Died:      g.frameDied,
	}

	boids := g.boidFilter.Query()
	for boids.Next() {
		pos, vel, _, _, agent, life, _ := boids.Get()
		f.Agents = append(f.Agents, AgentSnapshot{
			ID:     agent.ID,
			Class:  agent.Class,
			Pos:    r2.Vec(*pos),
			Vel:    r2.Vec(*vel),
			Life:   life.Value,
			Color:  life.Color,
			Eating: life.Eating,
		})
	}

	enemies := g.kinFilter.Query()
	for enemies.Next() {
		pos, vel, _, _, agent := enemies.Get()
		if agent.Class != components.ClassEnemy {
			continue
		}
		f.Agents = append(f.Agents, AgentSnapshot{
			ID:    agent.ID,
			Class: agent.Class,
			Pos:   r2.Vec(*pos),
			Vel:   r2.Vec(*vel),
		})
	}

	slices.SortFunc(f.Agents, func(a, b AgentSnapshot) int {
		return int(a.ID) - int(b.ID)
	})
	return f
}
