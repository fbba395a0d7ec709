// Package game runs the boids simulation: it owns the ECS world, the
// resource field and the spatial index, and advances them one frame at a time.
package game

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/policy"
	"github.com/pthm-cable/shoal/systems"
	"github.com/pthm-cable/shoal/telemetry"
)

// Options configures a Game beyond the simulation config.
type Options struct {
	Seed      int64
	RunID     string
	LogStats  bool
	OutputDir string // CSV telemetry; empty disables

	// Policy overrides the policy built from cfg.Policy.
	Policy policy.Policy
	// Store loads and saves learned weights when Policy is nil.
	Store policy.WeightStore

	// OnStats is called with every flushed telemetry window.
	OnStats func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg *config.Config
	rng *rand.Rand

	world *ecs.World

	// Boids carry life and decision memory, enemies only kinematics.
	boidMapper *ecs.Map7[
		components.Position,
		components.Velocity,
		components.Acceleration,
		components.Limits,
		components.Agent,
		components.Life,
		components.Decision,
	]
	enemyMapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Acceleration,
		components.Limits,
		components.Agent,
	]
	boidFilter *ecs.Filter7[
		components.Position,
		components.Velocity,
		components.Acceleration,
		components.Limits,
		components.Agent,
		components.Life,
		components.Decision,
	]
	kinFilter *ecs.Filter5[
		components.Position,
		components.Velocity,
		components.Acceleration,
		components.Limits,
		components.Agent,
	]

	index  *systems.SpatialIndex
	field  *systems.ResourceField
	bounds systems.Bounds
	life   systems.LifeParams

	weights       systems.Weights
	contactRadius float64
	contactWeight float64

	policy   policy.Policy
	interval int // ticks between decisions

	queue mutationQueue

	// Scratch buffers reused every frame
	occupants   []systems.Occupant
	neighbors   []systems.Occupant
	flockmates  []systems.Occupant
	transitions []policy.Transition

	// Telemetry
	runID         string
	logStats      bool
	onStats       func(telemetry.WindowStats)
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager

	// State
	tick       int32
	simTime    float64
	nextID     uint32
	numBoids   int
	numEnemies int
	totalEaten int
	totalDied  int

	// Per-frame counters copied into FrameResult
	frameEaten int
	frameDied  int
}

// NewGame validates cfg and builds a seeded world.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("creating game: %w", err)
	}

	index, err := systems.NewSpatialIndex(cfg.Grid.CellSize)
	if err != nil {
		return nil, fmt.Errorf("creating spatial index: %w: %v", config.ErrInvalid, err)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	world := ecs.NewWorld()

	g := &Game{
		cfg:   cfg,
		rng:   rng,
		world: world,
		boidMapper: ecs.NewMap7[
			components.Position,
			components.Velocity,
			components.Acceleration,
			components.Limits,
			components.Agent,
			components.Life,
			components.Decision,
		](world),
		enemyMapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Acceleration,
			components.Limits,
			components.Agent,
		](world),
		boidFilter: ecs.NewFilter7[
			components.Position,
			components.Velocity,
			components.Acceleration,
			components.Limits,
			components.Agent,
			components.Life,
			components.Decision,
		](world),
		kinFilter: ecs.NewFilter5[
			components.Position,
			components.Velocity,
			components.Acceleration,
			components.Limits,
			components.Agent,
		](world),
		index:         index,
		field:         systems.NewResourceField(cfg.World.Width, cfg.World.Height, rng),
		bounds:        systems.Bounds{Width: cfg.World.Width, Height: cfg.World.Height},
		life:          systems.LifeParamsFrom(cfg),
		weights:       weightsFrom(cfg),
		contactRadius: cfg.Steering.ContactRadius,
		contactWeight: cfg.Steering.ContactWeight,
		interval:      max(cfg.Policy.DecisionInterval, 1),
		runID:         opts.RunID,
		logStats:      opts.LogStats,
		onStats:       opts.OnStats,
		nextID:        1,
	}

	g.policy = opts.Policy
	if g.policy == nil {
		p, err := policy.FromConfig(context.Background(), cfg, opts.Store, rng)
		if err != nil {
			return nil, err
		}
		g.policy = p
	}

	frameDT := cfg.Derived.FrameDT
	if frameDT <= 0 {
		frameDT = 1.0 / 60.0
	}
	g.collector = telemetry.NewCollector(g.runID, cfg.Telemetry.StatsWindow, frameDT)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	om, err := telemetry.NewOutputManager(opts.OutputDir, g.runID)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		_ = om.Close()
		return nil, err
	}
	g.outputManager = om

	g.seed()
	return g, nil
}

func weightsFrom(cfg *config.Config) systems.Weights {
	s := cfg.Steering
	return systems.Weights{
		AlignRadius:      s.AlignRadius,
		CohesionRadius:   s.CohesionRadius,
		SeparationRadius: s.SeparationRadius,
		Align:            s.AlignWeight,
		Cohesion:         s.CohesionWeight,
		Separation:       s.SeparationWeight,
	}
}

// Close waits for background training and closes telemetry output.
func (g *Game) Close() error {
	if w, ok := g.policy.(interface{ Wait() }); ok {
		w.Wait()
	}
	return g.outputManager.Close()
}

// Tick returns the number of completed steps.
func (g *Game) Tick() int32 {
	return g.tick
}

// SimTime returns the simulated seconds elapsed.
func (g *Game) SimTime() float64 {
	return g.simTime
}

// Config returns the simulation config.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// Policy returns the active decision policy.
func (g *Game) Policy() policy.Policy {
	return g.policy
}

// BoidCount returns the number of boids in the world, dead ones awaiting cleanup included.
func (g *Game) BoidCount() int {
	return g.numBoids
}

// EnemyCount returns the number of enemies.
func (g *Game) EnemyCount() int {
	return g.numEnemies
}

// ResourceCount returns the number of resource points.
func (g *Game) ResourceCount() int {
	return g.field.Len()
}

// Totals returns cumulative meals and deaths.
func (g *Game) Totals() (eaten, died int) {
	return g.totalEaten, g.totalDied
}

// TrainStats returns learned policy counters, or zeros for other policies.
func (g *Game) TrainStats() policy.TrainStats {
	if lp, ok := g.policy.(interface{ TrainStats() policy.TrainStats }); ok {
		return lp.TrainStats()
	}
	return policy.TrainStats{}
}

// PerfStats returns step timing over the recent window.
func (g *Game) PerfStats() telemetry.PerfStats {
	return g.perfCollector.Stats()
}

// RecordFrame records a rendered frame for FPS tracking.
func (g *Game) RecordFrame() {
	g.perfCollector.RecordFrame()
}
