package main

import (
	"fmt"
	"math"
	"sync"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/game"
)

// Fitness weights. Survival dominates; meals break ties between configs
// that keep the same number of boids alive.
const (
	survivalWeight = 1.0
	mealWeight     = 0.2
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int32
	seeds      []int64
	baseConfig *config.Config

	mu   sync.Mutex
	last runResult // averaged over seeds, most recent Evaluate
}

// runResult holds the outcome of one simulation run.
type runResult struct {
	survival float64 // mean fraction of the initial boids alive per tick
	meals    float64 // meals per initial boid
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// Last returns the seed-averaged result of the most recent evaluation.
func (fe *FitnessEvaluator) Last() (survival, meals float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last.survival, fe.last.meals
}

// Evaluate computes fitness for raw parameter values (lower = better).
// Invalid parameter sets score +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return math.Inf(1)
	}

	// Run all seeds in parallel
	results := make([]runResult, len(fe.seeds))
	errs := make([]error, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx], errs[idx] = fe.runSimulation(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	var avg runResult
	for i, r := range results {
		if errs[i] != nil {
			return math.Inf(1)
		}
		avg.survival += r.survival
		avg.meals += r.meals
	}
	n := float64(len(fe.seeds))
	avg.survival /= n
	avg.meals /= n

	fe.mu.Lock()
	fe.last = avg
	fe.mu.Unlock()

	return computeFitness(avg)
}

func computeFitness(r runResult) float64 {
	return -(survivalWeight*r.survival + mealWeight*r.meals)
}

// runSimulation executes a single headless run. It stops early when every
// boid has died. cfg is shared between seeds and must not be modified.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) (runResult, error) {
	g, err := game.NewGame(cfg, game.Options{Seed: seed})
	if err != nil {
		return runResult{}, fmt.Errorf("creating game: %w", err)
	}
	defer g.Close()

	initial := float64(max(cfg.Boid.Count, 1))
	d := game.NewDriver(g)

	var alive float64
	for g.Tick() < fe.maxTicks {
		frame := d.Step()
		n := len(frame.Boids())
		alive += float64(n)
		if n == 0 {
			break
		}
	}

	eaten, _ := g.Totals()
	return runResult{
		survival: alive / (initial * float64(fe.maxTicks)),
		meals:    float64(eaten) / initial,
	}, nil
}

// copyConfig returns a copy of the base config that may be modified freely.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Policy.HiddenLayers = append([]int(nil), fe.baseConfig.Policy.HiddenLayers...)
	return &cfg
}
