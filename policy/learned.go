package policy

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/neural"
)

// saveTimeout bounds one background weight save.
const saveTimeout = 5 * time.Second

// LearnedConfig holds the learned policy parameters.
type LearnedConfig struct {
	Name         string
	Push         float64
	Epsilon      float64
	Gamma        float64
	LearningRate float64
}

// LearnedConfigFrom extracts the learned policy parameters from cfg.
func LearnedConfigFrom(cfg *config.Config) LearnedConfig {
	return LearnedConfig{
		Name:         cfg.Policy.Name,
		Push:         cfg.Policy.Push,
		Epsilon:      cfg.Policy.Epsilon,
		Gamma:        cfg.Policy.Gamma,
		LearningRate: cfg.Policy.LearningRate,
	}
}

// TrainStats holds cumulative training counters.
type TrainStats struct {
	Fits    int64 // successful fits published
	Dropped int64 // requests skipped while a fit was in flight
	Failed  int64 // fits that returned an error
}

type modelSlot struct{ m Model }

// LearnedPolicy is an epsilon-greedy Q-network controller. Learn computes
// the one-step target on the caller's goroutine and fits a clone of the
// current model in the background; at most one fit is in flight.
type LearnedPolicy struct {
	cfg   LearnedConfig
	rng   *rand.Rand // simulation goroutine only
	saver WeightSaver

	model atomic.Pointer[modelSlot]
	busy  atomic.Bool
	wg    sync.WaitGroup

	fits    atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewLearnedPolicy creates a policy around model. saver may be nil.
func NewLearnedPolicy(model Model, rng *rand.Rand, cfg LearnedConfig, saver WeightSaver) *LearnedPolicy {
	p := &LearnedPolicy{cfg: cfg, rng: rng, saver: saver}
	p.model.Store(&modelSlot{m: model})
	return p
}

// Model returns the currently published model.
func (p *LearnedPolicy) Model() Model {
	return p.model.Load().m
}

func (p *LearnedPolicy) Observe(ctx Context) State { return Observe(ctx) }

// Act picks a random push with probability epsilon, else the greedy one.
func (p *LearnedPolicy) Act(s State) Action {
	if p.rng.Float64() < p.cfg.Epsilon {
		return Action(p.rng.Intn(NumActions))
	}
	return Action(argmax(p.Model().Predict(s[:])))
}

// Apply returns a fixed-magnitude push in the action's direction.
func (p *LearnedPolicy) Apply(_ Context, a Action) r2.Vec {
	return r2.Scale(p.cfg.Push, a.direction())
}

func (p *LearnedPolicy) Reward(o Outcome) float64 { return Reward(o) }

// Learn schedules a single-step Q update for t. The request is dropped when
// a previous fit is still running.
func (p *LearnedPolicy) Learn(t Transition) {
	if t.Action < 0 || int(t.Action) >= NumActions {
		return
	}
	if !p.busy.CompareAndSwap(false, true) {
		p.dropped.Add(1)
		return
	}

	m := p.Model()
	target := append([]float64(nil), m.Predict(t.State[:])...)
	if len(target) != NumActions {
		p.busy.Store(false)
		p.failed.Add(1)
		slog.Warn("policy model output has wrong width", "name", p.cfg.Name, "got", len(target))
		return
	}
	value := t.Reward
	if !t.Done {
		value += p.cfg.Gamma * maxOf(m.Predict(t.Next[:]))
	}
	target[t.Action] = value
	state := t.State

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.busy.Store(false)

		next := m.Clone()
		if err := next.Fit(state[:], target, p.cfg.LearningRate); err != nil {
			p.failed.Add(1)
			slog.Warn("policy fit failed", "name", p.cfg.Name, "err", err)
			return
		}
		p.model.Store(&modelSlot{m: next})
		p.fits.Add(1)
		p.save(next)
	}()
}

func (p *LearnedPolicy) save(m Model) {
	if p.saver == nil {
		return
	}
	wm, ok := m.(interface{ Weights() neural.Weights })
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := p.saver.SaveWeights(ctx, p.cfg.Name, wm.Weights()); err != nil {
		slog.Warn("saving policy weights failed", "name", p.cfg.Name, "err", err)
	}
}

// Wait blocks until any in-flight fit has finished.
func (p *LearnedPolicy) Wait() {
	p.wg.Wait()
}

// Training reports whether a fit is in flight.
func (p *LearnedPolicy) Training() bool {
	return p.busy.Load()
}

// TrainStats returns the cumulative training counters.
func (p *LearnedPolicy) TrainStats() TrainStats {
	return TrainStats{
		Fits:    p.fits.Load(),
		Dropped: p.dropped.Load(),
		Failed:  p.failed.Load(),
	}
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func maxOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return v[argmax(v)]
}
