package policy

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/neural"
)

// Model is the trainable value function behind LearnedPolicy.
// Published models are only read; Fit is called on a Clone.
type Model interface {
	Predict(state []float64) []float64
	Fit(state, target []float64, lr float64) error
	Clone() Model
}

// WeightLoader loads named network weights. found is false when nothing is stored.
type WeightLoader interface {
	LoadWeights(ctx context.Context, name string) (w neural.Weights, found bool, err error)
}

// WeightSaver persists named network weights.
type WeightSaver interface {
	SaveWeights(ctx context.Context, name string, w neural.Weights) error
}

// WeightStore both loads and saves weights.
type WeightStore interface {
	WeightLoader
	WeightSaver
}

// NetModel adapts a feedforward network to Model.
type NetModel struct {
	nn *neural.FFNN
}

// NewNetModel wraps nn.
func NewNetModel(nn *neural.FFNN) *NetModel {
	return &NetModel{nn: nn}
}

func (m *NetModel) Predict(state []float64) []float64 { return m.nn.Forward(state) }

func (m *NetModel) Fit(state, target []float64, lr float64) error {
	return m.nn.Fit(state, target, lr)
}

func (m *NetModel) Clone() Model { return &NetModel{nn: m.nn.Clone()} }

// Weights returns the serializable network weights.
func (m *NetModel) Weights() neural.Weights { return m.nn.MarshalWeights() }

// Sizes returns the network layer sizes.
func (m *NetModel) Sizes() []int { return m.nn.Sizes() }

// Architecture returns the network layer sizes for the given hidden layers:
// observation width in, one output per push action.
func Architecture(hidden []int) []int {
	sizes := make([]int, 0, len(hidden)+2)
	sizes = append(sizes, components.StateSize)
	sizes = append(sizes, hidden...)
	return append(sizes, NumActions)
}

// DefaultHidden is the hidden layout used when none is configured.
var DefaultHidden = []int{24, 24}

// LoadOrCreate returns the stored network called name when one exists with
// the expected architecture, and a freshly initialized one otherwise.
// Load problems are logged, never returned.
func LoadOrCreate(ctx context.Context, loader WeightLoader, name string, rng *rand.Rand, hidden []int) (*NetModel, error) {
	if len(hidden) == 0 {
		hidden = DefaultHidden
	}
	sizes := Architecture(hidden)

	if loader != nil {
		w, found, err := loader.LoadWeights(ctx, name)
		switch {
		case err != nil:
			slog.Warn("loading policy weights failed, starting fresh", "name", name, "err", err)
		case !found:
			slog.Info("no stored policy weights, starting fresh", "name", name)
		default:
			nn, err := neural.UnmarshalWeights(w)
			if err == nil && nn.SameShape(sizes) {
				slog.Info("loaded policy weights", "name", name, "sizes", sizes)
				return NewNetModel(nn), nil
			}
			slog.Warn("stored policy weights unusable, starting fresh", "name", name, "stored", w.Sizes, "want", sizes, "err", err)
		}
	}

	nn, err := neural.NewFFNN(rng, sizes...)
	if err != nil {
		return nil, err
	}
	return NewNetModel(nn), nil
}
