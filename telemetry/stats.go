// Package telemetry provides windowed simulation statistics, phase timing,
// and CSV output.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	RunID           string  `csv:"run_id"`
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	BoidCount     int `csv:"boids"`
	EnemyCount    int `csv:"enemies"`
	ResourceCount int `csv:"resources"`

	// Events during window
	Spawned    int `csv:"spawned"`
	Eaten      int `csv:"eaten"`
	CappedMeal int `csv:"capped_meals"`
	Deaths     int `csv:"deaths"`
	DecayTicks int `csv:"decay_ticks"`

	// Life distribution (sampled at window end)
	LifeMean float64 `csv:"life_mean"`
	LifeStd  float64 `csv:"life_std"`
	LifeP10  float64 `csv:"life_p10"`
	LifeP50  float64 `csv:"life_p50"`
	LifeP90  float64 `csv:"life_p90"`

	// Learned policy counters (cumulative)
	TrainFits    int64 `csv:"train_fits"`
	TrainDropped int64 `csv:"train_dropped"`
	TrainFailed  int64 `csv:"train_failed"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeLifeStats calculates mean, std, and percentiles from life values.
func ComputeLifeStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	if n > 1 {
		std = stat.PopStdDev(values, nil)
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", s.RunID),
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("boids", s.BoidCount),
		slog.Int("enemies", s.EnemyCount),
		slog.Int("resources", s.ResourceCount),
		slog.Int("spawned", s.Spawned),
		slog.Int("eaten", s.Eaten),
		slog.Int("capped_meals", s.CappedMeal),
		slog.Int("deaths", s.Deaths),
		slog.Int("decay_ticks", s.DecayTicks),
		slog.Float64("life_mean", s.LifeMean),
		slog.Float64("life_std", s.LifeStd),
		slog.Float64("life_p10", s.LifeP10),
		slog.Float64("life_p50", s.LifeP50),
		slog.Float64("life_p90", s.LifeP90),
		slog.Int64("train_fits", s.TrainFits),
		slog.Int64("train_dropped", s.TrainDropped),
		slog.Int64("train_failed", s.TrainFailed),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
