package game

import (
	"log/slog"

	"github.com/pthm-cable/shoal/telemetry"
)

// flushTelemetry closes the stats window when it is due.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	train := g.TrainStats()
	stats := g.collector.Flush(g.tick, g.population(), telemetry.TrainCounters{
		Fits:    train.Fits,
		Dropped: train.Dropped,
		Failed:  train.Failed,
	})
	perfStats := g.perfCollector.Stats()

	if g.onStats != nil {
		g.onStats(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// population samples the census and life distribution of living boids.
func (g *Game) population() telemetry.Population {
	pop := telemetry.Population{
		Enemies:   g.numEnemies,
		Resources: g.field.Len(),
		Lives:     make([]float64, 0, g.numBoids),
	}

	query := g.boidFilter.Query()
	for query.Next() {
		_, _, _, _, _, life, _ := query.Get()
		if life.Alive {
			pop.Lives = append(pop.Lives, float64(life.Value))
		}
	}
	pop.Boids = len(pop.Lives)
	return pop
}
