package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeLifeStats(t *testing.T) {
	values := []float64{100, 90, 80, 70, 60, 50, 40, 30, 20, 10}
	mean, std, p10, p50, p90 := ComputeLifeStats(values)

	if math.Abs(mean-55) > 0.001 {
		t.Errorf("mean = %v, want 55", mean)
	}
	if math.Abs(std-28.7228) > 0.01 {
		t.Errorf("std = %v, want ~28.72", std)
	}
	if math.Abs(p10-19) > 0.01 {
		t.Errorf("p10 = %v, want 19", p10)
	}
	if math.Abs(p50-55) > 0.01 {
		t.Errorf("p50 = %v, want 55", p50)
	}
	if math.Abs(p90-91) > 0.01 {
		t.Errorf("p90 = %v, want 91", p90)
	}
	// Input must stay unsorted
	if values[0] != 100 {
		t.Error("ComputeLifeStats sorted its input in place")
	}
}

func TestComputeLifeStatsEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeLifeStats(nil)

	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestCollector_FlushResets(t *testing.T) {
	c := NewCollector("run", 1.0, 1.0/60)

	if c.WindowDurationTicks() != 60 {
		t.Fatalf("expected 60 ticks per window, got %d", c.WindowDurationTicks())
	}
	if c.ShouldFlush(59) {
		t.Error("should not flush before window end")
	}
	if !c.ShouldFlush(60) {
		t.Error("expected flush at window end")
	}

	c.RecordSpawn(10)
	c.RecordMeal(true)
	c.RecordMeal(false)
	c.RecordDeath()
	c.RecordDecay()

	stats := c.Flush(60, Population{Boids: 3, Resources: 8, Lives: []float64{10, 20, 30}}, TrainCounters{Fits: 4})

	if stats.RunID != "run" || stats.Spawned != 10 || stats.Eaten != 2 || stats.CappedMeal != 1 || stats.Deaths != 1 || stats.DecayTicks != 1 {
		t.Errorf("unexpected window counters: %+v", stats)
	}
	if stats.BoidCount != 3 || stats.ResourceCount != 8 || stats.TrainFits != 4 {
		t.Errorf("unexpected census: %+v", stats)
	}
	if math.Abs(stats.SimTimeSec-1.0) > 1e-9 {
		t.Errorf("expected sim time 1s, got %f", stats.SimTimeSec)
	}

	next := c.Flush(120, Population{}, TrainCounters{})
	if next.Eaten != 0 || next.Spawned != 0 || next.WindowStartTick != 60 {
		t.Errorf("counters not reset after flush: %+v", next)
	}
}
