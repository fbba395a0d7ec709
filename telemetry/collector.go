package telemetry

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	runID               string
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	spawned    int
	eaten      int
	cappedMeal int
	deaths     int
	decayTicks int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(runID string, windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		runID:               runID,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordSpawn records resource points added.
func (c *Collector) RecordSpawn(n int) {
	c.spawned += n
}

// RecordMeal records a consumed resource. grew is false when the soft cap
// refused the life gain.
func (c *Collector) RecordMeal(grew bool) {
	c.eaten++
	if !grew {
		c.cappedMeal++
	}
}

// RecordDeath records a boid removal.
func (c *Collector) RecordDeath() {
	c.deaths++
}

// RecordDecay records an applied decay tick.
func (c *Collector) RecordDecay() {
	c.decayTicks++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Population holds the end-of-window census the game hands to Flush.
type Population struct {
	Boids     int
	Enemies   int
	Resources int
	Lives     []float64
}

// TrainCounters holds cumulative learned-policy counters.
type TrainCounters struct {
	Fits, Dropped, Failed int64
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, pop Population, train TrainCounters) WindowStats {
	mean, std, p10, p50, p90 := ComputeLifeStats(pop.Lives)

	stats := WindowStats{
		RunID:           c.runID,
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		BoidCount:     pop.Boids,
		EnemyCount:    pop.Enemies,
		ResourceCount: pop.Resources,

		Spawned:    c.spawned,
		Eaten:      c.eaten,
		CappedMeal: c.cappedMeal,
		Deaths:     c.deaths,
		DecayTicks: c.decayTicks,

		LifeMean: mean,
		LifeStd:  std,
		LifeP10:  p10,
		LifeP50:  p50,
		LifeP90:  p90,

		TrainFits:    train.Fits,
		TrainDropped: train.Dropped,
		TrainFailed:  train.Failed,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.spawned = 0
	c.eaten = 0
	c.cappedMeal = 0
	c.deaths = 0
	c.decayTicks = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
