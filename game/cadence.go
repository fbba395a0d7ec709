package game

// Cadence fires at a fixed simulated-time interval. Hosts use it to feed
// periodic spawn and decay requests into the step.
type Cadence struct {
	interval float64
	elapsed  float64
}

// NewCadence creates a cadence firing every interval seconds.
// A non-positive interval never fires.
func NewCadence(interval float64) *Cadence {
	return &Cadence{interval: interval}
}

// Advance adds dt and returns how many times the cadence fired.
func (c *Cadence) Advance(dt float64) int {
	if c.interval <= 0 {
		return 0
	}
	c.elapsed += dt
	n := 0
	for c.elapsed >= c.interval {
		c.elapsed -= c.interval
		n++
	}
	return n
}

// Reset restarts the interval.
func (c *Cadence) Reset() {
	c.elapsed = 0
}

// Driver steps a Game at a fixed frame time and owns the spawn and decay
// cadences. It is what the window loop, headless runs and the tuner use.
type Driver struct {
	Game    *Game
	FrameDT float64

	spawn *Cadence
	decay *Cadence

	// Disable periodic spawn or decay (viewer toggles)
	SpawnOff bool
	DecayOff bool
}

// NewDriver wraps g with cadences from its config.
func NewDriver(g *Game) *Driver {
	cfg := g.Config()
	dt := cfg.Derived.FrameDT
	if dt <= 0 {
		dt = 1.0 / 60.0
	}
	return &Driver{
		Game:    g,
		FrameDT: dt,
		spawn:   NewCadence(cfg.Resource.SpawnInterval),
		decay:   NewCadence(cfg.Life.DecayInterval),
	}
}

// Step queues any due spawn and decay requests and advances one frame.
func (d *Driver) Step() FrameResult {
	cfg := d.Game.Config()
	for n := d.spawn.Advance(d.FrameDT); n > 0; n-- {
		if !d.SpawnOff {
			d.Game.RequestSpawn(cfg.Resource.SpawnCount)
		}
	}
	for n := d.decay.Advance(d.FrameDT); n > 0; n-- {
		if !d.DecayOff {
			d.Game.RequestDecay()
		}
	}
	return d.Game.Advance(d.FrameDT)
}
