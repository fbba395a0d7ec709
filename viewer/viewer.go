// Package viewer runs the interactive window around a game driver.
package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/camera"
	"github.com/pthm-cable/shoal/game"
	"github.com/pthm-cable/shoal/renderer"
	"github.com/pthm-cable/shoal/telemetry"
	"github.com/pthm-cable/shoal/ui"
)

const (
	panelWidth = 220
	controls   = "SPACE pause | , . speed | N step | F spawn | click select | right-click add boid | shift+right-click add enemy | TAB panel"
)

// Options configures a viewer.
type Options struct {
	Title    string
	MaxTicks int
	Steps    int

	// OnFrame is called with every stepped frame (e.g. a stream hub).
	OnFrame func(game.FrameResult)
}

// Viewer owns the window state: camera, panels and pause/speed controls.
type Viewer struct {
	driver *game.Driver
	opts   Options

	cam      *camera.Camera
	world    *renderer.WorldRenderer
	hud      *ui.HUD
	perf     *ui.PerfPanel
	controls *ui.ControlsPanel
	overlays *ui.OverlayRegistry
	inspect  *ui.Inspector
	history  *ui.HistoryPanel

	state        ui.ControlState
	frame        game.FrameResult
	screenWidth  float32
	screenHeight float32
}

// New creates a viewer. The raylib window must already be open.
func New(driver *game.Driver, opts Options) *Viewer {
	cfg := driver.Game.Config()
	w, h := float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())
	if opts.Steps < 1 {
		opts.Steps = 1
	}

	cam := camera.New(w, h, float32(cfg.World.Width), float32(cfg.World.Height))
	s := cfg.Steering
	v := &Viewer{
		driver:       driver,
		opts:         opts,
		cam:          cam,
		world:        renderer.NewWorldRenderer(cam, cfg.Grid.CellSize, s.AlignRadius, s.SeparationRadius),
		hud:          ui.NewHUD(),
		perf:         ui.NewPerfPanel(10, 130),
		controls:     ui.NewControlsPanel(int32(w)-panelWidth-10, 10, panelWidth),
		overlays:     ui.NewOverlayRegistry(),
		inspect:      ui.NewInspector(int32(w)-panelWidth-10, int32(h)-200, panelWidth),
		history:      ui.NewHistoryPanel(10, int32(h)-190, 420, 150),
		state:        ui.ControlState{StepsPerUpdate: opts.Steps},
		frame:        driver.Game.Snapshot(),
		screenWidth:  w,
		screenHeight: h,
	}
	return v
}

// RecordStats feeds a telemetry window into the population graph.
// Pass it as game.Options.OnStats.
func (v *Viewer) RecordStats(s telemetry.WindowStats) {
	v.history.Record(s)
}

// Run loops until the window closes or MaxTicks is reached.
func (v *Viewer) Run() {
	for !rl.WindowShouldClose() {
		v.Update()
		v.Draw()

		if v.opts.MaxTicks > 0 && int(v.driver.Game.Tick()) >= v.opts.MaxTicks {
			return
		}
	}
}

// Update handles input and steps the simulation.
func (v *Viewer) Update() {
	step := v.handleInput()

	v.driver.SpawnOff = v.state.SpawnOff
	v.driver.DecayOff = v.state.DecayOff

	if v.state.Paused && !step {
		return
	}
	n := v.state.StepsPerUpdate
	if step {
		n = 1
	}
	for i := 0; i < n; i++ {
		v.stepOnce()
	}
}

func (v *Viewer) stepOnce() {
	v.frame = v.driver.Step()
	if v.opts.OnFrame != nil {
		v.opts.OnFrame(v.frame)
	}
}

// Draw renders the world and panels.
func (v *Viewer) Draw() {
	rl.BeginDrawing()
	defer rl.EndDrawing()

	v.world.Draw(v.frame, renderer.Layers{
		Grid:     v.overlays.IsEnabled(ui.OverlayGrid),
		Links:    v.overlays.IsEnabled(ui.OverlayVisionLinks),
		Velocity: v.overlays.IsEnabled(ui.OverlayVelocity),
		Radii:    v.overlays.IsEnabled(ui.OverlayRadii),
	})
	v.inspect.DrawHighlight(v.frame, v.world.ToScreen, v.cam.Scale(14))

	g := v.driver.Game
	eaten, died := g.Totals()
	train := g.TrainStats()
	v.hud.Draw(ui.HUDData{
		Title:     v.opts.Title,
		Policy:    g.Config().Policy.Kind,
		Boids:     g.BoidCount(),
		Enemies:   g.EnemyCount(),
		Resources: g.ResourceCount(),
		Eaten:     eaten,
		Died:      died,
		Tick:      g.Tick(),
		SimTime:   g.SimTime(),
		Speed:     v.state.StepsPerUpdate,
		FPS:       rl.GetFPS(),
		Paused:    v.state.Paused,
		Training:  v.training(),
		Fits:      train.Fits,
		Dropped:   train.Dropped,
	})
	v.perf.Draw(g.PerfStats())

	actions := v.controls.Draw(&v.state, v.overlays)
	v.applyActions(actions)

	v.inspect.Draw(v.frame, g.Config().Life.Initial)
	if v.overlays.IsEnabled(ui.OverlayHistory) {
		v.history.Draw()
	}
	v.hud.DrawControls(int32(v.screenHeight), controls)

	g.RecordFrame()
}

func (v *Viewer) training() bool {
	if t, ok := v.driver.Game.Policy().(interface{ Training() bool }); ok {
		return t.Training()
	}
	return false
}

func (v *Viewer) applyActions(a ui.ControlActions) {
	if a.SpawnNow {
		v.driver.Game.RequestSpawn(v.driver.Game.Config().Resource.SpawnCount)
	}
	if a.DecayNow {
		v.driver.Game.RequestDecay()
	}
	if a.Step && v.state.Paused {
		v.stepOnce()
	}
}
