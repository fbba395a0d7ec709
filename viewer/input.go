package viewer

import (
	"math"
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/ui"
)

// selectRadius is the click tolerance in screen pixels.
const selectRadius = 20

// handleInput processes keyboard and mouse input. It returns true when a
// single step was requested while paused.
func (v *Viewer) handleInput() bool {
	v.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		v.state.Paused = !v.state.Paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && v.state.StepsPerUpdate > 1 {
		v.state.StepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && v.state.StepsPerUpdate < 10 {
		v.state.StepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyF) {
		v.driver.Game.RequestSpawn(v.driver.Game.Config().Resource.SpawnCount)
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		v.controls.Toggle()
	}
	if key := rl.GetKeyPressed(); key != 0 {
		v.overlays.HandleKeyPress(key)
	}

	v.handleCameraInput()
	v.handleMouse()

	if v.overlays.IsEnabled(ui.OverlayHistory) {
		v.history.HandleInput()
	}

	return v.state.Paused && rl.IsKeyPressed(rl.KeyN)
}

// handleMouse selects agents with the left button and adds agents with the
// right button. Clicks on the controls panel are left to the panel.
func (v *Viewer) handleMouse() {
	mouse := rl.GetMousePosition()
	if v.controls.Contains(mouse.X, mouse.Y) {
		return
	}
	wx, wy := v.cam.ScreenToWorld(mouse.X, mouse.Y)
	cfg := v.driver.Game.Config()
	if float64(wx) < 0 || float64(wy) < 0 || float64(wx) > cfg.World.Width || float64(wy) > cfg.World.Height {
		return
	}

	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		v.inspect.Select(v.frame, float64(wx), float64(wy), selectRadius/float64(v.cam.Zoom))
	}

	if rl.IsMouseButtonPressed(rl.MouseRightButton) {
		class := components.ClassBoid
		speed := cfg.Boid.InitSpeed
		if rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift) {
			class = components.ClassEnemy
			speed = cfg.Enemy.InitSpeed
		}
		angle := rand.Float64() * 2 * math.Pi
		vel := r2.Vec{X: math.Cos(angle) * speed, Y: math.Sin(angle) * speed}
		v.driver.Game.RequestAgent(class, r2.Vec{X: float64(wx), Y: float64(wy)}, vel)
	}
}

// handleResize propagates window size changes to the camera and panels.
func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == v.screenWidth && h == v.screenHeight {
		return
	}
	v.screenWidth = w
	v.screenHeight = h

	v.cam.Resize(w, h)
	v.controls.SetPosition(int32(w)-panelWidth-10, 10)
	v.inspect.SetPosition(int32(w)-panelWidth-10, int32(h)-200)
	v.history.SetPosition(10, int32(h)-190)
}

// handleCameraInput processes camera pan/zoom controls.
func (v *Viewer) handleCameraInput() {
	// Pan speed scales inversely with zoom for natural feel
	panSpeed := float32(8.0)

	if rl.IsKeyDown(rl.KeyRight) {
		v.cam.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		v.cam.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.cam.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.cam.Pan(0, -panSpeed)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.cam.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		v.cam.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		v.cam.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		v.cam.Reset()
	}
}
