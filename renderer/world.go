// Package renderer draws simulation frames with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/camera"
	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/game"
)

const (
	boidRadius     = 7
	enemyRadius    = 9
	resourceRadius = 3
	velocityScale  = 6 // pixels per unit of speed
	linkRadius     = 100
)

var (
	colorBackground = rl.Color{R: 12, G: 18, B: 28, A: 255}
	colorGrid       = rl.Color{R: 30, G: 40, B: 55, A: 255}
	colorLink       = rl.Color{R: 255, G: 255, B: 255, A: 60}
	colorOutline    = rl.Color{R: 200, G: 200, B: 200, A: 255}
	colorEnemy      = rl.Color{R: 220, G: 60, B: 60, A: 255}
	colorResource   = rl.Color{R: 230, G: 210, B: 90, A: 255}
	colorVelocity   = rl.Color{R: 90, G: 160, B: 255, A: 200}
	colorEating     = rl.Color{R: 255, G: 255, B: 160, A: 255}
)

// Layers selects the optional layers drawn with a frame.
type Layers struct {
	Grid     bool
	Links    bool
	Velocity bool
	Radii    bool
}

// WorldRenderer draws agents and resources through a camera.
type WorldRenderer struct {
	cam      *camera.Camera
	cellSize float64
	radii    []float64
}

// NewWorldRenderer creates a renderer. cellSize is the spatial grid cell
// and radii are the steering perception radii shown by the radii layer.
func NewWorldRenderer(cam *camera.Camera, cellSize float64, radii ...float64) *WorldRenderer {
	return &WorldRenderer{cam: cam, cellSize: cellSize, radii: radii}
}

// ToScreen converts world coordinates to screen coordinates.
func (r *WorldRenderer) ToScreen(x, y float64) (float32, float32) {
	return r.cam.WorldToScreen(float32(x), float32(y))
}

// Draw renders one frame. Call between rl.BeginDrawing and rl.EndDrawing.
func (r *WorldRenderer) Draw(frame game.FrameResult, layers Layers) {
	rl.ClearBackground(rl.Black)
	x0, y0 := r.ToScreen(0, 0)
	x1, y1 := r.ToScreen(frame.Width, frame.Height)
	rl.DrawRectangle(int32(x0), int32(y0), int32(x1-x0), int32(y1-y0), colorBackground)

	if layers.Grid {
		r.drawGrid(frame.Width, frame.Height)
	}

	for _, p := range frame.Resources {
		if !r.cam.IsVisible(float32(p.Pos.X), float32(p.Pos.Y), resourceRadius) {
			continue
		}
		sx, sy := r.ToScreen(p.Pos.X, p.Pos.Y)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r.cam.Scale(resourceRadius), colorResource)
	}

	boids := frame.Boids()
	if layers.Links {
		r.drawLinks(boids)
	}

	for _, a := range frame.Agents {
		if !r.cam.IsVisible(float32(a.Pos.X), float32(a.Pos.Y), enemyRadius) {
			continue
		}
		r.drawAgent(a, layers)
	}
}

func (r *WorldRenderer) drawGrid(width, height float64) {
	if r.cellSize <= 0 {
		return
	}
	for x := 0.0; x <= width; x += r.cellSize {
		sx0, sy0 := r.ToScreen(x, 0)
		sx1, sy1 := r.ToScreen(x, height)
		rl.DrawLineV(rl.Vector2{X: sx0, Y: sy0}, rl.Vector2{X: sx1, Y: sy1}, colorGrid)
	}
	for y := 0.0; y <= height; y += r.cellSize {
		sx0, sy0 := r.ToScreen(0, y)
		sx1, sy1 := r.ToScreen(width, y)
		rl.DrawLineV(rl.Vector2{X: sx0, Y: sy0}, rl.Vector2{X: sx1, Y: sy1}, colorGrid)
	}
}

// drawLinks connects boids closer than linkRadius.
func (r *WorldRenderer) drawLinks(boids []game.AgentSnapshot) {
	const r2 = linkRadius * linkRadius
	for i := range boids {
		a := boids[i].Pos
		for j := i + 1; j < len(boids); j++ {
			b := boids[j].Pos
			dx, dy := a.X-b.X, a.Y-b.Y
			if dx*dx+dy*dy >= r2 {
				continue
			}
			ax, ay := r.ToScreen(a.X, a.Y)
			bx, by := r.ToScreen(b.X, b.Y)
			rl.DrawLineV(rl.Vector2{X: ax, Y: ay}, rl.Vector2{X: bx, Y: by}, colorLink)
		}
	}
}

func (r *WorldRenderer) drawAgent(a game.AgentSnapshot, layers Layers) {
	sx, sy := r.ToScreen(a.Pos.X, a.Pos.Y)
	center := rl.Vector2{X: sx, Y: sy}

	if a.Class == components.ClassEnemy {
		drawHeading(center, a.Vel.X, a.Vel.Y, r.cam.Scale(enemyRadius), colorEnemy)
	} else {
		rad := r.cam.Scale(boidRadius)
		rl.DrawCircleV(center, rad, BoidColor(a.Color))
		outline := colorOutline
		if a.Eating {
			outline = colorEating
		}
		rl.DrawCircleLinesV(center, rad, outline)
	}

	if layers.Velocity {
		end := rl.Vector2{
			X: sx + float32(a.Vel.X)*r.cam.Scale(velocityScale),
			Y: sy + float32(a.Vel.Y)*r.cam.Scale(velocityScale),
		}
		rl.DrawLineV(center, end, colorVelocity)
	}

	if layers.Radii && a.Class == components.ClassBoid {
		for _, rad := range r.radii {
			rl.DrawCircleLinesV(center, r.cam.Scale(float32(rad)), colorGrid)
		}
	}
}
