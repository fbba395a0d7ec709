package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/game"
)

// Inspector tracks one selected agent by ID and shows its state.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32

	selected uint32
	has      bool
}

// NewInspector creates an inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Select picks the agent nearest to (wx, wy) within radius, or clears the
// selection when none is close enough.
func (ins *Inspector) Select(frame game.FrameResult, wx, wy, radius float64) {
	best := radius * radius
	ins.has = false
	for _, a := range frame.Agents {
		dx, dy := a.Pos.X-wx, a.Pos.Y-wy
		if d := dx*dx + dy*dy; d <= best {
			best = d
			ins.selected = a.ID
			ins.has = true
		}
	}
}

// Deselect clears the selection.
func (ins *Inspector) Deselect() {
	ins.has = false
}

// Selected returns the selected agent in frame. A selected boid that died
// is dropped from the selection.
func (ins *Inspector) Selected(frame game.FrameResult) (game.AgentSnapshot, bool) {
	if !ins.has {
		return game.AgentSnapshot{}, false
	}
	for _, a := range frame.Agents {
		if a.ID == ins.selected {
			return a, true
		}
	}
	ins.has = false
	return game.AgentSnapshot{}, false
}

// Draw renders the panel for the selected agent, if any.
func (ins *Inspector) Draw(frame game.FrameResult, maxLife int) {
	a, ok := ins.Selected(frame)
	if !ok {
		return
	}

	r := ins.renderer
	pad := r.Theme.Padding
	height := r.Theme.LineHeight*8 + pad*2
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	x := ins.x + pad
	y := ins.y + pad
	y = r.DrawSectionHeader(x, y, fmt.Sprintf("%s #%d", a.Class, a.ID))
	y = r.DrawLabelValue(x, y, "Position", fmt.Sprintf("%.1f, %.1f", a.Pos.X, a.Pos.Y))
	y = r.DrawLabelValue(x, y, "Speed", fmt.Sprintf("%.2f", math.Hypot(a.Vel.X, a.Vel.Y)))
	y = r.DrawLabelValue(x, y, "Heading", fmt.Sprintf("%.0f deg", math.Atan2(a.Vel.Y, a.Vel.X)*180/math.Pi))

	if a.Class != components.ClassBoid {
		return
	}
	y = r.DrawLevelBar(x, y, "Life", float32(a.Life), float32(maxLife), ins.width-pad*2)
	y = r.DrawLabelValue(x, y, "Color", fmt.Sprintf("%.0f", a.Color))
	eating := "no"
	if a.Eating {
		eating = "yes"
	}
	r.DrawLabelValue(x, y, "Eating", eating)
}

// DrawHighlight circles the selected agent on screen.
func (ins *Inspector) DrawHighlight(frame game.FrameResult, toScreen func(x, y float64) (float32, float32), radius float32) {
	a, ok := ins.Selected(frame)
	if !ok {
		return
	}
	sx, sy := toScreen(a.Pos.X, a.Pos.Y)
	rl.DrawCircleLines(int32(sx), int32(sy), radius, rl.Yellow)
}
