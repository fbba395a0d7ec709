package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlState is the viewer state the controls panel edits in place.
type ControlState struct {
	Paused         bool
	SpawnOff       bool
	DecayOff       bool
	StepsPerUpdate int
}

// ControlActions are one-shot requests raised by the panel this frame.
type ControlActions struct {
	SpawnNow bool
	DecayNow bool
	Step     bool
}

// ControlsPanel renders the right-side controls with overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	h        int32 // height at last draw
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point lies on the panel, so clicks
// there are not forwarded to the world.
func (c *ControlsPanel) Contains(x, y float32) bool {
	if !c.visible {
		return false
	}
	return x >= float32(c.x) && x < float32(c.x+c.width) && y >= float32(c.y) && y < float32(c.y+c.h)
}

func (c *ControlsPanel) height(overlays *OverlayRegistry) int32 {
	rows := int32(9 + len(overlays.All()))
	return rows*26 + c.renderer.Theme.Padding*2
}

// Draw renders the panel and applies toggles to state and overlays.
func (c *ControlsPanel) Draw(state *ControlState, overlays *OverlayRegistry) ControlActions {
	var actions ControlActions
	if !c.visible {
		return actions
	}

	r := c.renderer
	pad := float32(r.Theme.Padding)
	c.h = c.height(overlays)
	r.DrawPanel(c.x, c.y, c.width, c.h)

	x := float32(c.x) + pad
	y := float32(c.y) + pad
	w := float32(c.width) - 2*pad
	half := (w - 6) / 2
	row := func() rl.Rectangle {
		rect := rl.Rectangle{X: x, Y: y, Width: w, Height: 22}
		y += 26
		return rect
	}

	rl.DrawText("Simulation", int32(x), int32(y), r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	y += 20

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 22}, toggleText(state.Paused, "Resume", "Pause")) {
		state.Paused = !state.Paused
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 22}, "Step") {
		actions.Step = true
	}
	y += 26

	if gui.Button(row(), toggleText(state.SpawnOff, "Food spawning: OFF", "Food spawning: ON")) {
		state.SpawnOff = !state.SpawnOff
	}
	if gui.Button(row(), toggleText(state.DecayOff, "Life decay: OFF", "Life decay: ON")) {
		state.DecayOff = !state.DecayOff
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 22}, "Spawn food") {
		actions.SpawnNow = true
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 22}, "Decay now") {
		actions.DecayNow = true
	}
	y += 26

	rl.DrawText(fmt.Sprintf("Steps per update: %d", state.StepsPerUpdate), int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += 16
	steps := gui.SliderBar(rl.Rectangle{X: x + 20, Y: y, Width: w - 40, Height: 16}, "1", "10", float32(state.StepsPerUpdate), 1, 10)
	state.StepsPerUpdate = int(steps + 0.5)
	y += 26

	rl.DrawText("Overlays", int32(x), int32(y), r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	y += 20
	for _, desc := range overlays.All() {
		label := fmt.Sprintf("[%s] %s", desc.KeyLabel, desc.Name)
		if gui.Button(row(), toggleText(overlays.IsEnabled(desc.ID), label+": ON", label+": OFF")) {
			overlays.Toggle(desc.ID)
		}
	}

	return actions
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
