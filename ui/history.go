package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/telemetry"
)

const (
	// ~20 minutes at 10s windows
	historySize = 120

	seriesBoids     = 0
	seriesEnemies   = 1
	seriesResources = 2
	seriesLifeMean  = 3
	numSeries       = 4
)

var (
	colorGraphBg     = rl.Color{R: 15, G: 15, B: 25, A: 255}
	colorGraphGrid   = rl.Color{R: 40, G: 40, B: 50, A: 255}
	colorGraphBorder = rl.Color{R: 60, G: 60, B: 70, A: 255}

	seriesNames  = [numSeries]string{"Boids", "Enemies", "Food", "Life"}
	seriesColors = [numSeries]rl.Color{
		{R: 100, G: 200, B: 120, A: 255},
		{R: 230, G: 90, B: 80, A: 255},
		{R: 220, G: 200, B: 90, A: 255},
		{R: 120, G: 170, B: 240, A: 255},
	}
)

// HistoryPanel plots population per telemetry window.
type HistoryPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	height   int32

	history [numSeries][historySize]float64
	index   int
	count   int
	visible [numSeries]bool
}

// NewHistoryPanel creates a history panel.
func NewHistoryPanel(x, y, width, height int32) *HistoryPanel {
	p := &HistoryPanel{renderer: NewRenderer(), x: x, y: y, width: width, height: height}
	for i := range p.visible {
		p.visible[i] = true
	}
	return p
}

// SetPosition updates the panel position.
func (p *HistoryPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Record appends one window of stats.
func (p *HistoryPanel) Record(s telemetry.WindowStats) {
	p.history[seriesBoids][p.index] = float64(s.BoidCount)
	p.history[seriesEnemies][p.index] = float64(s.EnemyCount)
	p.history[seriesResources][p.index] = float64(s.ResourceCount)
	p.history[seriesLifeMean][p.index] = s.LifeMean

	p.index = (p.index + 1) % historySize
	if p.count < historySize {
		p.count++
	}
}

// HandleInput toggles series when their legend entry is clicked.
func (p *HistoryPanel) HandleInput() {
	if !rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		return
	}
	mx, my := rl.GetMouseX(), rl.GetMouseY()
	legendY := p.y + p.height - 22
	for i := 0; i < numSeries; i++ {
		itemX := p.x + 10 + int32(i)*80
		if mx >= itemX && mx < itemX+75 && my >= legendY && my < legendY+18 {
			p.visible[i] = !p.visible[i]
			return
		}
	}
}

// Draw renders the graph and legend.
func (p *HistoryPanel) Draw() {
	p.renderer.DrawPanel(p.x, p.y, p.width, p.height)
	rl.DrawText("POPULATION", p.x+10, p.y+6, 14, rl.White)

	if p.count == 0 {
		rl.DrawText("Waiting for data...", p.x+100, p.y+p.height/2-7, 14, ColorTextDim)
		return
	}

	gx, gy := p.x+10, p.y+24
	gw, gh := p.width-20, p.height-52
	rl.DrawRectangle(gx, gy, gw, gh, colorGraphBg)
	rl.DrawRectangleLines(gx, gy, gw, gh, colorGraphBorder)
	for i := int32(1); i < 4; i++ {
		rl.DrawLine(gx, gy+gh*i/4, gx+gw, gy+gh*i/4, colorGraphGrid)
	}

	lo, hi := p.seriesRange()
	for s := 0; s < numSeries; s++ {
		if p.visible[s] {
			p.drawSeries(gx, gy, gw, gh, s, lo, hi)
		}
	}
	rl.DrawText(formatCount(float32(hi)), gx+4, gy+2, 10, ColorTextDim)
	rl.DrawText(formatCount(float32(lo)), gx+4, gy+gh-12, 10, ColorTextDim)

	p.drawLegend(p.x+10, p.y+p.height-22)
}

func (p *HistoryPanel) at(series, i int) float64 {
	idx := (p.index - p.count + i + historySize) % historySize
	return p.history[series][idx]
}

// seriesRange returns a padded shared range over visible series.
func (p *HistoryPanel) seriesRange() (lo, hi float64) {
	lo, hi = math.MaxFloat64, -math.MaxFloat64
	seen := false
	for s := 0; s < numSeries; s++ {
		if !p.visible[s] {
			continue
		}
		seen = true
		for i := 0; i < p.count; i++ {
			v := p.at(s, i)
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	if !seen || lo >= hi {
		return 0, max(hi, 1)
	}
	pad := (hi - lo) * 0.1
	return max(lo-pad, 0), hi + pad
}

func (p *HistoryPanel) drawSeries(x, y, w, h int32, series int, lo, hi float64) {
	if p.count < 2 {
		return
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	var prevX, prevY int32
	for i := 0; i < p.count; i++ {
		px := x + int32(float64(i)*float64(w)/float64(p.count-1))
		py := y + h - int32((p.at(series, i)-lo)/span*float64(h))
		py = max(y, min(py, y+h))
		if i > 0 {
			rl.DrawLine(prevX, prevY, px, py, seriesColors[series])
		}
		prevX, prevY = px, py
	}
}

func (p *HistoryPanel) drawLegend(x, y int32) {
	for i := 0; i < numSeries; i++ {
		itemX := x + int32(i)*80
		color := seriesColors[i]
		if !p.visible[i] {
			color = ColorTextDim
		}
		rl.DrawRectangle(itemX, y+4, 10, 10, color)
		rl.DrawText(seriesNames[i], itemX+14, y+2, 12, color)
	}
}

func formatCount(v float32) string {
	if v >= 1000 {
		return fmt.Sprintf("%.1fk", v/1000)
	}
	return fmt.Sprintf("%.0f", v)
}
