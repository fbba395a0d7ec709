package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// BoidColor maps a boid's color value (the green channel) to a fill color.
func BoidColor(green float64) rl.Color {
	g := math.Max(0, math.Min(255, green))
	return rl.Color{R: 100, G: uint8(g), B: 100, A: 255}
}

// drawHeading draws a triangle pointing along (vx, vy).
func drawHeading(center rl.Vector2, vx, vy float64, size float32, color rl.Color) {
	heading := math.Atan2(vy, vx)
	if vx == 0 && vy == 0 {
		heading = -math.Pi / 2
	}
	cos, sin := float32(math.Cos(heading)), float32(math.Sin(heading))

	tip := rl.Vector2{X: center.X + cos*size*1.4, Y: center.Y + sin*size*1.4}
	left := rl.Vector2{X: center.X - cos*size + sin*size*0.8, Y: center.Y - sin*size - cos*size*0.8}
	right := rl.Vector2{X: center.X - cos*size - sin*size*0.8, Y: center.Y - sin*size + cos*size*0.8}

	// raylib wants counter-clockwise winding
	rl.DrawTriangle(tip, left, right, color)
	rl.DrawTriangleLines(tip, left, right, colorOutline)
}
