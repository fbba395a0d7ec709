package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ResourcePoint is a consumable food location.
type ResourcePoint struct {
	ID  uint64 `json:"id"`
	Pos r2.Vec `json:"pos"`
}

// ResourceField holds the transient set of food points.
// Points are removed exactly once, by Consume.
type ResourceField struct {
	width, height float64
	points        []ResourcePoint
	nextID        uint64
	rng           RNG
}

// NewResourceField creates an empty field covering [0,width) x [0,height).
func NewResourceField(width, height float64, rng RNG) *ResourceField {
	return &ResourceField{
		width:  width,
		height: height,
		rng:    rng,
		nextID: 1,
	}
}

// SpawnBatch adds n points at uniform random positions and returns them.
func (f *ResourceField) SpawnBatch(n int) []ResourcePoint {
	if n <= 0 {
		return nil
	}
	start := len(f.points)
	for i := 0; i < n; i++ {
		f.Add(r2.Vec{X: f.rng.Float64() * f.width, Y: f.rng.Float64() * f.height})
	}
	out := make([]ResourcePoint, n)
	copy(out, f.points[start:])
	return out
}

// Add places a point at pos.
func (f *ResourceField) Add(pos r2.Vec) ResourcePoint {
	p := ResourcePoint{ID: f.nextID, Pos: pos}
	f.nextID++
	f.points = append(f.points, p)
	return p
}

// NearestTo returns the closest point to pos and its distance.
// ok is false when the field is empty.
func (f *ResourceField) NearestTo(pos r2.Vec) (p ResourcePoint, dist float64, ok bool) {
	best := math.Inf(1)
	for _, candidate := range f.points {
		d2 := r2.Norm2(r2.Sub(candidate.Pos, pos))
		if d2 < best {
			best = d2
			p = candidate
			ok = true
		}
	}
	if !ok {
		return ResourcePoint{}, 0, false
	}
	return p, math.Sqrt(best), true
}

// Consume removes the point with the given ID.
// Returns false if the point was already consumed.
func (f *ResourceField) Consume(id uint64) bool {
	for i, p := range f.points {
		if p.ID == id {
			f.points = append(f.points[:i], f.points[i+1:]...)
			return true
		}
	}
	return false
}

// Points returns a copy of the current points.
func (f *ResourceField) Points() []ResourcePoint {
	out := make([]ResourcePoint, len(f.points))
	copy(out, f.points)
	return out
}

// Len returns the number of live points.
func (f *ResourceField) Len() int {
	return len(f.points)
}

// Bounds returns the field dimensions.
func (f *ResourceField) Bounds() (width, height float64) {
	return f.width, f.height
}
