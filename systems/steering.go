package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
)

// Body is the kinematic view of an agent used by steering behaviors.
type Body struct {
	ID       uint32
	Pos      r2.Vec
	Vel      r2.Vec
	MaxSpeed float64
	MaxForce float64
}

// Weights scales the individual flocking behaviors.
type Weights struct {
	AlignRadius      float64
	CohesionRadius   float64
	SeparationRadius float64
	Align            float64
	Cohesion         float64
	Separation       float64
}

// DefaultWeights returns the classic flocking tuning.
func DefaultWeights() Weights {
	return Weights{
		AlignRadius:      100,
		CohesionRadius:   50,
		SeparationRadius: 50,
		Align:            1.0,
		Cohesion:         1.0,
		Separation:       1.5,
	}
}

// steer converts a desired heading into a bounded steering force.
func steer(b Body, desired r2.Vec) r2.Vec {
	desired = SetMag(desired, b.MaxSpeed)
	return Limit(r2.Sub(desired, b.Vel), b.MaxForce)
}

// Alignment steers toward the average velocity of neighbors within radius.
func Alignment(b Body, neighbors []Occupant, radius float64) r2.Vec {
	var sum r2.Vec
	total := 0
	for _, o := range neighbors {
		if o.ID == b.ID {
			continue
		}
		if distance(b.Pos, o.Pos) < radius {
			sum = r2.Add(sum, o.Vel)
			total++
		}
	}
	if total == 0 {
		return r2.Vec{}
	}
	return steer(b, r2.Scale(1/float64(total), sum))
}

// Cohesion steers toward the centroid of neighbors within radius.
func Cohesion(b Body, neighbors []Occupant, radius float64) r2.Vec {
	var sum r2.Vec
	total := 0
	for _, o := range neighbors {
		if o.ID == b.ID {
			continue
		}
		if distance(b.Pos, o.Pos) < radius {
			sum = r2.Add(sum, o.Pos)
			total++
		}
	}
	if total == 0 {
		return r2.Vec{}
	}
	centroid := r2.Scale(1/float64(total), sum)
	return steer(b, r2.Sub(centroid, b.Pos))
}

// Separation steers away from neighbors within radius, weighted by 1/d².
// Coincident neighbors (d == 0) are ignored.
func Separation(b Body, neighbors []Occupant, radius float64) r2.Vec {
	var sum r2.Vec
	total := 0
	for _, o := range neighbors {
		if o.ID == b.ID {
			continue
		}
		d := distance(b.Pos, o.Pos)
		if d > 0 && d < radius {
			diff := r2.Scale(1/(d*d), r2.Sub(b.Pos, o.Pos))
			sum = r2.Add(sum, diff)
			total++
		}
	}
	if total == 0 {
		return r2.Vec{}
	}
	return steer(b, r2.Scale(1/float64(total), sum))
}

// Seek steers toward target at full speed.
func Seek(b Body, target r2.Vec) r2.Vec {
	return steer(b, r2.Sub(target, b.Pos))
}

// Contact pushes away from every neighbor within radius by unit(diff)/d.
// It is uncapped and applies to all classes, so boids also avoid enemies.
func Contact(b Body, neighbors []Occupant, radius float64) r2.Vec {
	var sum r2.Vec
	for _, o := range neighbors {
		if o.ID == b.ID {
			continue
		}
		diff := r2.Sub(b.Pos, o.Pos)
		d := r2.Norm(diff)
		if d > 0 && d < radius {
			sum = r2.Add(sum, r2.Scale(1/(d*d), diff))
		}
	}
	return sum
}

// Flock returns the weighted sum of alignment, cohesion, and separation.
func Flock(b Body, neighbors []Occupant, w Weights) r2.Vec {
	force := r2.Scale(w.Align, Alignment(b, neighbors, w.AlignRadius))
	force = r2.Add(force, r2.Scale(w.Cohesion, Cohesion(b, neighbors, w.CohesionRadius)))
	force = r2.Add(force, r2.Scale(w.Separation, Separation(b, neighbors, w.SeparationRadius)))
	return force
}

// FilterClass appends the occupants of the given class to dst.
func FilterClass(dst, src []Occupant, class components.Class) []Occupant {
	for _, o := range src {
		if o.Class == class {
			dst = append(dst, o)
		}
	}
	return dst
}
