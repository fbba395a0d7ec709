package systems

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
)

func testBody(pos, vel r2.Vec) Body {
	return Body{ID: 1, Pos: pos, Vel: vel, MaxSpeed: 6, MaxForce: 0.5}
}

func near(a, b r2.Vec) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestSteering_ZeroOnEmpty(t *testing.T) {
	b := testBody(r2.Vec{X: 100, Y: 100}, r2.Vec{X: 1, Y: 0})

	if f := Alignment(b, nil, 100); f != (r2.Vec{}) {
		t.Errorf("expected zero alignment, got %v", f)
	}
	if f := Cohesion(b, nil, 50); f != (r2.Vec{}) {
		t.Errorf("expected zero cohesion, got %v", f)
	}
	if f := Separation(b, nil, 50); f != (r2.Vec{}) {
		t.Errorf("expected zero separation, got %v", f)
	}
	if f := Contact(b, nil, 100); f != (r2.Vec{}) {
		t.Errorf("expected zero contact, got %v", f)
	}
	if f := Flock(b, nil, DefaultWeights()); f != (r2.Vec{}) {
		t.Errorf("expected zero flock, got %v", f)
	}
}

func TestSteering_ZeroOutsideRadius(t *testing.T) {
	b := testBody(r2.Vec{X: 0, Y: 0}, r2.Vec{X: 1, Y: 0})
	far := []Occupant{{ID: 2, Pos: r2.Vec{X: 60, Y: 0}, Vel: r2.Vec{X: 0, Y: 3}}}

	if f := Separation(b, far, 50); f != (r2.Vec{}) {
		t.Errorf("expected zero separation beyond radius, got %v", f)
	}
	if f := Cohesion(b, far, 50); f != (r2.Vec{}) {
		t.Errorf("expected zero cohesion beyond radius, got %v", f)
	}
	farther := []Occupant{{ID: 2, Pos: r2.Vec{X: 150, Y: 0}, Vel: r2.Vec{X: 0, Y: 3}}}
	if f := Alignment(b, farther, 100); f != (r2.Vec{}) {
		t.Errorf("expected zero alignment beyond radius, got %v", f)
	}
}

func TestSteering_SelfIgnored(t *testing.T) {
	b := testBody(r2.Vec{X: 10, Y: 10}, r2.Vec{X: 1, Y: 0})
	self := []Occupant{{ID: b.ID, Pos: b.Pos, Vel: b.Vel}}

	if f := Flock(b, self, DefaultWeights()); f != (r2.Vec{}) {
		t.Errorf("expected agent to ignore itself, got %v", f)
	}
}

func TestSeparation_IgnoresCoincident(t *testing.T) {
	b := testBody(r2.Vec{X: 10, Y: 10}, r2.Vec{})
	same := []Occupant{{ID: 2, Pos: b.Pos}}

	f := Separation(b, same, 50)
	if f != (r2.Vec{}) {
		t.Errorf("expected zero separation for coincident neighbor, got %v", f)
	}
	if math.IsNaN(f.X) || math.IsNaN(f.Y) {
		t.Error("separation produced NaN")
	}
}

func TestSeparation_PointsAway(t *testing.T) {
	b := testBody(r2.Vec{X: 0, Y: 0}, r2.Vec{})
	ns := []Occupant{{ID: 2, Pos: r2.Vec{X: 10, Y: 0}}}

	f := Separation(b, ns, 50)
	if f.X >= 0 {
		t.Errorf("expected force pointing away (-x), got %v", f)
	}
	if r2.Norm(f) > b.MaxForce+1e-9 {
		t.Errorf("separation %v exceeds max force", f)
	}
}

func TestAlignment_MatchesHeading(t *testing.T) {
	b := testBody(r2.Vec{X: 0, Y: 0}, r2.Vec{X: 0, Y: 0})
	ns := []Occupant{
		{ID: 2, Pos: r2.Vec{X: 10, Y: 0}, Vel: r2.Vec{X: 0, Y: 2}},
		{ID: 3, Pos: r2.Vec{X: -10, Y: 0}, Vel: r2.Vec{X: 0, Y: 4}},
	}

	f := Alignment(b, ns, 100)
	// desired = (0,6), minus zero velocity, limited to 0.5
	if !near(f, r2.Vec{X: 0, Y: 0.5}) {
		t.Errorf("expected (0,0.5), got %v", f)
	}
}

func TestCohesion_TowardCentroid(t *testing.T) {
	b := testBody(r2.Vec{X: 0, Y: 0}, r2.Vec{})
	ns := []Occupant{
		{ID: 2, Pos: r2.Vec{X: 20, Y: 10}},
		{ID: 3, Pos: r2.Vec{X: 20, Y: -10}},
	}

	f := Cohesion(b, ns, 50)
	if f.X <= 0 || math.Abs(f.Y) > 1e-9 {
		t.Errorf("expected force toward (+x,0), got %v", f)
	}
}

func TestSeek_CappedAtMaxForce(t *testing.T) {
	b := testBody(r2.Vec{X: 0, Y: 0}, r2.Vec{X: -3, Y: 0})

	f := Seek(b, r2.Vec{X: 100, Y: 0})
	if math.Abs(r2.Norm(f)-b.MaxForce) > 1e-9 {
		t.Errorf("expected |seek| = %g, got %g", b.MaxForce, r2.Norm(f))
	}
	if f.X <= 0 {
		t.Errorf("expected seek toward +x, got %v", f)
	}
}

func TestSeek_AtTarget(t *testing.T) {
	b := testBody(r2.Vec{X: 5, Y: 5}, r2.Vec{})
	if f := Seek(b, b.Pos); f != (r2.Vec{}) {
		t.Errorf("expected zero seek at target, got %v", f)
	}
}

func TestContact_InverseDistance(t *testing.T) {
	b := testBody(r2.Vec{X: 0, Y: 0}, r2.Vec{})

	nearby := Contact(b, []Occupant{{ID: 2, Pos: r2.Vec{X: 5, Y: 0}}}, 100)
	farther := Contact(b, []Occupant{{ID: 2, Pos: r2.Vec{X: 50, Y: 0}}}, 100)

	if !near(nearby, r2.Vec{X: -0.2, Y: 0}) {
		t.Errorf("expected (-0.2,0), got %v", nearby)
	}
	if r2.Norm(farther) >= r2.Norm(nearby) {
		t.Errorf("closer neighbor should push harder: %v vs %v", nearby, farther)
	}
}

func TestFlock_WeightsApplied(t *testing.T) {
	b := testBody(r2.Vec{X: 0, Y: 0}, r2.Vec{})
	ns := []Occupant{{ID: 2, Pos: r2.Vec{X: 10, Y: 0}, Vel: r2.Vec{X: 0, Y: 1}}}

	w := DefaultWeights()
	w.Align, w.Cohesion = 0, 0
	sepOnly := Flock(b, ns, w)
	want := r2.Scale(1.5, Separation(b, ns, w.SeparationRadius))
	if !near(sepOnly, want) {
		t.Errorf("expected %v, got %v", want, sepOnly)
	}
}

func TestFilterClass(t *testing.T) {
	src := []Occupant{
		{ID: 1, Class: components.ClassBoid},
		{ID: 2, Class: components.ClassEnemy},
		{ID: 3, Class: components.ClassBoid},
	}
	got := FilterClass(nil, src, components.ClassBoid)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("expected boids 1 and 3, got %v", got)
	}
}

func TestLimitAndSetMag(t *testing.T) {
	if v := SetMag(r2.Vec{}, 5); v != (r2.Vec{}) {
		t.Errorf("SetMag of zero should stay zero, got %v", v)
	}
	if v := Limit(r2.Vec{X: 3, Y: 4}, 10); v != (r2.Vec{X: 3, Y: 4}) {
		t.Errorf("Limit under cap should not change vector, got %v", v)
	}
	if v := Limit(r2.Vec{X: 30, Y: 40}, 5); !near(v, r2.Vec{X: 3, Y: 4}) {
		t.Errorf("expected (3,4), got %v", v)
	}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		if n := r2.Norm(Random2D(rng)); math.Abs(n-1) > 1e-9 {
			t.Fatalf("Random2D not unit length: %g", n)
		}
	}
}

func BenchmarkFlock(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	ns := make([]Occupant, 30)
	for i := range ns {
		ns[i] = Occupant{
			ID:  uint32(i + 2),
			Pos: r2.Vec{X: rng.Float64() * 90, Y: rng.Float64() * 90},
			Vel: Random2D(rng),
		}
	}
	body := testBody(r2.Vec{X: 45, Y: 45}, r2.Vec{X: 1, Y: 1})
	w := DefaultWeights()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Flock(body, ns, w)
	}
}
