package systems

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestResourceField_SpawnBatchInBounds(t *testing.T) {
	f := NewResourceField(1200, 600, rand.New(rand.NewSource(42)))

	batch := f.SpawnBatch(50)
	if len(batch) != 50 || f.Len() != 50 {
		t.Fatalf("expected 50 points, got batch=%d len=%d", len(batch), f.Len())
	}
	for _, p := range f.Points() {
		if p.Pos.X < 0 || p.Pos.X >= 1200 || p.Pos.Y < 0 || p.Pos.Y >= 600 {
			t.Errorf("point %v outside bounds", p.Pos)
		}
	}

	if got := f.SpawnBatch(0); got != nil || f.Len() != 50 {
		t.Errorf("expected no-op for n=0, got %v len=%d", got, f.Len())
	}
}

func TestResourceField_UniqueIDs(t *testing.T) {
	f := NewResourceField(100, 100, rand.New(rand.NewSource(42)))
	f.SpawnBatch(20)

	seen := make(map[uint64]bool)
	for _, p := range f.Points() {
		if seen[p.ID] {
			t.Fatalf("duplicate id %d", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestResourceField_NearestEmpty(t *testing.T) {
	f := NewResourceField(100, 100, rand.New(rand.NewSource(42)))

	_, _, ok := f.NearestTo(r2.Vec{X: 50, Y: 50})
	if ok {
		t.Error("expected no nearest point on empty field")
	}
}

func TestResourceField_Nearest(t *testing.T) {
	f := NewResourceField(100, 100, rand.New(rand.NewSource(42)))
	f.Add(r2.Vec{X: 90, Y: 90})
	want := f.Add(r2.Vec{X: 13, Y: 14})
	f.Add(r2.Vec{X: 40, Y: 10})

	got, d, ok := f.NearestTo(r2.Vec{X: 10, Y: 10})
	if !ok {
		t.Fatal("expected a nearest point")
	}
	if got.ID != want.ID {
		t.Errorf("expected point %d, got %d", want.ID, got.ID)
	}
	if math.Abs(d-5) > 1e-9 {
		t.Errorf("expected distance 5, got %g", d)
	}
}

func TestResourceField_ConsumeOnce(t *testing.T) {
	f := NewResourceField(100, 100, rand.New(rand.NewSource(42)))
	p := f.Add(r2.Vec{X: 1, Y: 1})
	f.Add(r2.Vec{X: 2, Y: 2})

	if !f.Consume(p.ID) {
		t.Fatal("expected first consume to succeed")
	}
	if f.Consume(p.ID) {
		t.Error("expected second consume of the same point to fail")
	}
	if f.Len() != 1 {
		t.Errorf("expected 1 remaining point, got %d", f.Len())
	}
}

func TestResourceField_PointsIsCopy(t *testing.T) {
	f := NewResourceField(100, 100, rand.New(rand.NewSource(42)))
	f.Add(r2.Vec{X: 1, Y: 1})

	snap := f.Points()
	snap[0].Pos.X = 99

	if f.Points()[0].Pos.X != 1 {
		t.Error("mutating a snapshot changed the field")
	}
}
