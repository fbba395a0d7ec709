// Package systems provides the simulation systems: spatial index, steering,
// resources, life, and kinematics.
package systems

import (
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
)

// Occupant is a frame-start snapshot of an agent stored in the index.
// Steering reads these instead of live components so every query in a
// frame sees the same state.
type Occupant struct {
	E     ecs.Entity
	ID    uint32
	Class components.Class
	Pos   r2.Vec
	Vel   r2.Vec
}

// CellKey addresses a grid cell by integer column and row.
type CellKey struct {
	Col, Row int
}

// SpatialIndex buckets agents into square cells for neighbor queries.
// The grid is unbounded: agents outside the world still hash to a cell.
type SpatialIndex struct {
	cellSize float64
	cells    map[CellKey][]Occupant
	count    int
}

// NewSpatialIndex creates an index with the given cell size.
func NewSpatialIndex(cellSize float64) (*SpatialIndex, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("spatial index: cell size must be > 0, got %g", cellSize)
	}
	return &SpatialIndex{
		cellSize: cellSize,
		cells:    make(map[CellKey][]Occupant),
	}, nil
}

// CellSize returns the configured cell edge length.
func (s *SpatialIndex) CellSize() float64 {
	return s.cellSize
}

// KeyOf returns the cell containing p.
func (s *SpatialIndex) KeyOf(p r2.Vec) CellKey {
	return CellKey{
		Col: int(math.Floor(p.X / s.cellSize)),
		Row: int(math.Floor(p.Y / s.cellSize)),
	}
}

// Rebuild replaces the contents of the index with occupants.
// Cell slices keep their capacity across rebuilds; cells left empty are dropped.
func (s *SpatialIndex) Rebuild(occupants []Occupant) {
	for k, list := range s.cells {
		s.cells[k] = list[:0]
	}

	for _, o := range occupants {
		k := s.KeyOf(o.Pos)
		s.cells[k] = append(s.cells[k], o)
	}

	for k, list := range s.cells {
		if len(list) == 0 {
			delete(s.cells, k)
		}
	}
	s.count = len(occupants)
}

// NeighborsInto appends the occupants of the 3x3 block of cells centered on
// p's cell to dst. The caller's own entry is included when it lives in that
// block. Reuse dst across calls to avoid allocations.
func (s *SpatialIndex) NeighborsInto(dst []Occupant, p r2.Vec) []Occupant {
	center := s.KeyOf(p)
	for dc := -1; dc <= 1; dc++ {
		for dr := -1; dr <= 1; dr++ {
			dst = append(dst, s.cells[CellKey{Col: center.Col + dc, Row: center.Row + dr}]...)
		}
	}
	return dst
}

// Neighbors is NeighborsInto with a fresh slice.
func (s *SpatialIndex) Neighbors(p r2.Vec) []Occupant {
	return s.NeighborsInto(nil, p)
}

// Cell returns the occupants of a single cell. The slice is owned by the index.
func (s *SpatialIndex) Cell(k CellKey) []Occupant {
	return s.cells[k]
}

// Cells returns the number of non-empty cells.
func (s *SpatialIndex) Cells() int {
	return len(s.cells)
}

// Len returns the number of indexed occupants.
func (s *SpatialIndex) Len() int {
	return s.count
}
