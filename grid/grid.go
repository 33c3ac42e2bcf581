package grid

import "iter"

// Grid is a sparse, unbounded mapping from positions to occupants. Each
// position holds at most one occupant.
//
// A Grid is not safe for concurrent use. Callers serialize writes and make
// sure placements of an update pass are done before querying.
type Grid struct {
	cells map[Position]*Occupant
}

// New returns an empty grid. The zero value is an empty grid as well.
func New() *Grid {
	return &Grid{
		cells: make(map[Position]*Occupant),
	}
}

// Insert places an occupant at the given position, replacing the one already
// there if any.
func (g *Grid) Insert(p Position, h Handle, r Rotation) {
	if g.cells == nil {
		g.cells = make(map[Position]*Occupant)
	}

	if o, ok := g.cells[p]; ok {
		*o = Occupant{Handle: h, Rotation: r}
		return
	}
	g.cells[p] = &Occupant{Handle: h, Rotation: r}
}

// Remove removes and returns the occupant at the given position.
func (g *Grid) Remove(p Position) (Occupant, bool) {
	o, ok := g.cells[p]
	if !ok {
		return Occupant{}, false
	}

	delete(g.cells, p)
	return *o, true
}

func (g *Grid) Get(p Position) (Occupant, bool) {
	o, ok := g.cells[p]
	if !ok {
		return Occupant{}, false
	}
	return *o, true
}

// GetMut returns the occupant stored at the given position so that it can be
// updated in place. The pointer is valid until the position is removed.
func (g *Grid) GetMut(p Position) (*Occupant, bool) {
	o, ok := g.cells[p]
	return o, ok
}

func (g *Grid) Contains(p Position) bool {
	_, ok := g.cells[p]
	return ok
}

// Len returns the number of occupied cells.
func (g *Grid) Len() int {
	return len(g.cells)
}

// All iterates over the occupied cells. The iteration order is unspecified.
func (g *Grid) All() iter.Seq2[Position, Occupant] {
	return func(yield func(Position, Occupant) bool) {
		for p, o := range g.cells {
			if !yield(p, *o) {
				return
			}
		}
	}
}

// AllMut iterates over the occupied cells and yields occupants that can be
// updated in place. Inserting or removing cells while iterating is not
// supported.
func (g *Grid) AllMut() iter.Seq2[Position, *Occupant] {
	return func(yield func(Position, *Occupant) bool) {
		for p, o := range g.cells {
			if !yield(p, o) {
				return
			}
		}
	}
}

// Fill inserts the same occupant in every cell of [-r, r) x [-r, r) where r
// is radius % 2.
//
// NOTE: because of the modulo, only radius values with radius % 2 == 1 fill
// anything (the 4 cells around the origin). Use FillSquare to fill a square
// of a given radius.
func (g *Grid) Fill(h Handle, r Rotation, radius int32) {
	g.fillRange(h, r, radius%2)
}

// FillSquare inserts the same occupant in every cell of
// [-radius, radius) x [-radius, radius).
func (g *Grid) FillSquare(h Handle, r Rotation, radius int32) {
	g.fillRange(h, r, radius)
}

func (g *Grid) fillRange(h Handle, r Rotation, n int32) {
	for x := -n; x < n; x++ {
		for y := -n; y < n; y++ {
			g.Insert(NewPosition(x, y), h, r)
		}
	}
}

// Clear removes all the occupants.
func (g *Grid) Clear() {
	clear(g.cells)
}

// DebugInfo describes the occupied area of a grid.
type DebugInfo struct {
	OccupiedCount int                 `json:"occupied_count"`
	Min           Position            `json:"min"`
	Max           Position            `json:"max"`
	Rotations     map[Rotation]uint32 `json:"rotations"`
}

// DebugInfo returns the occupied cell count, the bounding box of the
// occupied cells (zero when the grid is empty) and the number of occupants
// per rotation.
func (g *Grid) DebugInfo() DebugInfo {
	info := DebugInfo{
		OccupiedCount: len(g.cells),
		Rotations:     make(map[Rotation]uint32, 4),
	}

	first := true
	for p, o := range g.cells {
		info.Rotations[o.Rotation]++

		if first {
			info.Min, info.Max = p, p
			first = false
			continue
		}

		info.Min.X = min(info.Min.X, p.X)
		info.Min.Y = min(info.Min.Y, p.Y)
		info.Max.X = max(info.Max.X, p.X)
		info.Max.Y = max(info.Max.Y, p.Y)
	}

	return info
}
