package grid

// CardinalNeighbors are the occupied cells among the four axis-aligned
// neighbors of a position. A nil field means the cell is empty.
type CardinalNeighbors struct {
	North *Neighbor `json:"north,omitempty"`
	East  *Neighbor `json:"east,omitempty"`
	South *Neighbor `json:"south,omitempty"`
	West  *Neighbor `json:"west,omitempty"`
}

// CardinalNeighbors probes (x, y+1), (x+1, y), (x, y-1) and (x-1, y).
func (g *Grid) CardinalNeighbors(p Position) CardinalNeighbors {
	return CardinalNeighbors{
		North: g.neighborPtr(p, North),
		East:  g.neighborPtr(p, East),
		South: g.neighborPtr(p, South),
		West:  g.neighborPtr(p, West),
	}
}

// WithEmptyHandles returns a copy where every handle is NoHandle. Positions
// and rotations are kept, which is what comparisons usually care about.
func (n CardinalNeighbors) WithEmptyHandles() CardinalNeighbors {
	return CardinalNeighbors{
		North: withEmptyHandle(n.North),
		East:  withEmptyHandle(n.East),
		South: withEmptyHandle(n.South),
		West:  withEmptyHandle(n.West),
	}
}

// Get returns the neighbor in the given cardinal direction.
func (n CardinalNeighbors) Get(d Direction) *Neighbor {
	switch d {
	case North:
		return n.North
	case East:
		return n.East
	case South:
		return n.South
	case West:
		return n.West
	default:
		return nil
	}
}

// Len returns the number of occupied neighbors.
func (n CardinalNeighbors) Len() int {
	count := 0
	for _, d := range CardinalDirections() {
		if n.Get(d) != nil {
			count++
		}
	}
	return count
}
