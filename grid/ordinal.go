package grid

// OrdinalNeighbors are the occupied cells among the four diagonal neighbors
// of a position.
type OrdinalNeighbors struct {
	NorthWest *Neighbor `json:"north_west,omitempty"`
	NorthEast *Neighbor `json:"north_east,omitempty"`
	SouthEast *Neighbor `json:"south_east,omitempty"`
	SouthWest *Neighbor `json:"south_west,omitempty"`
}

func (g *Grid) OrdinalNeighbors(p Position) OrdinalNeighbors {
	return OrdinalNeighbors{
		NorthWest: g.neighborPtr(p, NorthWest),
		NorthEast: g.neighborPtr(p, NorthEast),
		SouthEast: g.neighborPtr(p, SouthEast),
		SouthWest: g.neighborPtr(p, SouthWest),
	}
}

func (n OrdinalNeighbors) WithEmptyHandles() OrdinalNeighbors {
	return OrdinalNeighbors{
		NorthWest: withEmptyHandle(n.NorthWest),
		NorthEast: withEmptyHandle(n.NorthEast),
		SouthEast: withEmptyHandle(n.SouthEast),
		SouthWest: withEmptyHandle(n.SouthWest),
	}
}

func (n OrdinalNeighbors) Get(d Direction) *Neighbor {
	switch d {
	case NorthWest:
		return n.NorthWest
	case NorthEast:
		return n.NorthEast
	case SouthEast:
		return n.SouthEast
	case SouthWest:
		return n.SouthWest
	default:
		return nil
	}
}

func (n OrdinalNeighbors) Len() int {
	count := 0
	for _, d := range OrdinalDirections() {
		if n.Get(d) != nil {
			count++
		}
	}
	return count
}
