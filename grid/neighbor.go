package grid

// Neighbor is an occupied cell found by a neighbor query.
type Neighbor struct {
	Position Position `json:"position"`
	Occupant Occupant `json:"occupant"`
}

func NewNeighbor(p Position, o Occupant) Neighbor {
	return Neighbor{Position: p, Occupant: o}
}

// Neighbor returns the occupied cell next to p in the given direction.
func (g *Grid) Neighbor(p Position, d Direction) (Neighbor, bool) {
	np := p.AddOffset(d.Offset())

	o, ok := g.Get(np)
	if !ok {
		return Neighbor{}, false
	}
	return NewNeighbor(np, o), true
}

func (g *Grid) neighborPtr(p Position, d Direction) *Neighbor {
	n, ok := g.Neighbor(p, d)
	if !ok {
		return nil
	}
	return &n
}

func withEmptyHandle(n *Neighbor) *Neighbor {
	if n == nil {
		return nil
	}
	return &Neighbor{
		Position: n.Position,
		Occupant: n.Occupant.WithEmptyHandle(),
	}
}
