package grid

// RadiusNeighbors are the occupied cells found in a neighborhood. The order
// of Neighbors is not meaningful.
type RadiusNeighbors struct {
	Neighbors []Neighbor `json:"neighbors"`
}

func (n RadiusNeighbors) WithEmptyHandles() RadiusNeighbors {
	if n.Neighbors == nil {
		return n
	}

	neighbors := make([]Neighbor, len(n.Neighbors))
	for i, neighbor := range n.Neighbors {
		neighbors[i] = Neighbor{
			Position: neighbor.Position,
			Occupant: neighbor.Occupant.WithEmptyHandle(),
		}
	}
	return RadiusNeighbors{Neighbors: neighbors}
}

func (n RadiusNeighbors) Len() int {
	return len(n.Neighbors)
}

// SquareRadiusNeighbors returns the occupied cells of the square
// [-radius, radius] x [-radius, radius] around p, p included. A negative
// radius returns no neighbors.
func (g *Grid) SquareRadiusNeighbors(p Position, radius int32) RadiusNeighbors {
	return g.scanRadius(p, radius, func(dx, dy int64) bool {
		return true
	})
}

// RoundedRadiusNeighbors returns the occupied cells whose euclidean distance
// to p is lower or equal to radius, p included.
func (g *Grid) RoundedRadiusNeighbors(p Position, radius int32) RadiusNeighbors {
	r := int64(radius)
	return g.scanRadius(p, radius, func(dx, dy int64) bool {
		return dx*dx+dy*dy <= r*r
	})
}

// scanRadius never returns nil neighbors so that empty results encode as [].
func (g *Grid) scanRadius(p Position, radius int32, keep func(dx, dy int64) bool) RadiusNeighbors {
	res := RadiusNeighbors{Neighbors: []Neighbor{}}
	if radius < 0 || len(g.cells) == 0 {
		return res
	}

	r := int64(radius)
	for x := -r; x <= r; x++ {
		for y := -r; y <= r; y++ {
			if !keep(x, y) {
				continue
			}

			np := p.AddOffset(NewOffset(int32(x), int32(y)))
			if o, ok := g.Get(np); ok {
				res.Neighbors = append(res.Neighbors, NewNeighbor(np, o))
			}
		}
	}

	return res
}
