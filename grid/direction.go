package grid

// Direction names a neighboring cell relative to a position. North is +y and
// east is +x.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
	NorthWest
	NorthEast
	SouthEast
	SouthWest
)

var directionOffsets = [...]Offset{
	North:     {0, 1},
	East:      {1, 0},
	South:     {0, -1},
	West:      {-1, 0},
	NorthWest: {-1, 1},
	NorthEast: {1, 1},
	SouthEast: {1, -1},
	SouthWest: {-1, -1},
}

var directionNames = [...]string{
	North:     "north",
	East:      "east",
	South:     "south",
	West:      "west",
	NorthWest: "north_west",
	NorthEast: "north_east",
	SouthEast: "south_east",
	SouthWest: "south_west",
}

// CardinalDirections are the axis-aligned directions in N, E, S, W order.
func CardinalDirections() []Direction {
	return []Direction{North, East, South, West}
}

// OrdinalDirections are the diagonal directions in NW, NE, SE, SW order.
func OrdinalDirections() []Direction {
	return []Direction{NorthWest, NorthEast, SouthEast, SouthWest}
}

// Offset returns the displacement to the neighboring cell. Unknown directions
// return a zero offset.
func (d Direction) Offset() Offset {
	if int(d) >= len(directionOffsets) {
		return Offset{}
	}
	return directionOffsets[d]
}

func (d Direction) IsCardinal() bool {
	return d <= West
}

func (d Direction) String() string {
	if int(d) >= len(directionNames) {
		return "unknown"
	}
	return directionNames[d]
}
