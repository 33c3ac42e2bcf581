package grid

import "fmt"

// Position identifies one cell of the grid.
//
// Coordinates are int32 and arithmetic wraps around on overflow, as Go
// integer arithmetic does: adding 1 to math.MaxInt32 yields math.MinInt32.
type Position struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

func NewPosition(x, y int32) Position {
	return Position{X: x, Y: y}
}

// Add returns the coordinate-wise sum of p and o.
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

// AddOffset returns p moved by the given offset.
func (p Position) AddOffset(o Offset) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Offset is a raw 2D integer displacement.
type Offset struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

func NewOffset(x, y int32) Offset {
	return Offset{X: x, Y: y}
}
