package grid

import "fmt"

// Handle is an opaque reference to an object owned by a host object table.
// The grid records handles but never resolves them nor assumes they stay
// valid.
type Handle struct {
	Index      uint32 `json:"index"`
	Generation uint32 `json:"generation"`
}

// NoHandle designates the absence of an object. Object tables never issue
// index 0.
var NoHandle = Handle{}

func (h Handle) IsNone() bool {
	return h.Index == 0
}

func (h Handle) String() string {
	if h.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%dv%d", h.Index, h.Generation)
}

// Occupant is what an occupied cell holds.
type Occupant struct {
	Handle   Handle   `json:"handle"`
	Rotation Rotation `json:"rotation"`
}

func NewOccupant(h Handle, r Rotation) Occupant {
	return Occupant{Handle: h, Rotation: r}
}

// WithEmptyHandle returns the occupant with its handle replaced by NoHandle.
func (o Occupant) WithEmptyHandle() Occupant {
	return Occupant{Handle: NoHandle, Rotation: o.Rotation}
}
