package grid

// Index is the part of a grid that placement code needs to reconcile objects
// into cells.
type Index interface {
	Get(p Position) (Occupant, bool)
	GetMut(p Position) (*Occupant, bool)
	Insert(p Position, h Handle, r Rotation)
	Remove(p Position) (Occupant, bool)
}

var _ Index = (*Grid)(nil)
