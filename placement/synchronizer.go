package placement

import (
	"sync"
	"time"

	"github.com/aukilabs/entitygrid/grid"
	"github.com/aukilabs/entitygrid/models"
)

// Placement describes the reconciliation of an object into a grid.
type Placement struct {
	Object   *models.Object
	Occupant grid.Occupant
	Pose     models.Pose

	// The occupant that was in the cell before the placement. Nil when the
	// cell was empty.
	Replaced *grid.Occupant
}

// Updated reports whether the placement updated an occupied cell in place.
func (p Placement) Updated() bool {
	return p.Replaced != nil
}

type pending struct {
	object   *models.Object
	rotation grid.Rotation
}

// Synchronizer reconciles newly placed objects into a grid.
//
// Tracked objects are queued until Sync is called, which lets a host apply
// all the placements of an update pass at once before the grid is queried.
type Synchronizer struct {
	Settings Settings

	mutex   sync.Mutex
	pending []pending
}

func NewSynchronizer(s Settings) *Synchronizer {
	return &Synchronizer{Settings: s}
}

// Track queues an object to be placed with the given spawn rotation.
func (s *Synchronizer) Track(o *models.Object, r grid.Rotation) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.pending = append(s.pending, pending{
		object:   o,
		rotation: r,
	})
	instrumentCountTracked()
}

// Pending returns the number of objects waiting to be placed.
func (s *Synchronizer) Pending() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return len(s.pending)
}

// Sync places the tracked objects in arrival order. Objects despawned since
// they were tracked are skipped.
func (s *Synchronizer) Sync(idx grid.Index) []Placement {
	s.mutex.Lock()
	queue := s.pending
	s.pending = nil
	s.mutex.Unlock()

	if len(queue) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		instrumentObserveSync(time.Since(start))
	}()

	placements := make([]Placement, 0, len(queue))
	for _, p := range queue {
		if p.object.Despawned() {
			continue
		}
		placements = append(placements, s.Place(idx, p.object, p.rotation))
	}
	return placements
}

// Place immediately sets the object pose and writes it into the grid. When
// the object cell is already occupied, the occupant is updated in place.
func (s *Synchronizer) Place(idx grid.Index, o *models.Object, r grid.Rotation) Placement {
	pose := s.Settings.WorldPose(o.Position, r)
	o.SetPose(pose)
	o.SetRotation(r)

	placement := Placement{
		Object:   o,
		Occupant: grid.NewOccupant(o.Handle, r),
		Pose:     pose,
	}

	if occupant, ok := idx.GetMut(o.Position); ok {
		replaced := *occupant
		occupant.Handle = o.Handle
		occupant.Rotation = r

		placement.Replaced = &replaced
		instrumentCountPlacement(placementKindUpdate)
		return placement
	}

	idx.Insert(o.Position, o.Handle, r)
	instrumentCountPlacement(placementKindInsert)
	return placement
}
