package occupancy

import (
	"sync"

	"github.com/aukilabs/entitygrid/featureflag"
	"github.com/aukilabs/entitygrid/grid"
	"github.com/aukilabs/entitygrid/messages"
	"github.com/aukilabs/entitygrid/models"
	"github.com/aukilabs/entitygrid/placement"
)

// State is the occupancy state shared by the participants of a session.
type State struct {
	Synchronizer *placement.Synchronizer

	session      *models.Session
	featureFlags featureflag.FeatureFlag

	startOnce sync.Once
}

func newState(s *models.Session, settings placement.Settings, flags featureflag.FeatureFlag) *State {
	return &State{
		Synchronizer: placement.NewSynchronizer(settings),
		session:      s,
		featureFlags: flags,
	}
}

// start registers the session frame handler that places tracked objects.
func (s *State) start() {
	s.startOnce.Do(func() {
		s.session.HandleFrame(s.HandleFrame)
	})
}

// HandleFrame places the objects tracked since the previous frame and
// broadcasts the placements to every participant.
//
// An object whose cell is taken by another object is despawned and its
// remaining cells are cleared.
func (s *State) HandleFrame() {
	if s.Synchronizer.Pending() == 0 {
		return
	}

	var placements []placement.Placement
	var removals []messages.RemovalBroadcast
	s.session.UpdateGrid(func(g *grid.Grid) {
		placements = s.Synchronizer.Sync(g)

		for _, p := range placements {
			if p.Replaced == nil || p.Replaced.Handle == p.Object.Handle {
				continue
			}

			replaced, ok := s.session.Objects().Despawn(p.Replaced.Handle)
			if !ok {
				continue
			}
			s.forgetObject(replaced)

			for _, pos := range removeHandle(g, replaced.Handle) {
				removals = append(removals, messages.RemovalBroadcast{
					Handle:   replaced.Handle,
					Position: pos,
				})
			}
		}
	})

	s.featureFlags.IfNotSet(featureflag.FlagDisablePlacementBroadcast, func() {
		for _, p := range placements {
			s.session.Broadcast(nil, messages.PlacementBroadcast{
				Object:   p.Object.ToMessage(),
				Replaced: p.Replaced,
			})
		}
	})

	s.featureFlags.IfNotSet(featureflag.FlagDisableRemovalBroadcast, func() {
		for _, r := range removals {
			s.session.Broadcast(nil, r)
		}
	})
}

// forgetObject removes a despawned object from the objects of its owner.
func (s *State) forgetObject(o *models.Object) {
	for _, p := range s.session.GetParticipants() {
		if p.ID == o.ParticipantID {
			p.RemoveObject(o)
			return
		}
	}
}

// GridState returns the occupied cells of the session grid.
func (s *State) GridState() messages.GridState {
	var state messages.GridState

	s.session.ViewGrid(func(g *grid.Grid) {
		state.Cells = make([]messages.Cell, 0, g.Len())
		for p, o := range g.All() {
			state.Cells = append(state.Cells, messages.Cell{
				Position: p,
				Occupant: o,
			})
		}
	})
	return state
}

// removeHandle removes every cell occupied by the given handle.
func removeHandle(g *grid.Grid, h grid.Handle) []grid.Position {
	var positions []grid.Position
	for p, o := range g.All() {
		if o.Handle == h {
			positions = append(positions, p)
		}
	}

	for _, p := range positions {
		g.Remove(p)
	}
	return positions
}
