package models

import (
	"sync"

	"github.com/aukilabs/entitygrid/grid"
	"github.com/aukilabs/entitygrid/messages"
)

// A session participant.
type Participant struct {
	ID        uint32
	Responder messages.ResponseSender

	mutex   sync.Mutex
	handles map[grid.Handle]struct{}
}

func (p *Participant) AddObject(o *Object) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.handles == nil {
		p.handles = make(map[grid.Handle]struct{})
	}
	p.handles[o.Handle] = struct{}{}
}

func (p *Participant) RemoveObject(o *Object) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	delete(p.handles, o.Handle)
}

// Handles returns the handles of the objects placed by the participant.
func (p *Participant) Handles() []grid.Handle {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	handles := make([]grid.Handle, 0, len(p.handles))
	for h := range p.handles {
		handles = append(handles, h)
	}
	return handles
}

func ParticipantIDs(participants []*Participant) []uint32 {
	res := make([]uint32, len(participants))
	for i, p := range participants {
		res[i] = p.ID
	}
	return res
}
