package models

import (
	"sync"
	"sync/atomic"

	"github.com/aukilabs/entitygrid/grid"
	"github.com/aukilabs/entitygrid/messages"
)

// Object is an object placed by a participant on a session grid.
type Object struct {
	Handle        grid.Handle
	ParticipantID uint32
	Position      grid.Position
	Persist       bool

	despawned atomic.Bool

	mutex    sync.RWMutex
	pose     Pose
	rotation grid.Rotation
}

func (o *Object) SetPose(v Pose) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.pose = v
}

func (o *Object) Pose() Pose {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	return o.pose
}

func (o *Object) SetRotation(v grid.Rotation) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.rotation = v
}

func (o *Object) Rotation() grid.Rotation {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	return o.rotation
}

// Despawned reports whether the object was removed from its table.
func (o *Object) Despawned() bool {
	return o.despawned.Load()
}

func (o *Object) ToMessage() messages.Object {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	return messages.Object{
		Handle:        o.Handle,
		ParticipantID: o.ParticipantID,
		Position:      o.Position,
		Rotation:      o.rotation,
		Persist:       o.Persist,
		Pose:          o.pose.ToMessage(),
	}
}

func ObjectsToMessage(objects []*Object) []messages.Object {
	res := make([]messages.Object, len(objects))
	for i, o := range objects {
		res[i] = o.ToMessage()
	}
	return res
}

// Pose is a world translation and a rotation quaternion.
type Pose struct {
	PX float32
	PY float32
	PZ float32
	RX float32
	RY float32
	RZ float32
	RW float32
}

func (p Pose) ToMessage() messages.Pose {
	return messages.Pose{
		PX: p.PX,
		PY: p.PY,
		PZ: p.PZ,
		RX: p.RX,
		RY: p.RY,
		RZ: p.RZ,
		RW: p.RW,
	}
}

// ObjectTable owns the objects of a session and issues their handles.
//
// Handle indexes come from a sequential id generator and are reused once an
// object is despawned. The generation of an index is bumped at each reuse so
// that stale handles no longer resolve.
type ObjectTable struct {
	mutex       sync.RWMutex
	ids         SequentialIDGenerator
	generations map[uint32]uint32
	objects     map[uint32]*Object
}

// Spawn creates an object at the given position.
func (t *ObjectTable) Spawn(participantID uint32, p grid.Position, persist bool) *Object {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.objects == nil {
		t.objects = make(map[uint32]*Object)
		t.generations = make(map[uint32]uint32)
	}

	index := t.ids.New()
	t.generations[index]++

	o := &Object{
		Handle: grid.Handle{
			Index:      index,
			Generation: t.generations[index],
		},
		ParticipantID: participantID,
		Position:      p,
		Persist:       persist,
	}
	t.objects[index] = o

	instrumentCountSpawn()
	return o
}

// Object resolves a handle. Handles of despawned objects do not resolve.
func (t *ObjectTable) Object(h grid.Handle) (*Object, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	o, ok := t.objects[h.Index]
	if !ok || o.Handle != h {
		return nil, false
	}
	return o, true
}

// Despawn removes the object designated by the given handle.
func (t *ObjectTable) Despawn(h grid.Handle) (*Object, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	o, ok := t.objects[h.Index]
	if !ok || o.Handle != h {
		return nil, false
	}

	o.despawned.Store(true)
	delete(t.objects, h.Index)
	t.ids.Reuse(h.Index)

	instrumentCountDespawn()
	return o, true
}

func (t *ObjectTable) Objects() []*Object {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	objects := make([]*Object, 0, len(t.objects))
	for _, o := range t.objects {
		objects = append(objects, o)
	}
	return objects
}

func (t *ObjectTable) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return len(t.objects)
}
