package occupancy

import (
	"context"

	"github.com/aukilabs/entitygrid/featureflag"
	"github.com/aukilabs/entitygrid/grid"
	"github.com/aukilabs/entitygrid/messages"
	"github.com/aukilabs/entitygrid/models"
	"github.com/aukilabs/entitygrid/placement"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// MaxFillRadius is the largest radius accepted by fill requests.
const MaxFillRadius = 32

// Module places, removes and rotates objects on the session grid.
type Module struct {
	// The settings used to compute object poses.
	Settings placement.Settings

	FeatureFlags featureflag.FeatureFlag

	currentSession     *models.Session
	currentParticipant *models.Participant
	state              *State
}

func (m *Module) Name() string {
	return "occupancy"
}

func (m *Module) Init(s *models.Session, p *models.Participant) {
	m.currentSession = s
	m.currentParticipant = p

	m.state = s.LoadOrStoreModuleState(m.Name(), func() any {
		return newState(s, m.Settings, m.FeatureFlags)
	}).(*State)
	m.state.start()
}

func (m *Module) HandleMsg(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	if m.currentSession == nil || m.currentParticipant == nil {
		return messages.NewErrSessionNotJoined(msg.Type)
	}

	switch msg.Type {
	case messages.MsgTypeParticipantJoinRequest:
		return m.handleParticipantJoin(ctx, respond, msg)

	case messages.MsgTypePlaceRequest:
		return m.handlePlace(ctx, respond, msg)

	case messages.MsgTypeRemoveRequest:
		return m.handleRemove(ctx, respond, msg)

	case messages.MsgTypeRotateRequest:
		return m.handleRotate(ctx, respond, msg)

	case messages.MsgTypeFillRequest:
		return m.handleFill(ctx, respond, msg)

	default:
		return messages.ErrModuleMsgSkip
	}
}

// HandleDisconnect removes the non persistent objects of the leaving
// participant.
func (m *Module) HandleDisconnect() {
	session := m.currentSession
	participant := m.currentParticipant
	if session == nil || participant == nil {
		return
	}

	for _, h := range participant.Handles() {
		o, ok := session.Objects().Object(h)
		if !ok || o.Persist {
			continue
		}

		m.remove(o)
		logs.WithTag("handle", h).
			WithTag("participant_id", participant.ID).
			Debug("non persistent object removed")
	}

	m.currentSession = nil
	m.currentParticipant = nil
}

func (m *Module) handleParticipantJoin(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	m.FeatureFlags.IfNotSet(featureflag.FlagDisableGridState, func() {
		respond.Send(m.state.GridState())
	})
	return nil
}

func (m *Module) handlePlace(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.PlaceRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	rotation := grid.RandomRotation()
	if req.Rotation != nil {
		rotation = *req.Rotation
	}

	object := m.currentSession.Objects().Spawn(m.currentParticipant.ID, req.Position, req.Persist)
	object.SetRotation(rotation)
	m.currentParticipant.AddObject(object)
	m.state.Synchronizer.Track(object, rotation)

	respond.Respond(msg.RequestID, messages.PlaceResponse{
		Handle:   object.Handle,
		Rotation: rotation,
	})
	return nil
}

func (m *Module) handleRemove(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.RemoveRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	object, code, ok := m.ownedObject(req.Handle)
	if !ok {
		respond.Respond(msg.RequestID, messages.ErrorResponse{Code: code})
		return nil
	}

	m.remove(object)
	respond.Respond(msg.RequestID, messages.RemoveResponse{})
	return nil
}

func (m *Module) handleRotate(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.RotateRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	object, code, ok := m.ownedObject(req.Handle)
	if !ok {
		respond.Respond(msg.RequestID, messages.ErrorResponse{Code: code})
		return nil
	}

	rotation := object.Rotation().Next()
	if req.Rotation != nil {
		rotation = *req.Rotation
	}

	var placed bool
	m.currentSession.UpdateGrid(func(g *grid.Grid) {
		occupant, ok := g.GetMut(object.Position)
		if !ok || occupant.Handle != object.Handle {
			return
		}

		occupant.Rotation = rotation
		placed = true
	})

	if !placed {
		respond.Respond(msg.RequestID, messages.ErrorResponse{Code: messages.ErrorCodeConflict})
		return nil
	}

	object.SetRotation(rotation)
	object.SetPose(m.state.Synchronizer.Settings.WorldPose(object.Position, rotation))

	respond.Respond(msg.RequestID, messages.RotateResponse{Rotation: rotation})

	m.FeatureFlags.IfNotSet(featureflag.FlagDisableRotationBroadcast, func() {
		m.currentSession.Broadcast(m.currentParticipant, messages.RotationBroadcast{
			Object: object.ToMessage(),
		})
	})
	return nil
}

func (m *Module) handleFill(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.FillRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if req.Radius < 0 || req.Radius > MaxFillRadius {
		respond.Respond(msg.RequestID, messages.ErrorResponse{Code: messages.ErrorCodeBadRequest})
		return nil
	}

	if _, code, ok := m.ownedObject(req.Handle); !ok {
		respond.Respond(msg.RequestID, messages.ErrorResponse{Code: code})
		return nil
	}

	var occupied int
	m.currentSession.UpdateGrid(func(g *grid.Grid) {
		if req.Square {
			g.FillSquare(req.Handle, req.Rotation, req.Radius)
		} else {
			g.Fill(req.Handle, req.Rotation, req.Radius)
		}
		occupied = g.Len()
	})

	respond.Respond(msg.RequestID, messages.FillResponse{OccupiedCount: occupied})

	m.FeatureFlags.IfNotSet(featureflag.FlagDisableFillBroadcast, func() {
		m.currentSession.Broadcast(m.currentParticipant, m.state.GridState())
	})
	return nil
}

// ownedObject resolves a handle to an object placed by the current
// participant.
func (m *Module) ownedObject(h grid.Handle) (*models.Object, messages.ErrorCode, bool) {
	object, ok := m.currentSession.Objects().Object(h)
	if !ok {
		return nil, messages.ErrorCodeNotFound, false
	}

	if object.ParticipantID != m.currentParticipant.ID {
		return nil, messages.ErrorCodeUnauthorized, false
	}
	return object, "", true
}

// remove despawns an object and clears the cells it occupies.
func (m *Module) remove(o *models.Object) {
	session := m.currentSession

	if _, ok := session.Objects().Despawn(o.Handle); !ok {
		return
	}
	m.currentParticipant.RemoveObject(o)

	var positions []grid.Position
	session.UpdateGrid(func(g *grid.Grid) {
		positions = removeHandle(g, o.Handle)
	})

	m.FeatureFlags.IfNotSet(featureflag.FlagDisableRemovalBroadcast, func() {
		for _, p := range positions {
			session.Broadcast(m.currentParticipant, messages.RemovalBroadcast{
				Handle:   o.Handle,
				Position: p,
			})
		}
	})
}
