package neighbors

import (
	"context"

	"github.com/aukilabs/entitygrid/grid"
	"github.com/aukilabs/entitygrid/messages"
	"github.com/aukilabs/entitygrid/models"
)

// DefaultMaxRadius is the largest radius accepted by radius queries when
// Module.MaxRadius is not set.
const DefaultMaxRadius = 64

// Module answers neighborhood queries on the session grid.
type Module struct {
	// The largest radius accepted by radius queries. Defaults to
	// DefaultMaxRadius.
	MaxRadius int32

	currentSession     *models.Session
	currentParticipant *models.Participant
}

func (m *Module) Name() string {
	return "neighbors"
}

func (m *Module) Init(s *models.Session, p *models.Participant) {
	m.currentSession = s
	m.currentParticipant = p
}

func (m *Module) HandleMsg(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	switch msg.Type {
	case messages.MsgTypeCardinalNeighborsRequest,
		messages.MsgTypeOrdinalNeighborsRequest,
		messages.MsgTypeRadiusNeighborsRequest:
		if m.currentSession == nil {
			return messages.NewErrSessionNotJoined(msg.Type)
		}

	default:
		return messages.ErrModuleMsgSkip
	}

	switch msg.Type {
	case messages.MsgTypeCardinalNeighborsRequest:
		return m.handleCardinal(ctx, respond, msg)

	case messages.MsgTypeOrdinalNeighborsRequest:
		return m.handleOrdinal(ctx, respond, msg)

	default:
		return m.handleRadius(ctx, respond, msg)
	}
}

func (m *Module) HandleDisconnect() {
	m.currentSession = nil
	m.currentParticipant = nil
}

func (m *Module) handleCardinal(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.CardinalNeighborsRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	var neighbors grid.CardinalNeighbors
	m.currentSession.ViewGrid(func(g *grid.Grid) {
		neighbors = g.CardinalNeighbors(req.Position)
	})

	if req.Redact {
		neighbors = neighbors.WithEmptyHandles()
	}

	instrumentCountQuery(queryKindCardinal, neighbors.Len())
	respond.Respond(msg.RequestID, messages.CardinalNeighborsResponse{
		Neighbors: neighbors,
	})
	return nil
}

func (m *Module) handleOrdinal(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.OrdinalNeighborsRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	var neighbors grid.OrdinalNeighbors
	m.currentSession.ViewGrid(func(g *grid.Grid) {
		neighbors = g.OrdinalNeighbors(req.Position)
	})

	if req.Redact {
		neighbors = neighbors.WithEmptyHandles()
	}

	instrumentCountQuery(queryKindOrdinal, neighbors.Len())
	respond.Respond(msg.RequestID, messages.OrdinalNeighborsResponse{
		Neighbors: neighbors,
	})
	return nil
}

func (m *Module) handleRadius(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.RadiusNeighborsRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if req.Radius < 0 || req.Radius > m.maxRadius() {
		respond.Respond(msg.RequestID, messages.ErrorResponse{Code: messages.ErrorCodeBadRequest})
		return nil
	}

	kind := queryKindSquare
	var neighbors grid.RadiusNeighbors
	m.currentSession.ViewGrid(func(g *grid.Grid) {
		if req.Rounded {
			kind = queryKindRounded
			neighbors = g.RoundedRadiusNeighbors(req.Position, req.Radius)
			return
		}
		neighbors = g.SquareRadiusNeighbors(req.Position, req.Radius)
	})

	if req.Redact {
		neighbors = neighbors.WithEmptyHandles()
	}

	instrumentCountQuery(kind, neighbors.Len())
	respond.Respond(msg.RequestID, messages.RadiusNeighborsResponse{
		Neighbors: neighbors,
	})
	return nil
}

func (m *Module) maxRadius() int32 {
	if m.MaxRadius <= 0 {
		return DefaultMaxRadius
	}
	return m.MaxRadius
}
