package messages

import (
	"github.com/aukilabs/entitygrid/grid"
)

type PingRequest struct{}

func (PingRequest) MsgType() MsgType { return MsgTypePingRequest }

type PingResponse struct{}

func (PingResponse) MsgType() MsgType { return MsgTypePingResponse }

type SyncClock struct{}

func (SyncClock) MsgType() MsgType { return MsgTypeSyncClock }

type ErrorResponse struct {
	Code ErrorCode `json:"code"`
}

func (ErrorResponse) MsgType() MsgType { return MsgTypeErrorResponse }

type ParticipantJoinRequest struct {
	// The global id of the session to join. A new session is created when
	// empty.
	SessionID string `json:"session_id,omitempty"`
}

func (ParticipantJoinRequest) MsgType() MsgType { return MsgTypeParticipantJoinRequest }

type ParticipantJoinResponse struct {
	SessionID     string `json:"session_id"`
	SessionUUID   string `json:"session_uuid"`
	ParticipantID uint32 `json:"participant_id"`
}

func (ParticipantJoinResponse) MsgType() MsgType { return MsgTypeParticipantJoinResponse }

type ParticipantJoinBroadcast struct {
	ParticipantID uint32 `json:"participant_id"`
}

func (ParticipantJoinBroadcast) MsgType() MsgType { return MsgTypeParticipantJoinBroadcast }

type ParticipantLeaveBroadcast struct {
	ParticipantID uint32 `json:"participant_id"`
}

func (ParticipantLeaveBroadcast) MsgType() MsgType { return MsgTypeParticipantLeaveBroadcast }

type SessionState struct {
	ParticipantIDs []uint32 `json:"participant_ids"`
	Objects        []Object `json:"objects"`
}

func (SessionState) MsgType() MsgType { return MsgTypeSessionState }

// Object describes an object placed on a session grid.
type Object struct {
	Handle        grid.Handle   `json:"handle"`
	ParticipantID uint32        `json:"participant_id"`
	Position      grid.Position `json:"position"`
	Rotation      grid.Rotation `json:"rotation"`
	Persist       bool          `json:"persist,omitempty"`
	Pose          Pose          `json:"pose"`
}

// Pose is the world placement of an object.
type Pose struct {
	PX float32 `json:"px"`
	PY float32 `json:"py"`
	PZ float32 `json:"pz"`
	RX float32 `json:"rx"`
	RY float32 `json:"ry"`
	RZ float32 `json:"rz"`
	RW float32 `json:"rw"`
}

// Cell is an occupied grid cell.
type Cell struct {
	Position grid.Position `json:"position"`
	Occupant grid.Occupant `json:"occupant"`
}

type GridState struct {
	Cells []Cell `json:"cells"`
}

func (GridState) MsgType() MsgType { return MsgTypeGridState }

type PlaceRequest struct {
	Position grid.Position `json:"position"`

	// The rotation the object is spawned with. A random rotation is used when
	// nil.
	Rotation *grid.Rotation `json:"rotation,omitempty"`

	Persist bool `json:"persist,omitempty"`
}

func (PlaceRequest) MsgType() MsgType { return MsgTypePlaceRequest }

type PlaceResponse struct {
	Handle   grid.Handle   `json:"handle"`
	Rotation grid.Rotation `json:"rotation"`
}

func (PlaceResponse) MsgType() MsgType { return MsgTypePlaceResponse }

type PlacementBroadcast struct {
	Object   Object         `json:"object"`
	Replaced *grid.Occupant `json:"replaced,omitempty"`
}

func (PlacementBroadcast) MsgType() MsgType { return MsgTypePlacementBroadcast }

type RemoveRequest struct {
	Handle grid.Handle `json:"handle"`
}

func (RemoveRequest) MsgType() MsgType { return MsgTypeRemoveRequest }

type RemoveResponse struct{}

func (RemoveResponse) MsgType() MsgType { return MsgTypeRemoveResponse }

type RemovalBroadcast struct {
	Handle   grid.Handle   `json:"handle"`
	Position grid.Position `json:"position"`
}

func (RemovalBroadcast) MsgType() MsgType { return MsgTypeRemovalBroadcast }

type RotateRequest struct {
	Handle grid.Handle `json:"handle"`

	// The new rotation. The object is rotated clockwise when nil.
	Rotation *grid.Rotation `json:"rotation,omitempty"`
}

func (RotateRequest) MsgType() MsgType { return MsgTypeRotateRequest }

type RotateResponse struct {
	Rotation grid.Rotation `json:"rotation"`
}

func (RotateResponse) MsgType() MsgType { return MsgTypeRotateResponse }

type RotationBroadcast struct {
	Object Object `json:"object"`
}

func (RotationBroadcast) MsgType() MsgType { return MsgTypeRotationBroadcast }

type FillRequest struct {
	Handle   grid.Handle   `json:"handle"`
	Rotation grid.Rotation `json:"rotation"`
	Radius   int32         `json:"radius"`

	// Fills [-radius, radius) instead of the historical radius % 2 range.
	Square bool `json:"square,omitempty"`
}

func (FillRequest) MsgType() MsgType { return MsgTypeFillRequest }

type FillResponse struct {
	OccupiedCount int `json:"occupied_count"`
}

func (FillResponse) MsgType() MsgType { return MsgTypeFillResponse }

type CardinalNeighborsRequest struct {
	Position grid.Position `json:"position"`
	Redact   bool          `json:"redact,omitempty"`
}

func (CardinalNeighborsRequest) MsgType() MsgType { return MsgTypeCardinalNeighborsRequest }

type CardinalNeighborsResponse struct {
	Neighbors grid.CardinalNeighbors `json:"neighbors"`
}

func (CardinalNeighborsResponse) MsgType() MsgType { return MsgTypeCardinalNeighborsResponse }

type OrdinalNeighborsRequest struct {
	Position grid.Position `json:"position"`
	Redact   bool          `json:"redact,omitempty"`
}

func (OrdinalNeighborsRequest) MsgType() MsgType { return MsgTypeOrdinalNeighborsRequest }

type OrdinalNeighborsResponse struct {
	Neighbors grid.OrdinalNeighbors `json:"neighbors"`
}

func (OrdinalNeighborsResponse) MsgType() MsgType { return MsgTypeOrdinalNeighborsResponse }

type RadiusNeighborsRequest struct {
	Position grid.Position `json:"position"`
	Radius   int32         `json:"radius"`
	Rounded  bool          `json:"rounded,omitempty"`
	Redact   bool          `json:"redact,omitempty"`
}

func (RadiusNeighborsRequest) MsgType() MsgType { return MsgTypeRadiusNeighborsRequest }

type RadiusNeighborsResponse struct {
	Neighbors grid.RadiusNeighbors `json:"neighbors"`
}

func (RadiusNeighborsResponse) MsgType() MsgType { return MsgTypeRadiusNeighborsResponse }
