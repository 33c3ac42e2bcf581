package messages

// MsgType identifies the kind of data carried by a message.
type MsgType string

const (
	MsgTypePingRequest               MsgType = "ping_request"
	MsgTypePingResponse              MsgType = "ping_response"
	MsgTypeSyncClock                 MsgType = "sync_clock"
	MsgTypeErrorResponse             MsgType = "error_response"
	MsgTypeParticipantJoinRequest    MsgType = "participant_join_request"
	MsgTypeParticipantJoinResponse   MsgType = "participant_join_response"
	MsgTypeParticipantJoinBroadcast  MsgType = "participant_join_broadcast"
	MsgTypeParticipantLeaveBroadcast MsgType = "participant_leave_broadcast"
	MsgTypeSessionState              MsgType = "session_state"

	MsgTypeGridState          MsgType = "grid_state"
	MsgTypePlaceRequest       MsgType = "place_request"
	MsgTypePlaceResponse      MsgType = "place_response"
	MsgTypePlacementBroadcast MsgType = "placement_broadcast"
	MsgTypeRemoveRequest      MsgType = "remove_request"
	MsgTypeRemoveResponse     MsgType = "remove_response"
	MsgTypeRemovalBroadcast   MsgType = "removal_broadcast"
	MsgTypeRotateRequest      MsgType = "rotate_request"
	MsgTypeRotateResponse     MsgType = "rotate_response"
	MsgTypeRotationBroadcast  MsgType = "rotation_broadcast"
	MsgTypeFillRequest        MsgType = "fill_request"
	MsgTypeFillResponse       MsgType = "fill_response"

	MsgTypeCardinalNeighborsRequest  MsgType = "cardinal_neighbors_request"
	MsgTypeCardinalNeighborsResponse MsgType = "cardinal_neighbors_response"
	MsgTypeOrdinalNeighborsRequest   MsgType = "ordinal_neighbors_request"
	MsgTypeOrdinalNeighborsResponse  MsgType = "ordinal_neighbors_response"
	MsgTypeRadiusNeighborsRequest    MsgType = "radius_neighbors_request"
	MsgTypeRadiusNeighborsResponse   MsgType = "radius_neighbors_response"
)

// ErrorCode describes why a request failed.
type ErrorCode string

const (
	ErrorCodeBadRequest           ErrorCode = "bad_request"
	ErrorCodeNotFound             ErrorCode = "not_found"
	ErrorCodeUnauthorized         ErrorCode = "unauthorized"
	ErrorCodeConflict             ErrorCode = "conflict"
	ErrorCodeSessionAlreadyJoined ErrorCode = "session_already_joined"
	ErrorCodeSessionNotJoined     ErrorCode = "session_not_joined"
	ErrorCodeInternalServerError  ErrorCode = "internal_server_error"
)
