package messages

import (
	"testing"

	"github.com/aukilabs/entitygrid/grid"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestMsgFromPayload(t *testing.T) {
	msg, err := MsgFromPayload(42, PlaceResponse{
		Handle:   grid.Handle{Index: 3, Generation: 2},
		Rotation: grid.Left,
	})
	require.NoError(t, err)
	require.Equal(t, MsgTypePlaceResponse, msg.Type)
	require.Equal(t, uint32(42), msg.RequestID)
	require.NotZero(t, msg.Timestamp)
	require.JSONEq(t, `{"handle":{"index":3,"generation":2},"rotation":"left"}`, string(msg.Data))
}

func TestMsgDataTo(t *testing.T) {
	t.Run("data is decoded", func(t *testing.T) {
		msg := Msg{
			Type: MsgTypeRadiusNeighborsRequest,
			Data: []byte(`{"position":{"x":1,"y":-2},"radius":3,"rounded":true}`),
		}

		var req RadiusNeighborsRequest
		err := msg.DataTo(&req)
		require.NoError(t, err)
		require.Equal(t, RadiusNeighborsRequest{
			Position: grid.NewPosition(1, -2),
			Radius:   3,
			Rounded:  true,
		}, req)
	})

	t.Run("empty data is ignored", func(t *testing.T) {
		var req PingRequest
		require.NoError(t, Msg{Type: MsgTypePingRequest}.DataTo(&req))
	})

	t.Run("invalid data returns a bad request error", func(t *testing.T) {
		msg := Msg{
			Type: MsgTypePlaceRequest,
			Data: []byte(`{"rotation":"sideways"}`),
		}

		var req PlaceRequest
		err := msg.DataTo(&req)
		require.Error(t, err)
		require.True(t, errors.IsType(err, ErrTypeBadRequest))
	})
}

func TestErrors(t *testing.T) {
	require.True(t, errors.IsType(ErrModuleMsgSkip, ErrTypeMsgSkip))
	require.True(t, errors.IsType(NewErrSessionNotJoined(MsgTypePlaceRequest), ErrTypeSessionNotJoined))
}
