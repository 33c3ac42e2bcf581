package scenario

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aukilabs/entitygrid/messages"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func newPingServer(t *testing.T) *websocket.Conn {
	server := httptest.NewServer(websocket.Handler(func(conn *websocket.Conn) {
		defer conn.Close()

		for {
			msg, _, err := messages.Receive(conn)
			if err != nil {
				return
			}

			if msg.Type != messages.MsgTypePingRequest {
				continue
			}

			clock, _ := messages.MsgFromPayload(0, messages.SyncClock{})
			messages.Send(conn, clock)

			res, _ := messages.MsgFromPayload(msg.RequestID, messages.PingResponse{})
			messages.Send(conn, res)
		}
	}))
	t.Cleanup(server.Close)

	conn, err := websocket.Dial(strings.ReplaceAll(server.URL, "http://", "ws://"), "", "http://localhost")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestScenarioRun(t *testing.T) {
	conn := newPingServer(t)

	var received messages.Msg
	err := NewScenario(conn).
		Send(7, func() messages.Payload {
			return messages.PingRequest{}
		}).
		Receive(
			FilterByType(messages.MsgTypePingResponse),
			FilterByRequestID(7),
		).
		Then(func(msg messages.Msg) error {
			received = msg
			return nil
		}).
		Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, messages.MsgTypePingResponse, received.Type)
	require.NotZero(t, received.Timestamp)
}

func TestScenarioRunThenError(t *testing.T) {
	conn := newPingServer(t)

	err := NewScenario(conn).
		Send(1, func() messages.Payload {
			return messages.PingRequest{}
		}).
		Receive(FilterByType(messages.MsgTypeSyncClock)).
		Then(func(msg messages.Msg) error {
			return errors.New("unexpected clock")
		}).
		Run(context.Background())
	require.Error(t, err)
}

func TestScenarioRunTimeout(t *testing.T) {
	conn := newPingServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*100)
	defer cancel()

	err := NewScenario(conn).
		Receive(FilterByType(messages.MsgTypePlacementBroadcast)).
		Run(ctx)
	require.Error(t, err)
}

func TestScenarioThenWithoutReceive(t *testing.T) {
	require.Panics(t, func() {
		NewScenario(nil).Then(func(messages.Msg) error { return nil })
	})
}
