package smoketest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aukilabs/entitygrid/models"
	"github.com/aukilabs/entitygrid/modules"
	"github.com/aukilabs/entitygrid/modules/neighbors"
	"github.com/aukilabs/entitygrid/modules/occupancy"
	"github.com/aukilabs/entitygrid/placement"
	gridwebsocket "github.com/aukilabs/entitygrid/websocket"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func newTestServer(t *testing.T) *httptest.Server {
	sessions := &models.SessionStore{}

	server := httptest.NewServer(websocket.Server{
		Handshake: func(c *websocket.Config, r *http.Request) error {
			return nil
		},
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			h := &gridwebsocket.RealtimeHandler{
				ClientSyncClockInterval: time.Second,
				ClientIdleTimeout:       time.Minute,
				FrameDuration:           time.Millisecond * 10,
				Sessions:                sessions,
				Modules: []modules.Module{
					&occupancy.Module{Settings: placement.DefaultSettings()},
					&neighbors.Module{},
				},
			}
			defer h.Close()

			gridwebsocket.Handle(context.Background(), conn, h)
		},
	})
	t.Cleanup(server.Close)
	return server
}

func TestRunSmokeTest(t *testing.T) {
	t.Run("smoke test success", func(t *testing.T) {
		server := newTestServer(t)

		res, err := RunSmokeTest(context.Background(), RunSmokeTestOptions{
			FromEndpoint: "http://localgrid",
			ToEndpoint:   server.URL,
			Timeout:      time.Second * 2,
		})
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, res.Status)
		require.Equal(t, "http://localgrid", res.FromEndpoint)
		require.Equal(t, server.URL, res.ToEndpoint)
		require.Greater(t, res.LatencyMilliSec, float64(0))
		require.Empty(t, res.Error)
	})

	t.Run("smoke test failed - offline", func(t *testing.T) {
		res, err := RunSmokeTest(context.Background(), RunSmokeTestOptions{
			FromEndpoint: "http://localgrid",
			ToEndpoint:   "http://127.0.0.1:1",
			Timeout:      time.Second,
		})
		require.Error(t, err)
		require.Equal(t, StatusFailed, res.Status)
		require.Zero(t, res.LatencyMilliSec)
		require.NotEmpty(t, res.Error)
	})
}

func TestHandleSmokeTest(t *testing.T) {
	t.Run("results are sent", func(t *testing.T) {
		server := newTestServer(t)

		results := make(chan Results, 1)
		smokeTest := HandleSmokeTest(context.Background(), Options{
			Endpoint: "http://localgrid",
			SendResult: func(_ context.Context, res Results) error {
				results <- res
				return nil
			},
		})

		body, err := json.Marshal(Request{
			Endpoint: server.URL,
			Timeout:  time.Second * 2,
		})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "http://localgrid/smoke-test", bytes.NewReader(body))
		smokeTest.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		select {
		case res := <-results:
			require.Equal(t, StatusSuccess, res.Status)
			require.Equal(t, server.URL, res.ToEndpoint)

		case <-time.After(time.Second * 3):
			t.Fatal("smoke test results not sent")
		}
	})

	t.Run("bad request", func(t *testing.T) {
		smokeTest := HandleSmokeTest(context.Background(), Options{})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "http://localgrid/smoke-test", bytes.NewReader([]byte("{")))
		smokeTest.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWebsocketURL(t *testing.T) {
	require.Equal(t, "ws://localhost:4000", websocketURL("http://localhost:4000"))
	require.Equal(t, "wss://grid.example.com", websocketURL("https://grid.example.com"))
	require.Equal(t, "ws://raw", websocketURL("ws://raw"))
}
