package archive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aukilabs/entitygrid/grid"
	"github.com/aukilabs/entitygrid/models"
	"github.com/aukilabs/entitygrid/snapshot"
	"github.com/stretchr/testify/require"
)

type archived struct {
	header http.Header
	body   []byte
}

func newArchiveServer(t *testing.T, status int) (*httptest.Server, chan archived) {
	received := make(chan archived, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		received <- archived{
			header: r.Header.Clone(),
			body:   body,
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	return server, received
}

func newTestSession(t *testing.T) *models.Session {
	s := models.NewSession(1, time.Millisecond*10)
	s.AppKey = "app-key"
	t.Cleanup(s.Close)

	s.UpdateGrid(func(g *grid.Grid) {
		g.Insert(grid.NewPosition(1, 2), grid.Handle{Index: 1, Generation: 1}, grid.Left)
		g.Insert(grid.NewPosition(-4, 0), grid.Handle{Index: 2, Generation: 1}, grid.Down)
	})
	return s
}

func TestNewSnapshot(t *testing.T) {
	s := newTestSession(t)

	snap, err := NewSnapshot("serverx1", s)
	require.NoError(t, err)
	require.Equal(t, "serverx1", snap.SessionID)
	require.Equal(t, s.SessionUUID, snap.SessionUUID)
	require.Equal(t, "app-key", snap.AppKey)

	g, err := snapshot.Decode(snap.Data)
	require.NoError(t, err)
	require.Equal(t, 2, g.Len())

	o, ok := g.Get(grid.NewPosition(-4, 0))
	require.True(t, ok)
	require.Equal(t, grid.Down, o.Rotation)
}

func TestHandlerVerify(t *testing.T) {
	var h Handler

	snap, err := NewSnapshot("serverx1", newTestSession(t))
	require.NoError(t, err)
	require.NoError(t, h.Verify(snap))

	t.Run("missing session id", func(t *testing.T) {
		s := snap
		s.SessionID = ""
		require.Error(t, h.Verify(s))
	})

	t.Run("corrupted data", func(t *testing.T) {
		s := snap
		s.Data = []byte("not a snapshot")
		require.Error(t, h.Verify(s))
	})

	t.Run("empty grid", func(t *testing.T) {
		data, err := snapshot.Encode(grid.New())
		require.NoError(t, err)

		s := snap
		s.Data = data
		require.Error(t, h.Verify(s))
	})
}

func TestHandlerHandleSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, received := newArchiveServer(t, http.StatusCreated)

	h := Handler{
		Endpoint:     server.URL,
		SnapshotChan: make(chan Snapshot, 1),
	}
	h.HandleSnapshots(ctx)

	s := newTestSession(t)
	snap, err := NewSnapshot("serverx1", s)
	require.NoError(t, err)
	h.SnapshotChan <- snap

	select {
	case a := <-received:
		require.Equal(t, "serverx1", a.header.Get(HeaderSessionID))
		require.Equal(t, s.SessionUUID, a.header.Get(HeaderSessionUUID))
		require.Equal(t, "app-key", a.header.Get(HeaderAppKey))
		require.Equal(t, "application/zstd", a.header.Get("Content-Type"))
		require.Equal(t, snap.Data, a.body)

	case <-time.After(time.Second):
		t.Fatal("snapshot not archived")
	}
}

func TestHandlerPostRejected(t *testing.T) {
	server, received := newArchiveServer(t, http.StatusBadRequest)

	h := Handler{Endpoint: server.URL}

	snap, err := NewSnapshot("serverx1", newTestSession(t))
	require.NoError(t, err)

	err = h.post(context.Background(), snap)
	require.Error(t, err)
	<-received
}
