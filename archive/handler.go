package archive

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/aukilabs/entitygrid/grid"
	"github.com/aukilabs/entitygrid/models"
	"github.com/aukilabs/entitygrid/snapshot"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

const (
	HeaderSessionID   = "X-Session-Id"
	HeaderSessionUUID = "X-Session-Uuid"
	HeaderAppKey      = "X-App-Key"

	ErrTypeArchiveRejected = "archive_rejected"
)

// Snapshot is the grid snapshot of a closed session.
type Snapshot struct {
	SessionID   string
	SessionUUID string
	AppKey      string
	Data        []byte
}

// NewSnapshot encodes the grid of the given session.
func NewSnapshot(sessionID string, s *models.Session) (Snapshot, error) {
	var data []byte
	var err error
	s.ViewGrid(func(g *grid.Grid) {
		data, err = snapshot.Encode(g)
	})
	if err != nil {
		return Snapshot{}, errors.New("encoding session snapshot failed").
			WithTag("session_id", sessionID).
			Wrap(err)
	}

	return Snapshot{
		SessionID:   sessionID,
		SessionUUID: s.SessionUUID,
		AppKey:      s.AppKey,
		Data:        data,
	}, nil
}

// Handler forwards the snapshots received on SnapshotChan to an archive
// endpoint.
type Handler struct {
	Endpoint     string
	SnapshotChan chan Snapshot // buffered

	// The transport used to post snapshots. Defaults to
	// http.DefaultTransport.
	Transport http.RoundTripper

	// The time to post a snapshot. Defaults to 10s.
	Timeout time.Duration
}

func (h Handler) HandleSnapshots(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return

			case s := <-h.SnapshotChan:
				if err := h.Verify(s); err != nil {
					instrumentVerificationError(err)
					logs.Warn(errors.New("invalid session snapshot").
						WithTag("session_id", s.SessionID).
						WithTag("size", len(s.Data)).
						Wrap(err))
					continue
				}
				h.Forward(ctx, s)
			}
		}
	}()
}

// Verify checks that the snapshot decodes and is worth archiving.
func (h Handler) Verify(s Snapshot) error {
	if s.SessionID == "" {
		return errors.New("snapshot without session id")
	}

	g, err := snapshot.Decode(s.Data)
	if err != nil {
		return err
	}

	if g.Len() == 0 {
		return errors.New("empty grid")
	}
	return nil
}

func (h Handler) Forward(ctx context.Context, s Snapshot) {
	go func() {
		start := time.Now()
		err := h.post(ctx, s)
		instrumentSendLatency(h.Endpoint, start)

		if err != nil {
			instrumentSendError(h.Endpoint, err)
			logs.WithTag("session_id", s.SessionID).
				Warn(errors.New("forward to archive failed").Wrap(err))
			return
		}

		instrumentSend(h.Endpoint)
		logs.WithTag("session_id", s.SessionID).
			WithTag("session_uuid", s.SessionUUID).
			WithTag("size", len(s.Data)).
			Debug("session snapshot archived")
	}()
}

func (h Handler) post(ctx context.Context, s Snapshot) error {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = time.Second * 10
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(s.Data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/zstd")
	req.Header.Set(HeaderSessionID, s.SessionID)
	req.Header.Set(HeaderSessionUUID, s.SessionUUID)
	if s.AppKey != "" {
		req.Header.Set(HeaderAppKey, s.AppKey)
	}

	client := http.Client{Transport: h.Transport}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return errors.New("archive rejected snapshot").
			WithType(ErrTypeArchiveRejected).
			WithTag("status", res.StatusCode)
	}
	return nil
}
