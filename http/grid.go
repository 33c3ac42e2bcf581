package http

import (
	"io"
	"net/http"

	"github.com/aukilabs/entitygrid/grid"
	"github.com/aukilabs/entitygrid/models"
	"github.com/aukilabs/entitygrid/snapshot"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

const (
	// The content type of grid snapshots.
	ContentTypeSnapshot = "application/zstd"

	maxSnapshotSize = 32 << 20
)

// SessionSummary describes a running session.
type SessionSummary struct {
	ID               string `json:"id"`
	UUID             string `json:"uuid"`
	AppKey           string `json:"app_key,omitempty"`
	ParticipantCount int    `json:"participant_count"`
	ObjectCount      int    `json:"object_count"`
	OccupiedCount    int    `json:"occupied_count"`
}

// HandleSessions lists the running sessions.
func HandleSessions(sessions *models.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := sessions.List()

		res := make([]SessionSummary, 0, len(list))
		for _, s := range list {
			summary := SessionSummary{
				ID:               sessions.GlobalSessionID(s.ID),
				UUID:             s.SessionUUID,
				AppKey:           s.AppKey,
				ParticipantCount: s.ParticipantCount(),
				ObjectCount:      s.Objects().Len(),
			}
			s.ViewGrid(func(g *grid.Grid) {
				summary.OccupiedCount = g.Len()
			})
			res = append(res, summary)
		}

		writeJSON(w, http.StatusOK, res)
	}
}

// HandleGridDebugInfo writes the debug info of the grid of the session
// identified by the id path value.
func HandleGridDebugInfo(sessions *models.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessions.GetByGlobalID(r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, nil)
			return
		}

		var info grid.DebugInfo
		session.ViewGrid(func(g *grid.Grid) {
			info = g.DebugInfo()
		})

		writeJSON(w, http.StatusOK, info)
	}
}

// HandleGridSnapshot writes the snapshot of the grid of the session
// identified by the id path value.
func HandleGridSnapshot(sessions *models.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		session, ok := sessions.GetByGlobalID(id)
		if !ok {
			writeError(w, http.StatusNotFound, nil)
			return
		}

		var b []byte
		var err error
		session.ViewGrid(func(g *grid.Grid) {
			b, err = snapshot.Encode(g)
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, errors.New("encoding grid snapshot failed").
				WithTag(sessionIDTag, id).
				Wrap(err))
			return
		}

		w.Header().Set("Content-Type", ContentTypeSnapshot)
		w.WriteHeader(http.StatusOK)
		w.Write(b)
	}
}

// HandleGridRestore replaces the grid of the session identified by the id
// path value with the snapshot sent in the request body.
func HandleGridRestore(sessions *models.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		session, ok := sessions.GetByGlobalID(id)
		if !ok {
			writeError(w, http.StatusNotFound, nil)
			return
		}

		b, err := io.ReadAll(io.LimitReader(r.Body, maxSnapshotSize))
		if err != nil {
			writeError(w, http.StatusInternalServerError, errors.New("reading body failed").Wrap(err))
			return
		}

		restored, err := snapshot.Decode(b)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		session.UpdateGrid(func(g *grid.Grid) {
			g.Clear()
			for p, o := range restored.All() {
				g.Insert(p, o.Handle, o.Rotation)
			}
		})

		logs.WithTag(sessionIDTag, id).
			WithTag("occupied_count", restored.Len()).
			Info("grid restored")

		w.WriteHeader(http.StatusNoContent)
	}
}
