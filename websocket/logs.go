package websocket

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aukilabs/entitygrid/messages"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"golang.org/x/net/websocket"
)

const (
	appKeyTag        = "app_key"
	sessionIDTag     = "session_id"
	participantIDTag = "participant_id"

	headerXForwardedFor           = "X-Forwarded-For"
	headerCloudFrontViewerCountry = "CloudFront-Viewer-Country"
	headerCloudFrontViewerAddress = "CloudFront-Viewer-Address"
)

type httpHeaders struct {
	UserAgent               string `json:"user_agent,omitempty"`
	XForwardedFor           string `json:"x_forwarded_for,omitempty"`
	CloudFrontCountryName   string `json:"cloudfront_viewer_country,omitempty"`
	CloudFrontViewerAddress string `json:"cloudfront_viewer_address,omitempty"`
}

func newHTTPHeaders(r *http.Request) httpHeaders {
	return httpHeaders{
		UserAgent:               r.UserAgent(),
		XForwardedFor:           r.Header.Get(headerXForwardedFor),
		CloudFrontCountryName:   r.Header.Get(headerCloudFrontViewerCountry),
		CloudFrontViewerAddress: r.Header.Get(headerCloudFrontViewerAddress),
	}
}

// HandlerWithLogs decorates a handler with structured logs and a periodic
// summary of the inbound message types.
func HandlerWithLogs(h Handler, summaryInterval time.Duration) Handler {
	ctx, cancel := context.WithCancel(context.Background())

	handler := &handlerWithLogs{
		Handler:            h,
		summaryInterval:    summaryInterval,
		closeSummaryWorker: cancel,
		counter:            make(map[string]int),
	}

	go handler.startSummaryWorker(ctx)
	return handler
}

type handlerWithLogs struct {
	Handler

	originalRequest *http.Request
	appKey          string

	summaryInterval    time.Duration
	closeSummaryWorker func()
	counterMutex       sync.Mutex
	counter            map[string]int

	joinMutex sync.RWMutex
	joined    joinedSession
}

// joinedSession identifies the session a connection joined, for logging.
type joinedSession struct {
	sessionID     string
	sessionUUID   string
	participantID uint32
}

func (h *handlerWithLogs) setJoined(j joinedSession) {
	h.joinMutex.Lock()
	defer h.joinMutex.Unlock()
	h.joined = j
}

func (h *handlerWithLogs) joinedSession() joinedSession {
	h.joinMutex.RLock()
	defer h.joinMutex.RUnlock()
	return h.joined
}

func (h *handlerWithLogs) HandleConnect(conn *websocket.Conn) {
	h.Handler.HandleConnect(conn)

	req := conn.Request()
	h.originalRequest = req
	h.appKey = appKeyFromRequest(req)

	logs.WithTag(logs.ClientIDTag, h.GetClientID()).
		WithTag(appKeyTag, h.appKey).
		Info("new client is connected")
}

func (h *handlerWithLogs) HandleParticipantJoin(ctx context.Context, handleFrame func(), respond messages.ResponseSender, msg messages.Msg) error {
	if err := h.Handler.HandleParticipantJoin(ctx, handleFrame, respond, msg); err != nil {
		return err
	}

	if h.CurrentParticipant() == nil {
		var req messages.ParticipantJoinRequest
		msg.DataTo(&req)

		logs.WithTag(logs.ClientIDTag, h.GetClientID()).
			WithTag(appKeyTag, h.appKey).
			WithTag(sessionIDTag, req.SessionID).
			WithTag("request_id", msg.RequestID).
			WithTag("http_headers", newHTTPHeaders(h.originalRequest)).
			Info("participant failed to join a session")
		return nil
	}

	j := joinedSession{
		sessionID:     h.GetSessions().GlobalSessionID(h.CurrentSession().ID),
		sessionUUID:   h.CurrentSession().SessionUUID,
		participantID: h.CurrentParticipant().ID,
	}
	h.setJoined(j)

	logs.WithTag(logs.ClientIDTag, h.GetClientID()).
		WithTag(appKeyTag, h.appKey).
		WithTag(sessionIDTag, j.sessionID).
		WithTag("session_uuid", j.sessionUUID).
		WithTag(participantIDTag, j.participantID).
		WithTag("http_headers", newHTTPHeaders(h.originalRequest)).
		Info("participant joined a session")
	return nil
}

func (h *handlerWithLogs) HandleDisconnect(err error) {
	h.Handler.HandleDisconnect(err)

	j := h.joinedSession()
	entry := logs.WithTag(logs.ClientIDTag, h.GetClientID()).
		WithTag(appKeyTag, h.appKey).
		WithTag(sessionIDTag, j.sessionID).
		WithTag(participantIDTag, j.participantID)
	if err != nil && !errors.Is(err, context.Canceled) {
		entry = entry.WithTag("reason", err.Error())
	}
	entry.Info("client disconnected")
}

func (h *handlerWithLogs) Receiver() messages.Receiver {
	receive := h.Handler.Receiver()

	return func() (messages.Msg, int, error) {
		msg, n, err := receive()
		j := h.joinedSession()
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
			logs.WithTag(logs.ClientIDTag, h.GetClientID()).
				WithTag(appKeyTag, h.appKey).
				WithTag(sessionIDTag, j.sessionID).
				WithTag("session_uuid", j.sessionUUID).
				WithTag(participantIDTag, j.participantID).
				Error(errors.New("receiving message failed").Wrap(err))
		} else if err == nil {
			logs.WithTag(logs.ClientIDTag, h.GetClientID()).
				WithTag(sessionIDTag, j.sessionID).
				WithTag(participantIDTag, j.participantID).
				WithTag("msg_type", msg.TypeString()).
				WithTag("request_id", msg.RequestID).
				Debug("message received")
			h.incCounter(msg.TypeString())
		}
		return msg, n, err
	}
}

func (h *handlerWithLogs) Sender() messages.Sender {
	sender := h.Handler.Sender()

	return func(msg messages.Msg) (int, error) {
		msgType := msg.TypeString()

		n, err := sender(msg)
		j := h.joinedSession()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			logs.WithTag(logs.ClientIDTag, h.GetClientID()).
				WithTag(appKeyTag, h.appKey).
				WithTag(sessionIDTag, j.sessionID).
				WithTag("session_uuid", j.sessionUUID).
				WithTag(participantIDTag, j.participantID).
				WithTag("msg_type", msgType).
				Error(errors.New("sending message failed").Wrap(err))
		} else if err == nil {
			logs.WithTag(logs.ClientIDTag, h.GetClientID()).
				WithTag(sessionIDTag, j.sessionID).
				WithTag(participantIDTag, j.participantID).
				WithTag("msg_type", msgType).
				Debug("message sent")
		}
		return n, err
	}
}

func (h *handlerWithLogs) Close() {
	h.Handler.Close()
	h.closeSummaryWorker()
	h.logSummary()
}

func (h *handlerWithLogs) startSummaryWorker(ctx context.Context) {
	ticker := time.NewTicker(h.summaryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			h.logSummary()
		}
	}
}

func (h *handlerWithLogs) incCounter(msgType string) {
	h.counterMutex.Lock()
	defer h.counterMutex.Unlock()

	h.counter[msgType]++
}

func (h *handlerWithLogs) logSummary() {
	h.counterMutex.Lock()
	defer h.counterMutex.Unlock()

	if len(h.counter) == 0 {
		return
	}

	j := h.joinedSession()

	entry := logs.
		WithTag(logs.ClientIDTag, h.GetClientID()).
		WithTag(appKeyTag, h.appKey).
		WithTag(participantIDTag, j.participantID).
		WithTag(sessionIDTag, j.sessionID).
		WithTag("session_uuid", j.sessionUUID).
		WithTag("time_interval", h.summaryInterval)

	for k, v := range h.counter {
		entry = entry.WithTag(k, v)
		delete(h.counter, k)
	}

	entry.Info("inbound message summary")
}

func appKeyFromRequest(r *http.Request) string {
	if appKey := r.Header.Get(HeaderAppKey); appKey != "" {
		return appKey
	}
	return r.URL.Query().Get(QueryAppKey)
}
