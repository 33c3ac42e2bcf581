package smoketest

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aukilabs/entitygrid/grid"
	"github.com/aukilabs/entitygrid/messages"
	"github.com/aukilabs/entitygrid/scenario"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	DefaultTimeout = time.Second * 10
)

type Options struct {
	// The public endpoint of the server running the smoke tests.
	Endpoint   string
	UserAgent  string
	SendResult func(context.Context, Results) error
}

// Request is the body of a smoke test request.
type Request struct {
	Endpoint string        `json:"endpoint"`
	Timeout  time.Duration `json:"timeout,omitempty"`
}

// Results describes the outcome of a smoke test.
type Results struct {
	FromEndpoint    string  `json:"from_endpoint"`
	ToEndpoint      string  `json:"to_endpoint"`
	Status          string  `json:"status"`
	LatencyMilliSec float64 `json:"latency_ms"`
	Error           string  `json:"error,omitempty"`
}

// HandleSmokeTest starts a smoke test against the endpoint given in the
// request body. The results are passed to opts.SendResult once the test is
// over.
func HandleSmokeTest(ctx context.Context, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		var req Request
		if err := json.Unmarshal(b, &req); err != nil || req.Endpoint == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		go func() {
			res, err := RunSmokeTest(ctx, RunSmokeTestOptions{
				FromEndpoint: opts.Endpoint,
				ToEndpoint:   req.Endpoint,
				UserAgent:    opts.UserAgent,
				Timeout:      req.Timeout,
			})
			if err != nil {
				logs.Warn(err)
			}

			if err := opts.SendResult(ctx, res); err != nil {
				logs.WithTag("from_endpoint", opts.Endpoint).
					WithTag("to_endpoint", req.Endpoint).
					Warn(errors.New("sending smoke test result failed").Wrap(err))
			}
		}()

		w.WriteHeader(http.StatusOK)
	}
}

type RunSmokeTestOptions struct {
	FromEndpoint string
	ToEndpoint   string
	UserAgent    string
	Timeout      time.Duration
}

// RunSmokeTest joins a new session on the target server, places an object,
// checks that it is reported by a neighbor query and removes it.
func RunSmokeTest(ctx context.Context, opts RunSmokeTestOptions) (Results, error) {
	res := Results{
		FromEndpoint: opts.FromEndpoint,
		ToEndpoint:   opts.ToEndpoint,
		Status:       StatusFailed,
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	if err := run(ctx, opts); err != nil {
		err = errors.New("smoke test failed").
			WithTag("to_endpoint", opts.ToEndpoint).
			Wrap(err)
		res.Error = err.Error()
		return res, err
	}

	res.Status = StatusSuccess
	res.LatencyMilliSec = float64(time.Since(start).Microseconds()) / 1000
	return res, nil
}

func run(ctx context.Context, opts RunSmokeTestOptions) error {
	origin := opts.FromEndpoint
	if origin == "" {
		origin = "http://localhost"
	}

	config, err := websocket.NewConfig(websocketURL(opts.ToEndpoint), origin)
	if err != nil {
		return err
	}
	if opts.UserAgent != "" {
		config.Header.Set("User-Agent", opts.UserAgent)
	}

	conn, err := config.DialContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	rotation := grid.RandomRotation()
	var handle grid.Handle

	return scenario.NewScenario(conn).
		Send(1, func() messages.Payload {
			return messages.ParticipantJoinRequest{}
		}).
		Receive(
			scenario.FilterByRequestID(1),
			scenario.FilterByType(messages.MsgTypeParticipantJoinResponse),
		).
		Send(2, func() messages.Payload {
			return messages.PlaceRequest{Rotation: &rotation}
		}).
		Receive(
			scenario.FilterByRequestID(2),
			scenario.FilterByType(messages.MsgTypePlaceResponse),
		).
		Then(func(msg messages.Msg) error {
			var res messages.PlaceResponse
			if err := msg.DataTo(&res); err != nil {
				return err
			}
			handle = res.Handle
			return nil
		}).
		Receive(scenario.FilterByType(messages.MsgTypePlacementBroadcast)).
		Send(3, func() messages.Payload {
			return messages.CardinalNeighborsRequest{Position: grid.NewPosition(0, -1)}
		}).
		Receive(
			scenario.FilterByRequestID(3),
			scenario.FilterByType(messages.MsgTypeCardinalNeighborsResponse),
		).
		Then(func(msg messages.Msg) error {
			var res messages.CardinalNeighborsResponse
			if err := msg.DataTo(&res); err != nil {
				return err
			}

			north := res.Neighbors.North
			if north == nil || north.Occupant != grid.NewOccupant(handle, rotation) {
				return errors.New("placed object is not a neighbor").
					WithTag("handle", handle)
			}
			return nil
		}).
		Send(4, func() messages.Payload {
			return messages.RemoveRequest{Handle: handle}
		}).
		Receive(
			scenario.FilterByRequestID(4),
			scenario.FilterByType(messages.MsgTypeRemoveResponse),
		).
		Run(ctx)
}

func websocketURL(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")

	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")

	default:
		return endpoint
	}
}
