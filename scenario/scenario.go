// Package scenario runs scripted message exchanges against a realtime grid
// server. It is used by tests and by the smoke test endpoint.
package scenario

import (
	"context"
	"time"

	"github.com/aukilabs/entitygrid/messages"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"golang.org/x/net/websocket"
)

// DefaultTimeout is the time a scenario waits for a message when its context
// has no deadline.
const DefaultTimeout = time.Second * 5

// ErrTypeTimeout is the error type returned when an expected message is not
// received in time.
const ErrTypeTimeout = "scenario_timeout"

// Filter reports whether a received message is the expected one.
type Filter func(messages.Msg) bool

// FilterByType matches messages of the given type.
func FilterByType(t messages.MsgType) Filter {
	return func(msg messages.Msg) bool {
		return msg.Type == t
	}
}

// FilterByRequestID matches the responses to the given request.
func FilterByRequestID(id uint32) Filter {
	return func(msg messages.Msg) bool {
		return msg.RequestID == id
	}
}

type step struct {
	send    func() (messages.Msg, error)
	filters []Filter
	then    func(messages.Msg) error
}

// Scenario is a sequence of messages to send and messages to wait for.
type Scenario struct {
	conn  *websocket.Conn
	steps []*step
}

func NewScenario(conn *websocket.Conn) *Scenario {
	return &Scenario{conn: conn}
}

// Send appends a step that sends the payload returned by newPayload. The
// payload is built when the step runs so it can use values captured by
// previous steps.
func (s *Scenario) Send(requestID uint32, newPayload func() messages.Payload) *Scenario {
	s.steps = append(s.steps, &step{
		send: func() (messages.Msg, error) {
			return messages.MsgFromPayload(requestID, newPayload())
		},
	})
	return s
}

// Receive appends a step that waits for a message matching all the filters.
// Messages that do not match are discarded.
func (s *Scenario) Receive(filters ...Filter) *Scenario {
	s.steps = append(s.steps, &step{filters: filters})
	return s
}

// Then sets the function called with the message matched by the previous
// Receive step.
func (s *Scenario) Then(f func(messages.Msg) error) *Scenario {
	if len(s.steps) == 0 || s.steps[len(s.steps)-1].send != nil {
		panic("scenario: Then must follow Receive")
	}
	s.steps[len(s.steps)-1].then = f
	return s
}

// Run executes the steps in order and stops at the first error.
func (s *Scenario) Run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return errors.New("scenario canceled").
				WithTag("step", i).
				Wrap(err)
		}

		if step.send != nil {
			if err := s.runSend(step); err != nil {
				return errors.New("sending message failed").
					WithTag("step", i).
					Wrap(err)
			}
			continue
		}

		if err := s.runReceive(ctx, step); err != nil {
			return errors.New("receiving message failed").
				WithTag("step", i).
				Wrap(err)
		}
	}
	return nil
}

func (s *Scenario) runSend(step *step) error {
	msg, err := step.send()
	if err != nil {
		return err
	}

	_, err = messages.Send(s.conn, msg)
	return err
}

func (s *Scenario) runReceive(ctx context.Context, step *step) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultTimeout)
	}

	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return err
	}
	defer s.conn.SetReadDeadline(time.Time{})

	for {
		msg, _, err := messages.Receive(s.conn)
		if errors.IsType(err, messages.ErrTypeBadRequest) {
			continue
		}
		if err != nil {
			if time.Now().After(deadline) {
				return errors.New("expected message not received").
					WithType(ErrTypeTimeout).
					Wrap(err)
			}
			return err
		}

		if !match(msg, step.filters) {
			continue
		}

		if step.then != nil {
			return step.then(msg)
		}
		return nil
	}
}

func match(msg messages.Msg, filters []Filter) bool {
	for _, f := range filters {
		if !f(msg) {
			return false
		}
	}
	return true
}
