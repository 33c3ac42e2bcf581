package messages

import (
	"context"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

const schedulerQueueSize = 512

// Dispatcher receives incoming messages.
type Dispatcher interface {
	// Dispatches a message to be consumed.
	Dispatch(context.Context, Msg) error

	// Releases the messages dispatched since the previous frame. Once called,
	// messages are only released on frames.
	HandleFrame()
}

// Consumer exposes the messages ready to be handled.
type Consumer interface {
	Messages() <-chan Msg
}

// Scheduler delivers dispatched messages to a consumer. Messages are
// delivered right away until frames start to be handled, then they are held
// and delivered in arrival order at each frame.
type Scheduler struct {
	mutex   sync.Mutex
	framed  bool
	closed  bool
	pending []Msg
	msgs    chan Msg
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		msgs: make(chan Msg, schedulerQueueSize),
	}
}

func (s *Scheduler) Dispatch(ctx context.Context, msg Msg) error {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return errors.New("scheduler is closed")
	}

	if s.framed {
		s.pending = append(s.pending, msg)
		s.mutex.Unlock()
		return nil
	}
	s.mutex.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.msgs <- msg:
		return nil
	}
}

func (s *Scheduler) HandleFrame() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.framed = true
	if s.closed {
		return
	}

	for i, msg := range s.pending {
		select {
		case s.msgs <- msg:
		default:
			// The consumer is behind: keep the rest for the next frame.
			s.pending = append(s.pending[:0], s.pending[i:]...)
			return
		}
	}
	s.pending = s.pending[:0]
}

func (s *Scheduler) Messages() <-chan Msg {
	return s.msgs
}

// Close stops accepting messages. Pending messages are dropped.
func (s *Scheduler) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.closed = true
	s.pending = nil
}
