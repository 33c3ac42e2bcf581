package messages

import "github.com/aukilabs/go-tooling/pkg/errors"

const (
	// The error type returned when a message requires a joined session.
	ErrTypeSessionNotJoined = "session_not_joined"

	// The error type returned by modules that do not handle a message.
	ErrTypeMsgSkip = "msg_skip"

	ErrTypeBadRequest = "bad_request"
	ErrTypeNotFound   = "not_found"
)

// ErrModuleMsgSkip is returned by modules to indicate that a message is not
// handled by them.
var ErrModuleMsgSkip = errors.New("module skipped message").WithType(ErrTypeMsgSkip)

// NewErrSessionNotJoined returns the error for a message received before
// joining a session.
func NewErrSessionNotJoined(msgType MsgType) error {
	return errors.New("session not joined").
		WithType(ErrTypeSessionNotJoined).
		WithTag("msg_type", msgType)
}
