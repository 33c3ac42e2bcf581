package messages

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// Msg is the envelope of every message exchanged over a realtime connection.
type Msg struct {
	Type      MsgType         `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID uint32          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// DataTo decodes the message data into the given value.
func (m Msg) DataTo(v any) error {
	if len(m.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(m.Data, v); err != nil {
		return errors.New("decoding message data failed").
			WithType(ErrTypeBadRequest).
			WithTag("msg_type", m.Type).
			Wrap(err)
	}
	return nil
}

func (m Msg) TypeString() string {
	return string(m.Type)
}

// Payload is the data of a message.
type Payload interface {
	MsgType() MsgType
}

// MsgFromPayload wraps the given payload into a message envelope.
func MsgFromPayload(requestID uint32, p Payload) (Msg, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return Msg{}, errors.New("encoding message data failed").
			WithTag("msg_type", p.MsgType()).
			Wrap(err)
	}

	return Msg{
		Type:      p.MsgType(),
		Timestamp: time.Now(),
		RequestID: requestID,
		Data:      data,
	}, nil
}

// ResponseSender sends messages to a connected client.
type ResponseSender interface {
	// Sends a payload that is not tied to a request.
	Send(Payload)

	// Sends a payload in response to the request with the given id.
	Respond(requestID uint32, p Payload)

	// Sends an already built message.
	SendMsg(Msg)
}

// Sender writes a message and returns the number of bytes written.
type Sender func(Msg) (int, error)

// Receiver reads a message and returns the number of bytes read.
type Receiver func() (Msg, int, error)
