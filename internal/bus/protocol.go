package bus

import (
	"encoding/json"
	"fmt"
)

// FrameType identifies a frame on the broker socket.
type FrameType string

const (
	// client -> broker
	FrameHello       FrameType = "HELLO"
	FrameSubscribe   FrameType = "SUBSCRIBE"
	FrameUnsubscribe FrameType = "UNSUBSCRIBE"
	FramePublish     FrameType = "PUBLISH"
	FrameSend        FrameType = "SEND"

	// broker -> client
	FrameMessage FrameType = "MESSAGE"
	FrameOK      FrameType = "OK"
	FrameError   FrameType = "ERROR"
)

// Frame is one newline-delimited JSON object on the broker socket.
//
// UUID and Name carry the client identity on HELLO, the sender filter on
// SUBSCRIBE, the destination on SEND and the sender on MESSAGE.
type Frame struct {
	Type  FrameType       `json:"type"`
	Seq   uint64          `json:"seq,omitempty"`
	Sub   uint64          `json:"sub,omitempty"`
	Topic string          `json:"topic,omitempty"`
	UUID  string          `json:"uuid,omitempty"`
	Name  string          `json:"name,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// NewOKFrame acknowledges request seq.
func NewOKFrame(seq uint64) Frame {
	return Frame{Type: FrameOK, Seq: seq}
}

// NewErrorFrame rejects request seq.
func NewErrorFrame(seq uint64, msg string) Frame {
	return Frame{Type: FrameError, Seq: seq, Error: msg}
}

// ParseFrame decodes and checks one frame.
func ParseFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("invalid frame: %w", err)
	}
	switch f.Type {
	case FrameHello:
		if f.UUID == "" {
			return Frame{}, fmt.Errorf("HELLO requires a uuid")
		}
	case FrameSubscribe, FrameUnsubscribe:
		if f.Sub == 0 {
			return Frame{}, fmt.Errorf("%s requires a subscription id", f.Type)
		}
		if f.Type == FrameSubscribe && f.Topic == "" {
			return Frame{}, fmt.Errorf("SUBSCRIBE requires a topic")
		}
	case FramePublish:
		if f.Topic == "" {
			return Frame{}, fmt.Errorf("PUBLISH requires a topic")
		}
	case FrameSend:
		if f.Topic == "" || f.UUID == "" {
			return Frame{}, fmt.Errorf("SEND requires a topic and a destination uuid")
		}
	case FrameMessage, FrameOK, FrameError:
	case "":
		return Frame{}, fmt.Errorf("frame type is required")
	default:
		return Frame{}, fmt.Errorf("unknown frame type %q", f.Type)
	}
	return f, nil
}

func encodeData(message any) (json.RawMessage, error) {
	if message == nil {
		return nil, nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return data, nil
}

func decodeData(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
