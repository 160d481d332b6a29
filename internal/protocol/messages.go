package protocol

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// EventType identifies media-stream frame variants.
type EventType string

const (
	EventConnected EventType = "connected"
	EventStart     EventType = "start"
	EventMedia     EventType = "media"
	EventStop      EventType = "stop"
)

var ErrUnsupportedEvent = errors.New("unsupported stream event")

// Frame is one JSON text frame on the telephony media-stream socket.
// Inbound frames carry Start or Media payloads depending on Event;
// outbound frames are always media frames tagged with the stream identifier.
type Frame struct {
	Event     EventType     `json:"event"`
	StreamSid string        `json:"streamSid,omitempty"`
	Track     string        `json:"track,omitempty"`
	Start     *StartPayload `json:"start,omitempty"`
	Media     *MediaPayload `json:"media,omitempty"`
}

type StartPayload struct {
	StreamSid string `json:"streamSid"`
	CallSid   string `json:"callSid,omitempty"`
}

type MediaPayload struct {
	Payload string `json:"payload"`
}

// Decode returns the raw audio bytes of a media payload.
func (m *MediaPayload) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(m.Payload)
}

// ParseFrame validates and decodes one inbound frame.
func ParseFrame(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, fmt.Errorf("invalid frame: %w", err)
	}

	switch f.Event {
	case EventConnected, EventStop:
		return f, nil
	case EventStart:
		if f.Start == nil || f.Start.StreamSid == "" {
			return Frame{}, errors.New("start frame missing streamSid")
		}
		return f, nil
	case EventMedia:
		if f.Media == nil || f.Media.Payload == "" {
			return Frame{}, errors.New("media frame missing payload")
		}
		return f, nil
	default:
		return Frame{}, ErrUnsupportedEvent
	}
}

// OutboundMedia builds the outbound audio frame for a stream.
func OutboundMedia(streamSid string, audio []byte) Frame {
	return Frame{
		Event:     EventMedia,
		StreamSid: streamSid,
		Track:     "outbound",
		Media:     &MediaPayload{Payload: base64.StdEncoding.EncodeToString(audio)},
	}
}
