package core

import (
	"context"
	"strings"
)

type MediaKind string

const (
	KindAudio MediaKind = "audio"
	KindVideo MediaKind = "video"
)

func (k MediaKind) Valid() bool { return k == KindAudio || k == KindVideo }

// Codec describes one codec a router accepts.
type Codec struct {
	Kind        MediaKind `json:"kind" mapstructure:"kind" validate:"oneof=audio video"`
	MimeType    string    `json:"mimeType" mapstructure:"mime_type" validate:"required"`
	ClockRate   uint32    `json:"clockRate" mapstructure:"clock_rate" validate:"gt=0"`
	Channels    uint16    `json:"channels,omitempty" mapstructure:"channels"`
	PayloadType uint8     `json:"preferredPayloadType" mapstructure:"payload_type"`
	FmtpLine    string    `json:"sdpFmtpLine,omitempty" mapstructure:"fmtp_line"`
}

// Capabilities is the codec set a router or a client can handle.
type Capabilities struct {
	Codecs []Codec `json:"codecs"`
}

// Supports reports whether caps lists a codec with the given mime type.
func (c Capabilities) Supports(mimeType string) bool {
	for _, codec := range c.Codecs {
		if strings.EqualFold(codec.MimeType, mimeType) {
			return true
		}
	}
	return false
}

type TransportOptions struct {
	Producing bool `json:"producing"`
	Consuming bool `json:"consuming"`
}

// SessionDescription is an SDP blob exchanged while connecting a transport.
type SessionDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

type ICECandidate struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

// ConnectParams carries the remote description and trickled candidates.
type ConnectParams struct {
	Description *SessionDescription `json:"description,omitempty"`
	Candidates  []ICECandidate      `json:"candidates,omitempty"`
}

// RTPParameters describes what a client is about to send.
type RTPParameters struct {
	MimeType string `json:"mimeType,omitempty"`
	TrackID  string `json:"trackId,omitempty"`
	StreamID string `json:"streamId,omitempty"`
}

// ConsumerParams is returned to the consuming client.
type ConsumerParams struct {
	ID         string    `json:"id"`
	ProducerID string    `json:"producerId"`
	Kind       MediaKind `json:"kind"`
	MimeType   string    `json:"mimeType"`
	TrackID    string    `json:"trackId"`
	StreamID   string    `json:"streamId"`
}

// Worker is the media subsystem entry point.
type Worker interface {
	CreateRouter(ctx context.Context, codecs []Codec) (Router, error)
}

// Router is one room's media routing context.
type Router interface {
	ID() string
	Capabilities() Capabilities
	CreateTransport(ctx context.Context, opts TransportOptions) (Transport, error)
	CanConsume(producerID string, caps Capabilities) bool
	Close() error
}

// Transport is a client's media connection inside a router.
type Transport interface {
	ID() string
	// Connect applies the remote description and returns the local answer (nil if none is due).
	Connect(ctx context.Context, params ConnectParams) (*SessionDescription, error)
	Produce(ctx context.Context, kind MediaKind, params RTPParameters) (Producer, error)
	Consume(ctx context.Context, producerID string, caps Capabilities) (Consumer, error)
	Close() error
}

// Producer is an inbound stream endpoint.
type Producer interface {
	ID() string
	Kind() MediaKind
	Close() error
}

// Consumer is an outbound stream endpoint. It starts paused.
type Consumer interface {
	ID() string
	ProducerID() string
	Kind() MediaKind
	Params() ConsumerParams
	Resume() error
	Close() error
}
