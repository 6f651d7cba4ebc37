package rtc

import (
	"errors"
	"strings"
	"sync"

	"github.com/dkeye/rclass/internal/app/sfu"
	"github.com/dkeye/rclass/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var errConsumerClosed = errors.New("consumer closed")

// Producer is an inbound stream. Its relay starts when the client's track arrives.
type Producer struct {
	id        string
	kind      core.MediaKind
	codec     core.Codec
	trackID   string
	transport *Transport

	mu     sync.Mutex
	track  *webrtc.TrackRemote
	closed bool
	once   sync.Once
}

func (p *Producer) ID() string           { return p.id }
func (p *Producer) Kind() core.MediaKind { return p.kind }

func (p *Producer) matches(track *webrtc.TrackRemote) bool {
	if mediaKind(track.Kind()) != p.kind {
		return false
	}
	return p.trackID == "" || p.trackID == track.ID()
}

func (p *Producer) bind(track *webrtc.TrackRemote) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.track = track
	p.mu.Unlock()
	if !strings.EqualFold(track.Codec().MimeType, p.codec.MimeType) {
		log.Warn().Str("module", "rtc").Str("producer", p.id).Str("got", track.Codec().MimeType).Str("want", p.codec.MimeType).Msg("producer codec differs from registered codec")
	}
	p.transport.router.relays.StartRelay(p.transport.ctx, p.id, track)
}

func (p *Producer) keyframe() {
	p.mu.Lock()
	track := p.track
	p.mu.Unlock()
	if track != nil && p.kind == core.KindVideo {
		p.transport.requestKeyframe(track.SSRC())
	}
}

func (p *Producer) Close() error {
	p.release()
	return nil
}

func (p *Producer) release() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		t := p.transport
		t.mu.Lock()
		delete(t.owned, p.id)
		for i, w := range t.waiting {
			if w == p {
				t.waiting = append(t.waiting[:i], t.waiting[i+1:]...)
				break
			}
		}
		t.mu.Unlock()
		t.router.relays.StopRelay(p.id)
		t.router.forget(p.id, "")
		// Consumers end with their producer, whichever session owns them.
		for _, c := range t.router.consumersOf(p.id) {
			c.release()
		}
	})
}

// Consumer is one outbound copy of a producer's stream.
type Consumer struct {
	id        string
	producer  *Producer
	local     *webrtc.TrackLocalStaticRTP
	sender    *webrtc.RTPSender
	out       *sfu.OutTrack
	transport *Transport
	once      sync.Once
}

func newConsumer(id string, p *Producer, local *webrtc.TrackLocalStaticRTP, sender *webrtc.RTPSender, t *Transport) *Consumer {
	return &Consumer{
		id:        id,
		producer:  p,
		local:     local,
		sender:    sender,
		out:       sfu.NewOutTrack(local),
		transport: t,
	}
}

func (c *Consumer) ID() string           { return c.id }
func (c *Consumer) ProducerID() string   { return c.producer.id }
func (c *Consumer) Kind() core.MediaKind { return c.producer.kind }

func (c *Consumer) Params() core.ConsumerParams {
	return core.ConsumerParams{
		ID:         c.id,
		ProducerID: c.producer.id,
		Kind:       c.producer.kind,
		MimeType:   c.producer.codec.MimeType,
		TrackID:    c.local.ID(),
		StreamID:   c.local.StreamID(),
	}
}

// Resume starts forwarding and asks the source for a keyframe.
func (c *Consumer) Resume() error {
	if !c.out.MarkOk() {
		return errConsumerClosed
	}
	c.producer.keyframe()
	return nil
}

func (c *Consumer) Close() error {
	c.release()
	return nil
}

func (c *Consumer) release() {
	c.once.Do(func() {
		c.out.MarkDelete()
		c.transport.router.relays.RemoveSubscriber(c.producer.id, c.id)
		c.transport.removeSender(c.sender, c.id)
		c.transport.router.forget("", c.id)
	})
}
