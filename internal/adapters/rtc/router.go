package rtc

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/rclass/internal/app/sfu"
	"github.com/dkeye/rclass/internal/core"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Router is safe for concurrent use; rooms call it outside their actor.
type Router struct {
	id     string
	api    *webrtc.API
	config webrtc.Configuration
	caps   core.Capabilities
	relays *sfu.RelayManager

	mu         sync.Mutex
	transports []*Transport
	producers  map[string]*Producer
	consumers  map[string]*Consumer
	closed     bool
}

func (r *Router) ID() string                      { return r.id }
func (r *Router) Capabilities() core.Capabilities { return r.caps }

func (r *Router) CreateTransport(ctx context.Context, opts core.TransportOptions) (core.Transport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, fmt.Errorf("router %s closed", r.id)
	}
	pc, err := r.api.NewPeerConnection(r.config)
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}
	t := newTransport(uuid.NewString(), pc, r, opts)
	t.start(context.WithoutCancel(ctx))
	r.transports = append(r.transports, t)
	return t, nil
}

// CanConsume reports whether the producer exists and the client can decode it.
func (r *Router) CanConsume(producerID string, caps core.Capabilities) bool {
	r.mu.Lock()
	p, ok := r.producers[producerID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	return caps.Supports(p.codec.MimeType)
}

func (r *Router) producer(id string) (*Producer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.producers[id]
	return p, ok
}

func (r *Router) addProducer(p *Producer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.producers[p.id] = p
}

func (r *Router) addConsumer(c *Consumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumers[c.id] = c
}

func (r *Router) consumersOf(producerID string) []*Consumer {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Consumer
	for _, c := range r.consumers {
		if c.producer.id == producerID {
			out = append(out, c)
		}
	}
	return out
}

func (r *Router) forget(producerID, consumerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if producerID != "" {
		delete(r.producers, producerID)
	}
	if consumerID != "" {
		delete(r.consumers, consumerID)
	}
}

// Close tears down every relay and transport of the router.
func (r *Router) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	transports := r.transports
	r.transports = nil
	r.mu.Unlock()

	r.relays.StopAll()
	var firstErr error
	for _, t := range transports {
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	log.Info().Str("module", "rtc").Str("router", r.id).Msg("router closed")
	return firstErr
}
