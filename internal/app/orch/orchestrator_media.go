package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/rclass/internal/app"
	"github.com/dkeye/rclass/internal/core"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/rs/zerolog/log"
)

// Media operations validate inside the room actor, call the media subsystem
// outside of it, and register the result inside it again. A resource created
// for a session that left in between is closed instead of registered.

// StoreCapabilities records what the caller's client can decode.
func (o *Orchestrator) StoreCapabilities(ctx context.Context, sid app.SessionID, caps core.Capabilities) error {
	if len(caps.Codecs) == 0 {
		return fmt.Errorf("empty capabilities: %w", domain.ErrBadPayload)
	}
	return o.inSession(ctx, sid, func(_ *core.Room, cs *core.ClientSession) error {
		cs.Caps = &caps
		return nil
	})
}

// CreateTransport opens a new media transport for the caller.
func (o *Orchestrator) CreateTransport(ctx context.Context, sid app.SessionID, opts core.TransportOptions) (string, error) {
	var router core.Router
	if err := o.inSession(ctx, sid, func(r *core.Room, _ *core.ClientSession) error {
		router = r.Router
		return nil
	}); err != nil {
		return "", err
	}

	t, err := router.CreateTransport(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("create transport: %w", err)
	}

	if err := o.inSession(ctx, sid, func(_ *core.Room, cs *core.ClientSession) error {
		cs.Transports[t.ID()] = t
		return nil
	}); err != nil {
		closeQuietly(t.Close, "transport", t.ID())
		return "", err
	}
	return t.ID(), nil
}

// ConnectTransport applies the remote description to one of the caller's
// transports and returns the local answer.
func (o *Orchestrator) ConnectTransport(ctx context.Context, sid app.SessionID, transportID string, params core.ConnectParams) (*core.SessionDescription, error) {
	t, err := o.transport(ctx, sid, transportID)
	if err != nil {
		return nil, err
	}
	answer, err := t.Connect(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("connect transport %s: %w", transportID, err)
	}
	return answer, nil
}

// Produce starts an inbound stream on the caller's transport.
func (o *Orchestrator) Produce(ctx context.Context, sid app.SessionID, transportID string, kind core.MediaKind, params core.RTPParameters) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("kind %q: %w", kind, domain.ErrBadPayload)
	}
	t, err := o.transport(ctx, sid, transportID)
	if err != nil {
		return "", err
	}

	p, err := t.Produce(ctx, kind, params)
	if err != nil {
		return "", fmt.Errorf("produce on %s: %w", transportID, err)
	}

	if err := o.inSession(ctx, sid, func(_ *core.Room, cs *core.ClientSession) error {
		if _, ok := cs.Transports[transportID]; !ok {
			return domain.ErrNotFound
		}
		cs.Producers[p.ID()] = p
		return nil
	}); err != nil {
		closeQuietly(p.Close, "producer", p.ID())
		return "", err
	}
	return p.ID(), nil
}

// Consume opens an outbound stream of another member's producer. The consumer
// starts paused; the client resumes it once its track is wired.
func (o *Orchestrator) Consume(ctx context.Context, sid app.SessionID, transportID, producerID string) (core.ConsumerParams, error) {
	var (
		t    core.Transport
		caps core.Capabilities
	)
	err := o.inSession(ctx, sid, func(r *core.Room, cs *core.ClientSession) error {
		var ok bool
		if t, ok = cs.Transports[transportID]; !ok {
			return fmt.Errorf("transport %s: %w", transportID, domain.ErrNotFound)
		}
		if cs.Caps == nil {
			return fmt.Errorf("rtp capabilities not stored: %w", domain.ErrBadPayload)
		}
		caps = *cs.Caps
		if producerOwner(r, producerID) == nil {
			return fmt.Errorf("producer %s: %w", producerID, domain.ErrNotFound)
		}
		if !r.Router.CanConsume(producerID, caps) {
			return fmt.Errorf("cannot consume %s: %w", producerID, domain.ErrBadPayload)
		}
		return nil
	})
	if err != nil {
		return core.ConsumerParams{}, err
	}

	c, err := t.Consume(ctx, producerID, caps)
	if err != nil {
		return core.ConsumerParams{}, fmt.Errorf("consume %s: %w", producerID, err)
	}

	if err := o.inSession(ctx, sid, func(r *core.Room, cs *core.ClientSession) error {
		// The producer may have gone away while the consumer was being built.
		if producerOwner(r, producerID) == nil {
			return fmt.Errorf("producer %s: %w", producerID, domain.ErrNotFound)
		}
		cs.Consumers[c.ID()] = c
		return nil
	}); err != nil {
		closeQuietly(c.Close, "consumer", c.ID())
		return core.ConsumerParams{}, err
	}
	return c.Params(), nil
}

// ResumeConsumer starts forwarding on a paused consumer.
func (o *Orchestrator) ResumeConsumer(ctx context.Context, sid app.SessionID, consumerID string) error {
	return o.inSession(ctx, sid, func(_ *core.Room, cs *core.ClientSession) error {
		c, ok := cs.Consumers[consumerID]
		if !ok {
			return fmt.Errorf("consumer %s: %w", consumerID, domain.ErrNotFound)
		}
		return c.Resume()
	})
}

func (o *Orchestrator) transport(ctx context.Context, sid app.SessionID, id string) (core.Transport, error) {
	var t core.Transport
	err := o.inSession(ctx, sid, func(_ *core.Room, cs *core.ClientSession) error {
		var ok bool
		if t, ok = cs.Transports[id]; !ok {
			return fmt.Errorf("transport %s: %w", id, domain.ErrNotFound)
		}
		return nil
	})
	return t, err
}

func producerOwner(r *core.Room, producerID string) *core.ClientSession {
	for _, cs := range r.Clients {
		if cs.OwnsProducer(producerID) {
			return cs
		}
	}
	return nil
}

func closeQuietly(closeFn func() error, what, id string) {
	if err := closeFn(); err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Str(what, id).Msg("close orphaned media resource")
	}
}
