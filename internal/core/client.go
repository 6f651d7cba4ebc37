package core

import (
	"github.com/dkeye/rclass/internal/domain"
	"github.com/rs/zerolog/log"
)

// ClientSession is one member's presence in a room and the media resources
// it owns. Everything registered here is closed when the member leaves.
type ClientSession struct {
	ID     domain.MemberID
	Name   string
	Guest  bool
	JoinTS int64
	Caps   *Capabilities

	Transports map[string]Transport
	Producers  map[string]Producer
	Consumers  map[string]Consumer
	Groups     map[int]struct{}
}

func NewClientSession(acc *domain.Account, joinTS int64) *ClientSession {
	return &ClientSession{
		ID:         acc.ID,
		Name:       acc.Name,
		Guest:      acc.Type == domain.AccountGuest,
		JoinTS:     joinTS,
		Transports: make(map[string]Transport),
		Producers:  make(map[string]Producer),
		Consumers:  make(map[string]Consumer),
		Groups:     make(map[int]struct{}),
	}
}

// OwnsProducer reports whether id is one of the session's outbound endpoints.
func (c *ClientSession) OwnsProducer(id string) bool {
	_, ok := c.Producers[id]
	return ok
}

// closeMedia closes consumers, producers and transports in that order.
// Each close is independent; failures are logged and skipped.
func (c *ClientSession) closeMedia(room domain.RoomName) {
	for id, cons := range c.Consumers {
		if err := cons.Close(); err != nil {
			log.Warn().Err(err).Str("module", "core.client").Str("room", string(room)).Str("member", string(c.ID)).Str("consumer", id).Msg("close consumer")
		}
		delete(c.Consumers, id)
	}
	for id, p := range c.Producers {
		if err := p.Close(); err != nil {
			log.Warn().Err(err).Str("module", "core.client").Str("room", string(room)).Str("member", string(c.ID)).Str("producer", id).Msg("close producer")
		}
		delete(c.Producers, id)
	}
	for id, t := range c.Transports {
		if err := t.Close(); err != nil {
			log.Warn().Err(err).Str("module", "core.client").Str("room", string(room)).Str("member", string(c.ID)).Str("transport", id).Msg("close transport")
		}
		delete(c.Transports, id)
	}
}

// forgetConsumersOf drops ledger entries of consumers fed by any of the given
// producers. The consumers belong to this session but are ended by the media
// layer when their producer closes, so nothing is closed here.
func (c *ClientSession) forgetConsumersOf(producers map[string]struct{}) {
	for id, cons := range c.Consumers {
		if _, ok := producers[cons.ProducerID()]; ok {
			delete(c.Consumers, id)
		}
	}
}
