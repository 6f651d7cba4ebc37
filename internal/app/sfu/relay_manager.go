package sfu

import (
	"context"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// RelayManager owns the relays of one router, keyed by producer id.
type RelayManager struct {
	mu     sync.RWMutex
	relays map[string]*Relay
	// pending holds out tracks attached before their source arrived.
	pending map[string]map[string]*OutTrack
}

func NewRelayManager() *RelayManager {
	return &RelayManager{
		relays:  make(map[string]*Relay),
		pending: make(map[string]map[string]*OutTrack),
	}
}

// StartRelay creates a Relay for the producer and starts its loop.
func (m *RelayManager) StartRelay(ctx context.Context, producerID string, track *webrtc.TrackRemote) {
	logger := log.With().
		Str("module", "sfu.relay").
		Str("producer", producerID).
		Logger()

	relayCtx, cancel := context.WithCancel(ctx)
	relay := NewRelay(track, cancel)

	m.mu.Lock()
	if old, ok := m.relays[producerID]; ok {
		logger.Info().Msg("replacing existing relay")
		old.markAllDelete()
		if old.cancel != nil {
			old.cancel()
		}
	}
	for consumerID, ot := range m.pending[producerID] {
		relay.AddOutTrack(consumerID, ot)
	}
	delete(m.pending, producerID)
	m.relays[producerID] = relay
	m.mu.Unlock()

	logger.Info().Str("kind", track.Kind().String()).Msg("starting relay loop")
	go relay.loop(relayCtx, &logger)
}

// AddSubscriber attaches a consumer's OutTrack to the producer's relay. If the
// source has not arrived yet the track waits for it.
func (m *RelayManager) AddSubscriber(producerID, consumerID string, ot *OutTrack) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if relay, ok := m.relays[producerID]; ok {
		relay.AddOutTrack(consumerID, ot)
		return
	}
	if m.pending[producerID] == nil {
		m.pending[producerID] = make(map[string]*OutTrack)
	}
	m.pending[producerID][consumerID] = ot
}

// RemoveSubscriber marks the consumer's OutTrack for deletion.
func (m *RelayManager) RemoveSubscriber(producerID, consumerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if waiting, ok := m.pending[producerID]; ok {
		if ot, ok := waiting[consumerID]; ok {
			ot.MarkDelete()
			delete(waiting, consumerID)
		}
	}
	relay, ok := m.relays[producerID]
	if !ok {
		return
	}
	relay.mu.RLock()
	ot, ok := relay.outTracks[consumerID]
	relay.mu.RUnlock()
	if ok {
		ot.MarkDelete()
	}
}

// StopRelay stops a producer's relay and drops every subscriber.
func (m *RelayManager) StopRelay(producerID string) {
	m.mu.Lock()
	relay, ok := m.relays[producerID]
	delete(m.relays, producerID)
	for _, ot := range m.pending[producerID] {
		ot.MarkDelete()
	}
	delete(m.pending, producerID)
	m.mu.Unlock()
	if !ok {
		return
	}
	relay.markAllDelete()
	if relay.cancel != nil {
		relay.cancel()
	}
}

// StopAll stops every relay; used when the router closes.
func (m *RelayManager) StopAll() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.relays)+len(m.pending))
	for id := range m.relays {
		ids = append(ids, id)
	}
	for id := range m.pending {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	for _, id := range ids {
		m.StopRelay(id)
	}
}

func (m *RelayManager) HasRelay(producerID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.relays[producerID]
	return ok
}

// SrcTrack returns the source track of a producer's relay.
func (m *RelayManager) SrcTrack(producerID string) (*webrtc.TrackRemote, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	relay, ok := m.relays[producerID]
	if !ok {
		return nil, false
	}
	return relay.Src, true
}
