package app

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dkeye/rclass/internal/core"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/rs/zerolog/log"
)

type SessionID string

type sessionEntry struct {
	Account  *domain.Account
	RoomName domain.RoomName
	Conn     core.SignalConnection
	Cancel   context.CancelFunc
}

// Registry tracks signal connections, the identity bound to each and the
// room it joined. It delivers room events as core.Notifier.
type Registry struct {
	mu       sync.RWMutex
	sessions map[SessionID]*sessionEntry
	policy   Policy
}

func NewRegistry(policy Policy) *Registry {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Registry{
		sessions: make(map[SessionID]*sessionEntry),
		policy:   policy,
	}
}

// BindSignal registers a new connection without identity or room.
func (r *Registry) BindSignal(sid SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

// BindAccount attaches an identity to a connection.
func (r *Registry) BindAccount(sid SessionID, acc *domain.Account) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.Account = acc
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("member", string(acc.ID)).Str("type", string(acc.Type)).Msg("bound account")
	return true
}

func (r *Registry) Account(sid SessionID) (*domain.Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.Account == nil {
		return nil, false
	}
	return e.Account, true
}

// RoomOf returns the room and identity of a connection that joined a room.
func (r *Registry) RoomOf(sid SessionID) (domain.RoomName, *domain.Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.RoomName == "" || e.Account == nil {
		return "", nil, false
	}
	return e.RoomName, e.Account, true
}

func (r *Registry) UpdateRoom(sid SessionID, room domain.RoomName) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.RoomName = room
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Msg("updated room")
	return true
}

func (r *Registry) RemoveRoom(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.RoomName = ""
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("removed room association")
}

// MemberInRoom reports whether another connection already holds the identity in room.
func (r *Registry) MemberInRoom(room domain.RoomName, id domain.MemberID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.sessions {
		if e.RoomName == room && e.Account != nil && e.Account.ID == id {
			return true
		}
	}
	return false
}

func (r *Registry) Unbind(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

// Cancel stops the connection's pumps; its disconnect path does the rest.
func (r *Registry) Cancel(sid SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Notify implements core.Notifier. It never blocks; a connection that
// cannot keep up is handled by the back-pressure policy.
func (r *Registry) Notify(room domain.RoomName, to domain.MemberID, ev core.Event) {
	frame, err := json.Marshal(envelope{Type: ev.Type, Data: ev.Data})
	if err != nil {
		log.Error().Err(err).Str("module", "app.registry").Str("event", ev.Type).Msg("marshal event")
		return
	}
	r.mu.RLock()
	var targets []SessionID
	for sid, e := range r.sessions {
		if e.RoomName == room && e.Account != nil && e.Account.ID == to {
			targets = append(targets, sid)
		}
	}
	r.mu.RUnlock()
	for _, sid := range targets {
		r.deliver(sid, frame)
	}
}

// Broadcast sends ev to every bound connection regardless of room.
func (r *Registry) Broadcast(ev core.Event) {
	frame, err := json.Marshal(envelope{Type: ev.Type, Data: ev.Data})
	if err != nil {
		log.Error().Err(err).Str("module", "app.registry").Str("event", ev.Type).Msg("marshal event")
		return
	}
	r.mu.RLock()
	sids := make([]SessionID, 0, len(r.sessions))
	for sid := range r.sessions {
		sids = append(sids, sid)
	}
	r.mu.RUnlock()
	for _, sid := range sids {
		r.deliver(sid, frame)
	}
}

func (r *Registry) deliver(sid SessionID, frame core.Frame) {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok || e.Conn == nil {
		return
	}
	if err := e.Conn.TrySend(frame); err != nil {
		switch r.policy.OnBackPressure(sid) {
		case KickMember:
			log.Warn().Err(err).Str("module", "app.registry").Str("sid", string(sid)).Msg("slow consumer kicked")
			r.Cancel(sid)
		case MarkSlow:
			log.Warn().Err(err).Str("module", "app.registry").Str("sid", string(sid)).Msg("slow consumer")
		case DropFrame, NoAction:
		}
	}
}
