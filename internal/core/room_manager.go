package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dkeye/rclass/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomManager is the registry of live room actors keyed by room name.
type RoomManager struct {
	ctx   context.Context
	store RoomStore
	now   func() int64

	mu    sync.RWMutex
	rooms map[domain.RoomName]*RoomActor
}

func NewRoomManager(parent context.Context, store RoomStore) *RoomManager {
	return &RoomManager{
		ctx:   parent,
		store: store,
		now:   func() int64 { return time.Now().UnixMilli() },
		rooms: make(map[domain.RoomName]*RoomActor),
	}
}

// SetClock replaces the millisecond clock used for shutdown finalization.
func (rm *RoomManager) SetClock(now func() int64) { rm.now = now }

func (rm *RoomManager) Get(name domain.RoomName) (*RoomActor, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	a, ok := rm.rooms[name]
	return a, ok
}

// GetOrCreate returns the live actor for name. When there is none, build is
// called under the registry lock and its room gets a new actor; created
// reports whether that happened.
func (rm *RoomManager) GetOrCreate(name domain.RoomName, build func() *Room) (a *RoomActor, created bool) {
	if a, ok := rm.Get(name); ok {
		return a, false
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if a, ok := rm.rooms[name]; ok {
		return a, false
	}
	a = newRoomActor(build(), rm.remove)
	rm.rooms[name] = a
	go a.run(rm.ctx, rm.store, rm.now)
	log.Info().Str("module", "core.room_manager").Str("room", string(name)).Msg("room created")
	return a, true
}

func (rm *RoomManager) remove(a *RoomActor) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if cur, ok := rm.rooms[a.name]; ok && cur == a {
		delete(rm.rooms, a.name)
		log.Info().Str("module", "core.room_manager").Str("room", string(a.name)).Msg("room removed")
	}
}

// List returns a snapshot of every live room. Rooms that are busy past ctx
// are skipped.
func (rm *RoomManager) List(ctx context.Context) []domain.RoomInfo {
	rm.mu.RLock()
	actors := make([]*RoomActor, 0, len(rm.rooms))
	for _, a := range rm.rooms {
		actors = append(actors, a)
	}
	rm.mu.RUnlock()

	out := make([]domain.RoomInfo, 0, len(actors))
	for _, a := range actors {
		var info domain.RoomInfo
		if err := a.Do(ctx, func(r *Room) error { info = r.Info(); return nil }); err != nil {
			continue
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (rm *RoomManager) Len() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}
