package orch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkeye/rclass/internal/app"
	"github.com/dkeye/rclass/internal/core"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join enters the named room, creating it on first join.
func (o *Orchestrator) Join(ctx context.Context, sid app.SessionID, name domain.RoomName) (*core.JoinResult, error) {
	acc, err := o.identity(sid)
	if err != nil {
		return nil, err
	}
	name = domain.RoomName(strings.TrimSpace(string(name)))
	if name == "" || len(name) > domain.MaxRoomNameLen {
		return nil, fmt.Errorf("room name: %w", domain.ErrBadPayload)
	}
	if _, _, ok := o.Registry.RoomOf(sid); ok {
		return nil, domain.ErrAlreadyJoined
	}
	// Same identity on another connection; refuse before a router is built.
	if o.Registry.MemberInRoom(name, acc.ID) {
		return nil, domain.ErrAlreadyJoined
	}

	for range joinAttempts {
		actor, err := o.openRoom(ctx, name, acc)
		if err != nil {
			return nil, err
		}
		// Bind first so events emitted during the join reach this connection.
		o.Registry.UpdateRoom(sid, name)
		var res *core.JoinResult
		joined := false
		err = actor.Do(ctx, func(r *core.Room) error {
			var err error
			res, err = r.Join(acc, o.nowMS())
			joined = err == nil
			return err
		})
		if errors.Is(err, core.ErrRoomClosed) {
			o.Registry.RemoveRoom(sid)
			continue
		}
		if err != nil {
			o.Registry.RemoveRoom(sid)
			o.abandon(ctx, actor, acc.ID, &joined)
			return nil, err
		}
		log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(name)).Str("member", string(acc.ID)).Msg("joined room")
		return res, nil
	}
	return nil, fmt.Errorf("room %s kept closing: %w", name, domain.ErrInternal)
}

// abandon settles the room after a failed join. The caller may have given up
// while its join was still queued, so a join that did go through is undone.
// joined is only touched on the actor goroutine.
func (o *Orchestrator) abandon(ctx context.Context, actor *core.RoomActor, id domain.MemberID, joined *bool) {
	ctx = context.WithoutCancel(ctx)
	err := actor.Do(ctx, func(r *core.Room) error {
		now := o.nowMS()
		if *joined {
			if err := r.Leave(id, now); err != nil {
				return err
			}
		}
		o.settle(ctx, actor, r, now)
		return nil
	})
	if err != nil && !errors.Is(err, core.ErrRoomClosed) {
		log.Warn().Err(err).Str("module", "app.orch").Str("room", string(actor.Name())).Str("member", string(id)).Msg("settle after failed join")
	}
}

// openRoom returns the live room actor, creating the room when needed.
func (o *Orchestrator) openRoom(ctx context.Context, name domain.RoomName, acc *domain.Account) (*core.RoomActor, error) {
	if actor, ok := o.Rooms.Get(name); ok {
		return actor, nil
	}

	sched, err := o.Store.GetClassSchedule(ctx, name, o.now())
	if err != nil {
		return nil, fmt.Errorf("class schedule of %s: %w", name, err)
	}
	if sched != nil && sched.TooEarly {
		if acc.ID != sched.Creator {
			return nil, domain.ErrTooEarly
		}
		log.Warn().Str("module", "app.orch").Str("room", string(name)).Str("member", string(acc.ID)).Msg("creator opened room before its window")
	}

	router, err := o.Worker.CreateRouter(ctx, o.Codecs)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}
	actor, created := o.Rooms.GetOrCreate(name, func() *core.Room {
		return core.NewRoom(core.RoomConfig{
			Name:      name,
			Creator:   acc.ID,
			Router:    router,
			Notifier:  o.Registry,
			Schedule:  sched,
			Policy:    o.Policy,
			CreatedAt: o.nowMS(),
		})
	})
	if !created {
		if err := router.Close(); err != nil {
			log.Warn().Err(err).Str("module", "app.orch").Str("room", string(name)).Msg("close surplus router")
		}
		return actor, nil
	}
	o.storeRoom(ctx, actor)
	return actor, nil
}

// storeRoom persists a freshly created room. Failure leaves the room usable
// but unarchived.
func (o *Orchestrator) storeRoom(ctx context.Context, actor *core.RoomActor) {
	var rec domain.RoomRecord
	if err := actor.Do(ctx, func(r *core.Room) error { rec = r.Record(); return nil }); err != nil {
		return
	}
	sctx, cancel := storeCtx(ctx)
	defer cancel()
	id, err := o.Store.StoreRoom(sctx, rec)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orch").Str("room", string(rec.Name)).Msg("store room")
		return
	}
	_ = actor.Do(ctx, func(r *core.Room) error { r.RecordID = id; return nil })
}

// Leave runs the disconnect pipeline for the caller and settles the room.
func (o *Orchestrator) Leave(ctx context.Context, sid app.SessionID) error {
	name, acc, ok := o.Registry.RoomOf(sid)
	if !ok {
		return domain.ErrNotInRoom
	}
	o.Registry.RemoveRoom(sid)
	actor, ok := o.Rooms.Get(name)
	if !ok {
		return domain.ErrNotInRoom
	}
	err := actor.Do(ctx, func(r *core.Room) error {
		now := o.nowMS()
		if err := r.Leave(acc.ID, now); err != nil {
			return err
		}
		o.settle(ctx, actor, r, now)
		return nil
	})
	if errors.Is(err, core.ErrRoomClosed) {
		return domain.ErrNotInRoom
	}
	if err == nil {
		log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(name)).Msg("left room")
	}
	return err
}

// settle applies the room's disposition. It runs inside the actor.
func (o *Orchestrator) settle(ctx context.Context, actor *core.RoomActor, r *core.Room, now int64) {
	d, after := r.Disposition(now)
	switch d {
	case core.DestroyNow, core.EndThenDestroy:
		sctx, cancel := storeCtx(ctx)
		defer cancel()
		r.Destroy(sctx, o.Store, now)
	case core.DestroyLater:
		log.Info().Str("module", "app.orch").Str("room", string(r.Name)).Dur("after", after).Msg("room destruction deferred")
		r.ArmCloseTimer(time.AfterFunc(after, func() { o.expire(actor) }))
	case core.Keep:
	}
}

func (o *Orchestrator) expire(actor *core.RoomActor) {
	ctx := context.Background()
	_ = actor.Do(ctx, func(r *core.Room) error {
		o.settle(ctx, actor, r, o.nowMS())
		return nil
	})
}

// Disconnect is the connection teardown path.
func (o *Orchestrator) Disconnect(ctx context.Context, sid app.SessionID) {
	if err := o.Leave(ctx, sid); err != nil && !errors.Is(err, domain.ErrNotInRoom) {
		log.Error().Err(err).Str("module", "app.orch").Str("sid", string(sid)).Msg("leave on disconnect")
	}
	o.Registry.Unbind(sid)
}

// OnlineUsers lists the members of the caller's room.
func (o *Orchestrator) OnlineUsers(ctx context.Context, sid app.SessionID) ([]core.MemberView, error) {
	var out []core.MemberView
	err := o.inSession(ctx, sid, func(r *core.Room, _ *core.ClientSession) error {
		out = r.Members()
		return nil
	})
	return out, err
}

// ListRooms is a snapshot of the live rooms.
func (o *Orchestrator) ListRooms(ctx context.Context) []domain.RoomInfo {
	return o.Rooms.List(ctx)
}
