package orch

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/rclass/internal/app"
	"github.com/dkeye/rclass/internal/core"
	"github.com/dkeye/rclass/internal/domain"
)

const (
	joinAttempts = 3
	storeTimeout = 10 * time.Second
)

// Orchestrator maps connection scoped requests onto room actors, the media
// subsystem and the datastore.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    *core.RoomManager
	Worker   core.Worker
	Store    core.Store
	Codecs   []core.Codec
	// Policy applies to rooms not bound to a class.
	Policy domain.AttendancePolicy
	Clock  func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Clock != nil {
		return o.Clock()
	}
	return time.Now()
}

func (o *Orchestrator) nowMS() int64 { return o.now().UnixMilli() }

// storeCtx detaches datastore work from a request that may already be gone.
func storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
}

func (o *Orchestrator) identity(sid app.SessionID) (*domain.Account, error) {
	acc, ok := o.Registry.Account(sid)
	if !ok {
		return nil, domain.ErrLoginRequired
	}
	return acc, nil
}

func (o *Orchestrator) member(sid app.SessionID) (*domain.Account, error) {
	acc, err := o.identity(sid)
	if err != nil {
		return nil, err
	}
	if acc.Type != domain.AccountMember {
		return nil, domain.ErrGuestForbidden
	}
	return acc, nil
}

// inRoom runs fn on the actor of the caller's room.
func (o *Orchestrator) inRoom(ctx context.Context, sid app.SessionID, fn func(r *core.Room, me domain.MemberID) error) error {
	name, acc, ok := o.Registry.RoomOf(sid)
	if !ok {
		return domain.ErrNotInRoom
	}
	actor, ok := o.Rooms.Get(name)
	if !ok {
		return domain.ErrNotInRoom
	}
	err := actor.Do(ctx, func(r *core.Room) error { return fn(r, acc.ID) })
	if errors.Is(err, core.ErrRoomClosed) {
		return domain.ErrNotInRoom
	}
	return err
}

// inSession is inRoom narrowed to the caller's session.
func (o *Orchestrator) inSession(ctx context.Context, sid app.SessionID, fn func(r *core.Room, cs *core.ClientSession) error) error {
	return o.inRoom(ctx, sid, func(r *core.Room, me domain.MemberID) error {
		cs, err := r.Session(me)
		if err != nil {
			return err
		}
		return fn(r, cs)
	})
}
