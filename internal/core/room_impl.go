package core

import (
	"context"
	"errors"

	"github.com/dkeye/rclass/internal/domain"
	"github.com/rs/zerolog/log"
)

// ErrRoomClosed is returned by Do once the actor has shut down.
var ErrRoomClosed = errors.New("room closed")

type roomOp struct {
	fn    func(*Room) error
	reply chan error
}

// RoomActor serializes every access to one Room on a single goroutine.
// Different rooms never share locks.
type RoomActor struct {
	name    domain.RoomName
	room    *Room
	ops     chan roomOp
	done    chan struct{}
	onClose func(*RoomActor)
}

func newRoomActor(room *Room, onClose func(*RoomActor)) *RoomActor {
	return &RoomActor{
		name:    room.Name,
		room:    room,
		ops:     make(chan roomOp),
		done:    make(chan struct{}),
		onClose: onClose,
	}
}

func (a *RoomActor) Name() domain.RoomName { return a.name }

// Done is closed when the actor stops.
func (a *RoomActor) Done() <-chan struct{} { return a.done }

// Do runs fn with exclusive access to the room. Once fn marks the room
// destroyed the actor stops and later calls fail with ErrRoomClosed.
func (a *RoomActor) Do(ctx context.Context, fn func(*Room) error) error {
	op := roomOp{fn: fn, reply: make(chan error, 1)}
	select {
	case a.ops <- op:
	case <-a.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-op.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *RoomActor) run(ctx context.Context, store RoomStore, nowFn func() int64) {
	defer close(a.done)
	for {
		select {
		case op := <-a.ops:
			err := a.exec(op.fn)
			if a.room.Closed() {
				a.stop()
				op.reply <- err
				return
			}
			op.reply <- err
		case <-ctx.Done():
			// Process shutdown; finalize like an emptied room.
			a.room.Destroy(context.WithoutCancel(ctx), store, nowFn())
			a.stop()
			return
		}
	}
}

func (a *RoomActor) exec(fn func(*Room) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("module", "core.room").Str("room", string(a.name)).Interface("panic", p).Msg("room op panicked")
			err = domain.ErrInternal
		}
	}()
	return fn(a.room)
}

func (a *RoomActor) stop() {
	if a.onClose != nil {
		a.onClose(a)
	}
	log.Info().Str("module", "core.room").Str("room", string(a.name)).Msg("room actor stopped")
}
