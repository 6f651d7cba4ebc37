package orch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/rclass/internal/app"
	"github.com/dkeye/rclass/internal/core"
	"github.com/dkeye/rclass/internal/core/mocks"
	"github.com/dkeye/rclass/internal/domain"
	"go.uber.org/mock/gomock"
)

var errFull = errors.New("queue full")

type fakeWorker struct {
	routers atomic.Int32
	fail    error
}

func (w *fakeWorker) CreateRouter(context.Context, []core.Codec) (core.Router, error) {
	if w.fail != nil {
		return nil, w.fail
	}
	w.routers.Add(1)
	return &fakeRouter{producers: map[string]bool{}}, nil
}

type fakeRouter struct {
	mu        sync.Mutex
	seq       int
	producers map[string]bool
	closed    atomic.Bool
}

func (r *fakeRouter) next(prefix string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("%s%d", prefix, r.seq)
}

func (r *fakeRouter) ID() string { return "router" }
func (r *fakeRouter) Capabilities() core.Capabilities {
	return core.Capabilities{Codecs: []core.Codec{{Kind: core.KindVideo, MimeType: "video/VP8", ClockRate: 90000}}}
}
func (r *fakeRouter) CreateTransport(context.Context, core.TransportOptions) (core.Transport, error) {
	return &fakeTransport{id: r.next("t"), router: r}, nil
}
func (r *fakeRouter) CanConsume(producerID string, _ core.Capabilities) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.producers[producerID]
}
func (r *fakeRouter) Close() error { r.closed.Store(true); return nil }

type fakeTransport struct {
	id     string
	router *fakeRouter
	closed atomic.Bool
}

func (t *fakeTransport) ID() string { return t.id }
func (t *fakeTransport) Connect(_ context.Context, p core.ConnectParams) (*core.SessionDescription, error) {
	if p.Description == nil {
		return nil, nil
	}
	return &core.SessionDescription{Type: "answer", SDP: "v=0"}, nil
}
func (t *fakeTransport) Produce(_ context.Context, kind core.MediaKind, _ core.RTPParameters) (core.Producer, error) {
	p := &fakeProducer{id: t.router.next("p"), kind: kind}
	t.router.mu.Lock()
	t.router.producers[p.id] = true
	t.router.mu.Unlock()
	return p, nil
}
func (t *fakeTransport) Consume(_ context.Context, producerID string, _ core.Capabilities) (core.Consumer, error) {
	return &fakeConsumer{id: t.router.next("c"), producer: producerID}, nil
}
func (t *fakeTransport) Close() error { t.closed.Store(true); return nil }

type fakeProducer struct {
	id     string
	kind   core.MediaKind
	closed atomic.Bool
}

func (p *fakeProducer) ID() string           { return p.id }
func (p *fakeProducer) Kind() core.MediaKind { return p.kind }
func (p *fakeProducer) Close() error         { p.closed.Store(true); return nil }

type fakeConsumer struct {
	id       string
	producer string
	resumed  atomic.Bool
	closed   atomic.Bool
}

func (c *fakeConsumer) ID() string           { return c.id }
func (c *fakeConsumer) ProducerID() string   { return c.producer }
func (c *fakeConsumer) Kind() core.MediaKind { return core.KindVideo }
func (c *fakeConsumer) Params() core.ConsumerParams {
	return core.ConsumerParams{ID: c.id, ProducerID: c.producer, Kind: core.KindVideo}
}
func (c *fakeConsumer) Resume() error { c.resumed.Store(true); return nil }
func (c *fakeConsumer) Close() error  { c.closed.Store(true); return nil }

// fakeConn records every frame pushed to a connection.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return errFull
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

// types returns the event types received so far.
func (c *fakeConn) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		var env struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(f, &env)
		out = append(out, env.Type)
	}
	return out
}

type harness struct {
	orch   *Orchestrator
	store  *mocks.MockStore
	worker *fakeWorker
	conns  map[app.SessionID]*fakeConn
	clock  atomic.Int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	ctx, cancel := context.WithCancel(context.Background())

	h := &harness{
		store:  store,
		worker: &fakeWorker{},
		conns:  map[app.SessionID]*fakeConn{},
	}
	h.clock.Store(time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC).UnixMilli())
	h.orch = &Orchestrator{
		Registry: app.NewRegistry(nil),
		Rooms:    core.NewRoomManager(ctx, store),
		Worker:   h.worker,
		Store:    store,
		Policy:   domain.DefaultPolicy(),
		Clock:    h.now,
	}
	// Rooms still alive are finalized before the mock controller checks calls.
	t.Cleanup(func() {
		cancel()
		deadline := time.Now().Add(2 * time.Second)
		for h.orch.Rooms.Len() > 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
	})
	return h
}

// allowArchive accepts any number of archive calls, for tests that leave
// rooms alive.
func (h *harness) allowArchive() {
	h.store.EXPECT().ArchiveRoom(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func (h *harness) now() time.Time { return time.UnixMilli(h.clock.Load()) }

func (h *harness) advance(d time.Duration) { h.clock.Add(d.Milliseconds()) }

// connect binds a connection logged in as a member with the given id.
func (h *harness) connect(id string, typ domain.AccountType) app.SessionID {
	sid := app.SessionID("sid-" + id)
	conn := &fakeConn{}
	h.conns[sid] = conn
	h.orch.Registry.BindSignal(sid, conn, func() {})
	h.orch.Registry.BindAccount(sid, &domain.Account{ID: domain.MemberID(id), Name: id, Type: typ})
	return sid
}

// expectAdHocRoom sets up the datastore calls of one ad hoc room lifecycle.
func (h *harness) expectAdHocRoom(name domain.RoomName) {
	h.store.EXPECT().GetClassSchedule(gomock.Any(), name, gomock.Any()).Return(nil, nil)
	h.store.EXPECT().StoreRoom(gomock.Any(), gomock.Any()).Return("rec-"+string(name), nil)
}
