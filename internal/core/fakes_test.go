package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dkeye/rclass/internal/domain"
)

var errCloseFailed = errors.New("close failed")

type fakeRouter struct {
	closed    atomic.Bool
	producers map[string]bool
	seq       atomic.Int64
}

func newFakeRouter() *fakeRouter { return &fakeRouter{producers: map[string]bool{}} }

func (r *fakeRouter) ID() string { return "router" }
func (r *fakeRouter) Capabilities() Capabilities {
	return Capabilities{Codecs: []Codec{{Kind: KindAudio, MimeType: "audio/opus", ClockRate: 48000}}}
}
func (r *fakeRouter) CreateTransport(context.Context, TransportOptions) (Transport, error) {
	return &fakeTransport{id: fmt.Sprintf("t%d", r.seq.Add(1)), router: r}, nil
}
func (r *fakeRouter) CanConsume(producerID string, _ Capabilities) bool { return r.producers[producerID] }
func (r *fakeRouter) Close() error                                     { r.closed.Store(true); return nil }

type fakeTransport struct {
	id     string
	router *fakeRouter
	closed atomic.Bool
}

func (t *fakeTransport) ID() string { return t.id }
func (t *fakeTransport) Connect(context.Context, ConnectParams) (*SessionDescription, error) {
	return &SessionDescription{Type: "answer", SDP: "v=0"}, nil
}
func (t *fakeTransport) Produce(_ context.Context, kind MediaKind, _ RTPParameters) (Producer, error) {
	p := &fakeProducer{id: fmt.Sprintf("p%d", t.router.seq.Add(1)), kind: kind}
	t.router.producers[p.id] = true
	return p, nil
}
func (t *fakeTransport) Consume(_ context.Context, producerID string, _ Capabilities) (Consumer, error) {
	return &fakeConsumer{id: fmt.Sprintf("c%d", t.router.seq.Add(1)), producer: producerID}, nil
}
func (t *fakeTransport) Close() error { t.closed.Store(true); return nil }

type fakeProducer struct {
	id       string
	kind     MediaKind
	closed   atomic.Bool
	closeErr error
}

func (p *fakeProducer) ID() string      { return p.id }
func (p *fakeProducer) Kind() MediaKind { return p.kind }
func (p *fakeProducer) Close() error    { p.closed.Store(true); return p.closeErr }

type fakeConsumer struct {
	id       string
	producer string
	closed   atomic.Bool
	resumed  atomic.Bool
}

func (c *fakeConsumer) ID() string         { return c.id }
func (c *fakeConsumer) ProducerID() string { return c.producer }
func (c *fakeConsumer) Kind() MediaKind    { return KindVideo }
func (c *fakeConsumer) Params() ConsumerParams {
	return ConsumerParams{ID: c.id, ProducerID: c.producer, Kind: KindVideo}
}
func (c *fakeConsumer) Resume() error { c.resumed.Store(true); return nil }
func (c *fakeConsumer) Close() error  { c.closed.Store(true); return nil }

type delivery struct {
	To    domain.MemberID
	Event Event
}

type recorder struct {
	mu  sync.Mutex
	got []delivery
}

func (r *recorder) Notify(_ domain.RoomName, to domain.MemberID, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, delivery{To: to, Event: ev})
}

func (r *recorder) of(typ string) []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []delivery
	for _, d := range r.got {
		if d.Event.Type == typ {
			out = append(out, d)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = nil
}

func member(id string) *domain.Account {
	return &domain.Account{ID: domain.MemberID(id), Name: id, Type: domain.AccountMember}
}

func guest(id string) *domain.Account {
	return &domain.Account{ID: domain.MemberID(id), Name: id, Type: domain.AccountGuest}
}

func newTestRoom(rec *recorder) (*Room, *fakeRouter) {
	router := newFakeRouter()
	r := NewRoom(RoomConfig{
		Name:      "math",
		Creator:   "teacher",
		Router:    router,
		Notifier:  rec,
		Policy:    domain.DefaultPolicy(),
		CreatedAt: 1,
	})
	return r, router
}
