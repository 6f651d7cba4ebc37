package rtc

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/rclass/internal/core"
	"github.com/google/uuid"
	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Transport wraps one PeerConnection. Remote tracks arriving on it are matched
// to the producers registered through Produce.
type Transport struct {
	id     string
	pc     *webrtc.PeerConnection
	router *Router
	opts   core.TransportOptions
	cancel context.CancelFunc
	ctx    context.Context

	mu sync.Mutex
	// waiting producers have no track yet; unclaimed tracks have no producer yet.
	waiting   []*Producer
	unclaimed []*webrtc.TrackRemote
	owned     map[string]*Producer
	consumers map[string]*Consumer
	closeOnce sync.Once
}

func newTransport(id string, pc *webrtc.PeerConnection, r *Router, opts core.TransportOptions) *Transport {
	return &Transport{
		id:        id,
		pc:        pc,
		router:    r,
		opts:      opts,
		owned:     make(map[string]*Producer),
		consumers: make(map[string]*Consumer),
	}
}

func (t *Transport) ID() string { return t.id }

func (t *Transport) start(ctx context.Context) {
	t.ctx, t.cancel = context.WithCancel(ctx)
	log.Debug().Str("module", "rtc").Str("transport", t.id).Bool("producing", t.opts.Producing).Bool("consuming", t.opts.Consuming).Msg("transport started")

	t.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Info().Str("module", "rtc").Str("transport", t.id).Str("ice_state", s.String()).Msg("ICE state")
	})

	t.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "rtc").Str("transport", t.id).Str("peer_connection_state", s.String()).Msg("Peer state")
		if s == webrtc.PeerConnectionStateFailed {
			t.cancel()
		}
	})

	t.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		log.Info().
			Str("module", "rtc").
			Str("transport", t.id).
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("stream_id", track.StreamID()).
			Msg("OnTrack received")
		t.attach(track)
	})
}

// Connect applies the remote description and candidates. An offer is
// answered; a nil description makes the server offer, which is how
// consumers added since the last negotiation reach the client.
func (t *Transport) Connect(_ context.Context, params core.ConnectParams) (*core.SessionDescription, error) {
	var local *core.SessionDescription
	switch {
	case params.Description == nil:
		offer, err := t.pc.CreateOffer(nil)
		if err != nil {
			return nil, fmt.Errorf("create offer: %w", err)
		}
		if local, err = t.setLocal(offer); err != nil {
			return nil, err
		}
	default:
		sdpType := webrtc.NewSDPType(params.Description.Type)
		if sdpType != webrtc.SDPTypeOffer && sdpType != webrtc.SDPTypeAnswer {
			return nil, fmt.Errorf("unsupported sdp type %q", params.Description.Type)
		}
		remote := webrtc.SessionDescription{Type: sdpType, SDP: params.Description.SDP}
		if err := t.pc.SetRemoteDescription(remote); err != nil {
			return nil, fmt.Errorf("set remote description: %w", err)
		}
		if sdpType == webrtc.SDPTypeOffer {
			answer, err := t.pc.CreateAnswer(nil)
			if err != nil {
				return nil, fmt.Errorf("create answer: %w", err)
			}
			if local, err = t.setLocal(answer); err != nil {
				return nil, err
			}
		}
	}

	for _, c := range params.Candidates {
		if err := t.pc.AddICECandidate(webrtc.ICECandidateInit{
			Candidate:     c.Candidate,
			SDPMid:        c.SDPMid,
			SDPMLineIndex: c.SDPMLineIndex,
		}); err != nil {
			return nil, fmt.Errorf("add ice candidate: %w", err)
		}
	}
	return local, nil
}

// setLocal applies desc and waits for candidate gathering so the returned
// description is complete; no server side trickle is needed.
func (t *Transport) setLocal(desc webrtc.SessionDescription) (*core.SessionDescription, error) {
	gatherComplete := webrtc.GatheringCompletePromise(t.pc)
	if err := t.pc.SetLocalDescription(desc); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}
	<-gatherComplete
	ld := t.pc.LocalDescription()
	return &core.SessionDescription{Type: ld.Type.String(), SDP: ld.SDP}, nil
}

// Produce registers an inbound stream. The client's track may arrive before
// or after this call; params.TrackID pins a specific track.
func (t *Transport) Produce(_ context.Context, kind core.MediaKind, params core.RTPParameters) (core.Producer, error) {
	codec, ok := firstCodec(t.router.caps, kind, params.MimeType)
	if !ok {
		return nil, fmt.Errorf("no %s codec matches %q", kind, params.MimeType)
	}
	p := &Producer{
		id:        uuid.NewString(),
		kind:      kind,
		codec:     codec,
		trackID:   params.TrackID,
		transport: t,
	}
	t.router.addProducer(p)

	t.mu.Lock()
	t.owned[p.id] = p
	var track *webrtc.TrackRemote
	for i, cand := range t.unclaimed {
		if p.matches(cand) {
			track = cand
			t.unclaimed = append(t.unclaimed[:i], t.unclaimed[i+1:]...)
			break
		}
	}
	if track == nil {
		t.waiting = append(t.waiting, p)
	}
	t.mu.Unlock()

	if track != nil {
		p.bind(track)
	}
	return p, nil
}

// attach hands an arrived remote track to its producer, or parks it.
func (t *Transport) attach(track *webrtc.TrackRemote) {
	t.mu.Lock()
	var p *Producer
	for i, cand := range t.waiting {
		if cand.matches(track) {
			p = cand
			t.waiting = append(t.waiting[:i], t.waiting[i+1:]...)
			break
		}
	}
	if p == nil {
		t.unclaimed = append(t.unclaimed, track)
	}
	t.mu.Unlock()

	if p != nil {
		p.bind(track)
	}
}

// Consume adds an outbound track carrying another producer's stream. It starts
// muted; the client must renegotiate to receive it.
func (t *Transport) Consume(_ context.Context, producerID string, caps core.Capabilities) (core.Consumer, error) {
	p, ok := t.router.producer(producerID)
	if !ok {
		return nil, fmt.Errorf("producer %s not found", producerID)
	}
	if !caps.Supports(p.codec.MimeType) {
		return nil, fmt.Errorf("client cannot decode %s", p.codec.MimeType)
	}
	id := uuid.NewString()
	local, err := webrtc.NewTrackLocalStaticRTP(capability(p.codec), id, producerID)
	if err != nil {
		return nil, fmt.Errorf("new local track: %w", err)
	}
	sender, err := t.pc.AddTrack(local)
	if err != nil {
		return nil, fmt.Errorf("add track: %w", err)
	}
	go drainRTCP(sender)

	c := newConsumer(id, p, local, sender, t)
	t.mu.Lock()
	t.consumers[id] = c
	t.mu.Unlock()
	t.router.addConsumer(c)
	t.router.relays.AddSubscriber(producerID, id, c.out)
	return c, nil
}

// requestKeyframe asks the sender of a video track for a fresh keyframe.
func (t *Transport) requestKeyframe(ssrc webrtc.SSRC) {
	if err := t.pc.WriteRTCP([]rtcp.Packet{&rtcp.PictureLossIndication{MediaSSRC: uint32(ssrc)}}); err != nil {
		log.Debug().Err(err).Str("module", "rtc").Str("transport", t.id).Msg("write PLI")
	}
}

func (t *Transport) removeSender(sender *webrtc.RTPSender, consumerID string) {
	t.mu.Lock()
	delete(t.consumers, consumerID)
	t.mu.Unlock()
	if t.pc.ConnectionState() == webrtc.PeerConnectionStateClosed {
		return
	}
	if err := t.pc.RemoveTrack(sender); err != nil {
		log.Debug().Err(err).Str("module", "rtc").Str("transport", t.id).Msg("remove track")
	}
}

func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		if t.cancel != nil {
			t.cancel()
		}
		t.mu.Lock()
		producers := make([]*Producer, 0, len(t.owned))
		for _, p := range t.owned {
			producers = append(producers, p)
		}
		consumers := make([]*Consumer, 0, len(t.consumers))
		for _, c := range t.consumers {
			consumers = append(consumers, c)
		}
		t.mu.Unlock()
		for _, c := range consumers {
			c.release()
		}
		for _, p := range producers {
			p.release()
		}
		if err = t.pc.Close(); err != nil {
			log.Error().Err(err).Str("module", "rtc").Str("transport", t.id).Msg("close error")
			return
		}
		log.Info().Str("module", "rtc").Str("transport", t.id).Msg("closed")
	})
	return err
}

// drainRTCP keeps the sender's interceptors running until the track goes away.
func drainRTCP(sender *webrtc.RTPSender) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := sender.Read(buf); err != nil {
			return
		}
	}
}
