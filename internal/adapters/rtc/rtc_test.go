package rtc

import (
	"context"
	"testing"

	"github.com/dkeye/rclass/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCodecs = []core.Codec{
	{Kind: core.KindAudio, MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2, PayloadType: 111},
	{Kind: core.KindVideo, MimeType: webrtc.MimeTypeVP8, ClockRate: 90000, PayloadType: 96},
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	w, err := NewWorker(Config{})
	require.NoError(t, err)
	r, err := w.CreateRouter(context.Background(), testCodecs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r.(*Router)
}

func TestWorkerRejectsBadConfig(t *testing.T) {
	_, err := NewWorker(Config{UDPPortMin: 5000, UDPPortMax: 4000})
	assert.Error(t, err)

	w, err := NewWorker(Config{})
	require.NoError(t, err)
	_, err = w.CreateRouter(context.Background(), nil)
	assert.Error(t, err)
	_, err = w.CreateRouter(context.Background(), []core.Codec{{Kind: "screen", MimeType: "video/VP8", ClockRate: 90000}})
	assert.Error(t, err)
}

func TestRouterCapabilities(t *testing.T) {
	r := newTestRouter(t)
	caps := r.Capabilities()
	assert.Len(t, caps.Codecs, 2)
	assert.True(t, caps.Supports("video/vp8"))
	assert.False(t, caps.Supports("video/H264"))
	assert.False(t, r.CanConsume("missing", caps))
}

// TestProduceConsumeNegotiation drives a client PeerConnection against a
// server transport: the client offers a video track, the server answers,
// and a second transport can consume the resulting producer.
func TestProduceConsumeNegotiation(t *testing.T) {
	ctx := context.Background()
	r := newTestRouter(t)

	client, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	track, err := webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000}, "cam", "alice")
	require.NoError(t, err)
	_, err = client.AddTrack(track)
	require.NoError(t, err)

	offer, err := client.CreateOffer(nil)
	require.NoError(t, err)
	require.NoError(t, client.SetLocalDescription(offer))

	send, err := r.CreateTransport(ctx, core.TransportOptions{Producing: true})
	require.NoError(t, err)
	answer, err := send.Connect(ctx, core.ConnectParams{Description: &core.SessionDescription{Type: "offer", SDP: offer.SDP}})
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Equal(t, "answer", answer.Type)
	require.NoError(t, client.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: answer.SDP}))

	_, err = send.Produce(ctx, core.KindVideo, core.RTPParameters{MimeType: "video/H264"})
	assert.Error(t, err, "router has no H264")
	p, err := send.Produce(ctx, core.KindVideo, core.RTPParameters{TrackID: "cam"})
	require.NoError(t, err)
	assert.Equal(t, core.KindVideo, p.Kind())

	caps := core.Capabilities{Codecs: testCodecs}
	assert.True(t, r.CanConsume(p.ID(), caps))
	assert.False(t, r.CanConsume(p.ID(), core.Capabilities{Codecs: testCodecs[:1]}))

	recv, err := r.CreateTransport(ctx, core.TransportOptions{Consuming: true})
	require.NoError(t, err)
	c, err := recv.Consume(ctx, p.ID(), caps)
	require.NoError(t, err)
	params := c.Params()
	assert.Equal(t, p.ID(), params.ProducerID)
	assert.Equal(t, webrtc.MimeTypeVP8, params.MimeType)

	// The server offers the new track to the consuming client.
	serverOffer, err := recv.Connect(ctx, core.ConnectParams{})
	require.NoError(t, err)
	require.NotNil(t, serverOffer)
	assert.Equal(t, "offer", serverOffer.Type)
	assert.Contains(t, serverOffer.SDP, "m=video")

	require.NoError(t, c.Resume())
	require.NoError(t, c.Close())
	assert.Error(t, c.Resume(), "closed consumers stay closed")

	require.NoError(t, p.Close())
	assert.False(t, r.CanConsume(p.ID(), caps))
	_, err = recv.Consume(ctx, p.ID(), caps)
	assert.Error(t, err)
}

func TestClosingProducerEndsItsConsumers(t *testing.T) {
	ctx := context.Background()
	r := newTestRouter(t)
	caps := core.Capabilities{Codecs: testCodecs}

	send, err := r.CreateTransport(ctx, core.TransportOptions{Producing: true})
	require.NoError(t, err)
	p, err := send.Produce(ctx, core.KindAudio, core.RTPParameters{})
	require.NoError(t, err)

	recv, err := r.CreateTransport(ctx, core.TransportOptions{Consuming: true})
	require.NoError(t, err)
	c, err := recv.Consume(ctx, p.ID(), caps)
	require.NoError(t, err)
	require.NoError(t, c.Resume())

	require.NoError(t, p.Close())
	assert.Error(t, c.Resume(), "consumer ended with its producer")
	assert.Empty(t, r.consumersOf(p.ID()))
	assert.Empty(t, recv.(*Transport).consumers)
}

func TestConnectRejectsUnknownSDPType(t *testing.T) {
	r := newTestRouter(t)
	tr, err := r.CreateTransport(context.Background(), core.TransportOptions{})
	require.NoError(t, err)
	_, err = tr.Connect(context.Background(), core.ConnectParams{Description: &core.SessionDescription{Type: "pranswer-ish", SDP: "v=0"}})
	assert.Error(t, err)
}

func TestClosedRouterRefusesTransports(t *testing.T) {
	r := newTestRouter(t)
	require.NoError(t, r.Close())
	_, err := r.CreateTransport(context.Background(), core.TransportOptions{})
	assert.Error(t, err)
	assert.NoError(t, r.Close(), "close is idempotent")
}
