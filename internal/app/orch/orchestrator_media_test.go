package orch

import (
	"context"
	"testing"

	"github.com/dkeye/rclass/internal/core"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.expectAdHocRoom("math")
	h.allowArchive()

	teacher := h.connect("teacher", domain.AccountMember)
	student := h.connect("student", domain.AccountMember)
	_, err := h.orch.Join(ctx, teacher, "math")
	require.NoError(t, err)
	_, err = h.orch.Join(ctx, student, "math")
	require.NoError(t, err)

	sendT, err := h.orch.CreateTransport(ctx, teacher, core.TransportOptions{Producing: true})
	require.NoError(t, err)
	answer, err := h.orch.ConnectTransport(ctx, teacher, sendT, core.ConnectParams{
		Description: &core.SessionDescription{Type: "offer", SDP: "v=0"},
	})
	require.NoError(t, err)
	assert.Equal(t, "answer", answer.Type)

	_, err = h.orch.ConnectTransport(ctx, student, sendT, core.ConnectParams{})
	assert.ErrorIs(t, err, domain.ErrNotFound, "transports are private to their owner")

	_, err = h.orch.Produce(ctx, teacher, sendT, "screen", core.RTPParameters{})
	assert.ErrorIs(t, err, domain.ErrBadPayload)
	producerID, err := h.orch.Produce(ctx, teacher, sendT, core.KindVideo, core.RTPParameters{})
	require.NoError(t, err)

	recvT, err := h.orch.CreateTransport(ctx, student, core.TransportOptions{Consuming: true})
	require.NoError(t, err)

	_, err = h.orch.Consume(ctx, student, recvT, producerID)
	assert.ErrorIs(t, err, domain.ErrBadPayload, "capabilities must be stored first")

	assert.ErrorIs(t, h.orch.StoreCapabilities(ctx, student, core.Capabilities{}), domain.ErrBadPayload)
	require.NoError(t, h.orch.StoreCapabilities(ctx, student, core.Capabilities{
		Codecs: []core.Codec{{Kind: core.KindVideo, MimeType: "video/VP8", ClockRate: 90000}},
	}))

	_, err = h.orch.Consume(ctx, student, recvT, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	params, err := h.orch.Consume(ctx, student, recvT, producerID)
	require.NoError(t, err)
	assert.Equal(t, producerID, params.ProducerID)

	require.NoError(t, h.orch.ResumeConsumer(ctx, student, params.ID))
	assert.ErrorIs(t, h.orch.ResumeConsumer(ctx, student, "nope"), domain.ErrNotFound)

	// The producer is gone once its owner leaves.
	require.NoError(t, h.orch.Leave(ctx, teacher))
	_, err = h.orch.Consume(ctx, student, recvT, producerID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMediaRequiresRoom(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := h.connect("alice", domain.AccountMember)

	_, err := h.orch.CreateTransport(ctx, sid, core.TransportOptions{})
	assert.ErrorIs(t, err, domain.ErrNotInRoom)
	assert.ErrorIs(t, h.orch.ResumeConsumer(ctx, sid, "c1"), domain.ErrNotInRoom)
}
