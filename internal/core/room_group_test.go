package core

import (
	"context"
	"testing"

	"github.com/dkeye/rclass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGroupCreateDowngradesForeignEndpoints(t *testing.T) {
	rec := &recorder{}
	r, router := newTestRoom(rec)
	ctx := context.Background()
	_, _ = r.Join(member("alice"), 0)
	_, _ = r.Join(member("bob"), 0)

	tr, _ := router.CreateTransport(ctx, TransportOptions{Producing: true})
	video, _ := tr.Produce(ctx, KindVideo, RTPParameters{})
	r.Clients["alice"].Producers[video.ID()] = video
	bobAudio, _ := tr.Produce(ctx, KindAudio, RTPParameters{})
	r.Clients["bob"].Producers[bobAudio.ID()] = bobAudio

	g, err := r.SetGroup("alice", 0, video.ID(), bobAudio.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, g.ID)
	assert.Equal(t, video.ID(), g.VideoID)
	assert.Equal(t, domain.NoEndpoint, g.AudioID)
	assert.Equal(t, domain.MemberID("alice"), g.Owner)
	assert.Contains(t, r.Clients["alice"].Groups, 1)

	ev := rec.of(EventGroupUpdate)
	require.Len(t, ev, 1)
	assert.Equal(t, domain.MemberID("bob"), ev[0].To)
	assert.Equal(t, groupUpdate{GroupID: 1, Mode: domain.GroupCreate, Data: g}, ev[0].Event.Data)

	g2, err := r.SetGroup("alice", 0, "", "")
	require.NoError(t, err)
	assert.Equal(t, 2, g2.ID)
}

func TestSetGroupEdit(t *testing.T) {
	rec := &recorder{}
	r, _ := newTestRoom(rec)
	_, _ = r.Join(member("alice"), 0)
	_, _ = r.Join(member("bob"), 0)
	g, err := r.SetGroup("alice", 0, "", "")
	require.NoError(t, err)

	_, err = r.SetGroup("bob", g.ID, "", "")
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = r.SetGroup("alice", 42, "", "")
	require.ErrorIs(t, err, domain.ErrNotFound)

	rec.reset()
	edited, err := r.SetGroup("alice", g.ID, "stale", "")
	require.NoError(t, err)
	assert.Equal(t, domain.NoEndpoint, edited.VideoID)
	ev := rec.of(EventGroupUpdate)
	require.Len(t, ev, 1)
	assert.Equal(t, domain.GroupEdit, ev[0].Event.Data.(groupUpdate).Mode)

	_, err = r.SetGroup("carol", 0, "", "")
	require.ErrorIs(t, err, domain.ErrNotInRoom)
}

func TestDelGroup(t *testing.T) {
	rec := &recorder{}
	r, _ := newTestRoom(rec)
	_, _ = r.Join(member("alice"), 0)
	_, _ = r.Join(member("bob"), 0)
	g, _ := r.SetGroup("alice", 0, "", "")

	_, err := r.DelGroup("bob", g.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, err = r.DelGroup("alice", 99)
	require.ErrorIs(t, err, domain.ErrNotFound)

	rec.reset()
	_, err = r.DelGroup("alice", g.ID)
	require.NoError(t, err)
	assert.Empty(t, r.Groups)
	assert.Empty(t, r.Clients["alice"].Groups)
	require.Len(t, rec.of(EventGroupUpdate), 1)
	assert.Empty(t, r.GroupList())
}
