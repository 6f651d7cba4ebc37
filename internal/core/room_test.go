package core

import (
	"context"
	"testing"
	"time"

	"github.com/dkeye/rclass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomJoin(t *testing.T) {
	rec := &recorder{}
	r, _ := newTestRoom(rec)

	res, err := r.Join(member("teacher"), 100)
	require.NoError(t, err)
	assert.True(t, res.IsCreator)
	assert.Equal(t, domain.LessonNotStarted, res.Lesson)
	assert.NotEmpty(t, res.Capabilities.Codecs)

	res, err = r.Join(member("alice"), 100)
	require.NoError(t, err)
	assert.False(t, res.IsCreator)

	_, err = r.Join(member("alice"), 101)
	require.ErrorIs(t, err, domain.ErrAlreadyJoined)

	assert.Len(t, r.Clients, 2)
	assert.Contains(t, r.Logs["alice"], int64(100))
	assert.False(t, r.LogComplete["alice"])
}

func TestRoomJoinStartedLessonNotifiesJoiner(t *testing.T) {
	rec := &recorder{}
	r, _ := newTestRoom(rec)
	_, err := r.Join(member("teacher"), 0)
	require.NoError(t, err)
	_, err = r.StartLesson("teacher", 50)
	require.NoError(t, err)
	rec.reset()

	_, err = r.Join(member("bob"), 60)
	require.NoError(t, err)
	got := rec.of(EventLessonStarted)
	require.Len(t, got, 1)
	assert.Equal(t, domain.MemberID("bob"), got[0].To)
	assert.Equal(t, lessonStarted{StartTS: 50}, got[0].Event.Data)
}

func TestRoomJoinTooEarly(t *testing.T) {
	r := NewRoom(RoomConfig{
		Name:     "math",
		Router:   newFakeRouter(),
		Policy:   domain.DefaultPolicy(),
		Schedule: &domain.ClassSchedule{
			ClassID: "c1",
			Creator: "teacher",
			Policy:  domain.DefaultPolicy(),
			Window:  &domain.LessonWindow{Start: 1000, End: 5000, EarlyOpen: 500},
		},
	})

	_, err := r.Join(member("alice"), 100)
	require.ErrorIs(t, err, domain.ErrTooEarly)

	res, err := r.Join(member("teacher"), 100)
	require.NoError(t, err)
	assert.True(t, res.TooEarly)
	assert.True(t, res.IsCreator)

	_, err = r.Join(member("alice"), 600)
	require.NoError(t, err)
}

func TestRoomLeaveClosesEverything(t *testing.T) {
	rec := &recorder{}
	r, router := newTestRoom(rec)
	ctx := context.Background()
	_, err := r.Join(member("alice"), 0)
	require.NoError(t, err)
	_, err = r.Join(member("bob"), 0)
	require.NoError(t, err)

	alice := r.Clients["alice"]
	tr, _ := router.CreateTransport(ctx, TransportOptions{Producing: true})
	alice.Transports[tr.ID()] = tr
	p, _ := tr.Produce(ctx, KindVideo, RTPParameters{})
	p.(*fakeProducer).closeErr = errCloseFailed
	alice.Producers[p.ID()] = p

	bob := r.Clients["bob"]
	btr, _ := router.CreateTransport(ctx, TransportOptions{Consuming: true})
	bob.Transports[btr.ID()] = btr
	c, _ := btr.Consume(ctx, p.ID(), Capabilities{})
	bob.Consumers[c.ID()] = c

	g, err := r.SetGroup("alice", 0, p.ID(), "")
	require.NoError(t, err)
	rec.reset()

	require.NoError(t, r.Leave("alice", 10))

	assert.True(t, p.(*fakeProducer).closed.Load(), "failing close still attempted")
	assert.True(t, tr.(*fakeTransport).closed.Load(), "transport closed after a failing producer")
	assert.False(t, c.(*fakeConsumer).closed.Load(), "another member's consumer is left to the media layer")
	assert.Empty(t, bob.Consumers)
	assert.False(t, btr.(*fakeTransport).closed.Load())
	assert.NotContains(t, r.Groups, g.ID)
	assert.NotContains(t, r.Clients, domain.MemberID("alice"))

	del := rec.of(EventGroupUpdate)
	require.Len(t, del, 1)
	assert.Equal(t, domain.MemberID("bob"), del[0].To)
	assert.Equal(t, domain.GroupDelete, del[0].Event.Data.(groupUpdate).Mode)

	require.ErrorIs(t, r.Leave("alice", 11), domain.ErrNotInRoom)
}

func TestRoomDisposition(t *testing.T) {
	window := &domain.LessonWindow{Start: 1000, End: 5000, EarlyOpen: 0}
	cases := []struct {
		name   string
		state  domain.LessonState
		window *domain.LessonWindow
		now    int64
		want   Disposition
		after  time.Duration
	}{
		{"ad hoc not started", domain.LessonNotStarted, nil, 10, DestroyNow, 0},
		{"ended", domain.LessonEnded, window, 10, DestroyNow, 0},
		{"started", domain.LessonStarted, nil, 10, EndThenDestroy, 0},
		{"scheduled before window end", domain.LessonNotStarted, window, 2000, DestroyLater, 3 * time.Second},
		{"scheduled after window end", domain.LessonNotStarted, window, 6000, DestroyNow, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestRoom(&recorder{})
			r.Reserved = tc.window
			r.Lesson.State = tc.state
			d, after := r.Disposition(tc.now)
			assert.Equal(t, tc.want, d)
			assert.Equal(t, tc.after, after)
		})
	}

	r, _ := newTestRoom(&recorder{})
	_, err := r.Join(member("alice"), 0)
	require.NoError(t, err)
	d, _ := r.Disposition(0)
	assert.Equal(t, Keep, d)
}

func TestRoomDestroyEndsRunningLesson(t *testing.T) {
	rec := &recorder{}
	r, router := newTestRoom(rec)
	_, err := r.Join(member("teacher"), 0)
	require.NoError(t, err)
	_, err = r.Join(member("alice"), 0)
	require.NoError(t, err)
	_, err = r.StartLesson("teacher", 0)
	require.NoError(t, err)
	require.NoError(t, r.Leave("alice", 10))
	require.NoError(t, r.Leave("teacher", 20))

	d, _ := r.Disposition(20)
	require.Equal(t, EndThenDestroy, d)
	r.Destroy(context.Background(), nil, 30)

	assert.True(t, r.Closed())
	assert.True(t, router.closed.Load())
	assert.Equal(t, domain.LessonEnded, r.Lesson.State)
	assert.Equal(t, int64(30), r.Lesson.EndTime)
	require.NotNil(t, r.Attendance)
	assert.Equal(t, domain.StatusAbsent, r.Attendance.Results["alice"].Status)
	assert.NotContains(t, r.Attendance.Results, domain.MemberID("teacher"))
}

func TestRoomJoinCancelsCloseTimer(t *testing.T) {
	r, _ := newTestRoom(&recorder{})
	fired := make(chan struct{})
	r.ArmCloseTimer(time.AfterFunc(50*time.Millisecond, func() { close(fired) }))
	_, err := r.Join(member("alice"), 0)
	require.NoError(t, err)
	select {
	case <-fired:
		t.Fatal("close timer fired after a rejoin")
	case <-time.After(120 * time.Millisecond):
	}
}
