package orch

import (
	"context"
	"testing"

	"github.com/dkeye/rclass/internal/app"
	"github.com/dkeye/rclass/internal/core"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestLoginBindsIdentity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := app.SessionID("s1")
	h.orch.Registry.BindSignal(sid, &fakeConn{}, func() {})

	h.store.EXPECT().Authenticate(gomock.Any(), "alice", "wrong").Return(nil, domain.ErrInvalidCredential)
	_, err := h.orch.Login(ctx, sid, "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	_, err = h.orch.WhoAmI(sid)
	assert.ErrorIs(t, err, domain.ErrLoginRequired)

	acc := &domain.Account{ID: "u-1", Login: "alice", Name: "Alice", Type: domain.AccountMember}
	h.store.EXPECT().Authenticate(gomock.Any(), "alice", "secret").Return(acc, nil)
	got, err := h.orch.Login(ctx, sid, " alice ", "secret")
	require.NoError(t, err)
	assert.Equal(t, acc, got)
	me, err := h.orch.WhoAmI(sid)
	require.NoError(t, err)
	assert.Equal(t, domain.MemberID("u-1"), me.ID)
}

func TestIdentityIsFixedInsideRoom(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.expectAdHocRoom("math")
	h.allowArchive()

	sid := h.connect("alice", domain.AccountMember)
	_, err := h.orch.Join(ctx, sid, "math")
	require.NoError(t, err)

	_, err = h.orch.GuestLogin(ctx, sid, "someone")
	assert.ErrorIs(t, err, domain.ErrAlreadyJoined)
	_, err = h.orch.Login(ctx, sid, "bob", "x")
	assert.ErrorIs(t, err, domain.ErrAlreadyJoined)
}

func TestGuestLoginValidatesName(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := app.SessionID("s1")
	h.orch.Registry.BindSignal(sid, &fakeConn{}, func() {})

	_, err := h.orch.GuestLogin(ctx, sid, "   ")
	assert.ErrorIs(t, err, domain.ErrUsernameEmpty)

	h.store.EXPECT().CreateGuest(gomock.Any(), "Kim").Return(&domain.Account{ID: "guest-1", Name: "Kim", Type: domain.AccountGuest}, nil)
	acc, err := h.orch.GuestLogin(ctx, sid, " Kim ")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountGuest, acc.Type)
}

func TestClassManagement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	guest := h.connect("guest", domain.AccountGuest)
	teacher := h.connect("teacher", domain.AccountMember)

	_, err := h.orch.CreateClass(ctx, guest, "Algebra", nil)
	assert.ErrorIs(t, err, domain.ErrGuestForbidden)

	h.store.EXPECT().CreateClass(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c domain.Class) (*domain.Class, error) {
		c.ID = "c1"
		return &c, nil
	})
	class, err := h.orch.CreateClass(ctx, teacher, "Algebra", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.MemberID("teacher"), class.Creator)
	assert.Equal(t, domain.DefaultPolicy(), class.Policy)
	assert.Contains(t, h.conns[guest].types(), core.EventClassUpdated)

	_, err = h.orch.AddLessonTime(ctx, teacher, "c1", LessonTimeSpec{StartDay: "MOO", StartTime: "09:00", EndDay: "MON", EndTime: "10:30"})
	assert.ErrorIs(t, err, domain.ErrBadPayload)

	h.store.EXPECT().AddLessonTime(gomock.Any(), "c1", domain.MemberID("teacher"), domain.LessonTime{
		WeekStart:       1*24*60 + 9*60,
		WeekEnd:         1*24*60 + 10*60 + 30,
		Timezone:        "Asia/Seoul",
		EarlyOpenWindow: 600000,
	}).DoAndReturn(func(_ context.Context, _ string, _ domain.MemberID, lt domain.LessonTime) (*domain.LessonTime, error) {
		lt.ID = "lt1"
		return &lt, nil
	})
	lt, err := h.orch.AddLessonTime(ctx, teacher, "c1", LessonTimeSpec{StartDay: "MON", StartTime: "09:00", EndDay: "MON", EndTime: "10:30", EarlyOpenWindow: 600000})
	require.NoError(t, err)
	assert.Equal(t, "lt1", lt.ID)
	assert.Contains(t, h.conns[teacher].types(), core.EventClassTimeUpdated)

	h.store.EXPECT().AddLessonTime(gomock.Any(), "c1", gomock.Any(), gomock.Any()).Return(nil, domain.ErrScheduleOverlap)
	_, err = h.orch.AddLessonTime(ctx, teacher, "c1", LessonTimeSpec{StartDay: "MON", StartTime: "10:00", EndDay: "MON", EndTime: "11:00"})
	assert.ErrorIs(t, err, domain.ErrScheduleOverlap)

	h.store.EXPECT().DeleteClass(gomock.Any(), "c1", domain.MemberID("teacher")).Return(nil)
	require.NoError(t, h.orch.DeleteClass(ctx, teacher, "c1"))
}

func TestMyAttendanceClampsPaging(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.orch.MyAttendance(ctx, nil, domain.AttendanceQuery{})
	assert.ErrorIs(t, err, domain.ErrLoginRequired)

	acc := &domain.Account{ID: "u-1", Type: domain.AccountMember}
	_, err = h.orch.MyAttendance(ctx, acc, domain.AttendanceQuery{Start: 10, End: 5})
	assert.ErrorIs(t, err, domain.ErrBadPayload)

	h.store.EXPECT().ListMyAttendance(gomock.Any(), domain.AttendanceQuery{Member: "u-1", Limit: 20}).
		Return(&domain.AttendancePage{Limit: 20}, nil)
	page, err := h.orch.MyAttendance(ctx, acc, domain.AttendanceQuery{Member: "someone-else", Offset: -3, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 20, page.Limit)
}
