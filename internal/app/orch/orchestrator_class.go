package orch

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeye/rclass/internal/app"
	"github.com/dkeye/rclass/internal/core"
	"github.com/dkeye/rclass/internal/core/schedule"
	"github.com/dkeye/rclass/internal/domain"
)

const (
	actionCreate = "create"
	actionDelete = "delete"
	actionEnroll = "enroll"
)

// LessonTimeSpec is a weekly slot as entered by a teacher, e.g. MON 09:00 to MON 10:30.
type LessonTimeSpec struct {
	StartDay        string
	StartTime       string
	EndDay          string
	EndTime         string
	Timezone        string
	EarlyOpenWindow int64
}

func (o *Orchestrator) CreateClass(ctx context.Context, sid app.SessionID, name string, policy *domain.AttendancePolicy) (*domain.Class, error) {
	acc, err := o.member(sid)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > domain.MaxRoomNameLen {
		return nil, fmt.Errorf("class name: %w", domain.ErrBadPayload)
	}
	c := domain.Class{Name: name, Alive: true, Creator: acc.ID, Policy: o.Policy}
	if policy != nil {
		c.Policy = *policy
	}
	created, err := o.Store.CreateClass(ctx, c)
	if err != nil {
		return nil, err
	}
	o.Registry.Broadcast(core.Event{Type: core.EventClassUpdated, Data: domain.ClassEvent{ID: created.ID, Action: actionCreate, Data: created}})
	return created, nil
}

func (o *Orchestrator) ListClasses(ctx context.Context, sid app.SessionID) ([]domain.Class, error) {
	acc, err := o.member(sid)
	if err != nil {
		return nil, err
	}
	return o.Store.ListClasses(ctx, acc.ID)
}

func (o *Orchestrator) DeleteClass(ctx context.Context, sid app.SessionID, classID string) error {
	acc, err := o.member(sid)
	if err != nil {
		return err
	}
	if err := o.Store.DeleteClass(ctx, classID, acc.ID); err != nil {
		return err
	}
	o.Registry.Broadcast(core.Event{Type: core.EventClassUpdated, Data: domain.ClassEvent{ID: classID, Action: actionDelete}})
	return nil
}

func (o *Orchestrator) AddLessonTime(ctx context.Context, sid app.SessionID, classID string, spec LessonTimeSpec) (*domain.LessonTime, error) {
	acc, err := o.member(sid)
	if err != nil {
		return nil, err
	}
	start, err := schedule.ToWeekMinutes(spec.StartDay, spec.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBadPayload, err)
	}
	end, err := schedule.ToWeekMinutes(spec.EndDay, spec.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBadPayload, err)
	}
	if start == end {
		return nil, fmt.Errorf("empty lesson time: %w", domain.ErrBadPayload)
	}
	if spec.EarlyOpenWindow < 0 {
		return nil, fmt.Errorf("early open window: %w", domain.ErrBadPayload)
	}
	lt := domain.LessonTime{WeekStart: start, WeekEnd: end, Timezone: spec.Timezone, EarlyOpenWindow: spec.EarlyOpenWindow}
	if lt.Timezone == "" {
		lt.Timezone = schedule.DefaultTimezone
	}
	added, err := o.Store.AddLessonTime(ctx, classID, acc.ID, lt)
	if err != nil {
		return nil, err
	}
	o.Registry.Broadcast(core.Event{Type: core.EventClassTimeUpdated, Data: domain.ClassEvent{ID: classID, Action: actionCreate, Data: added}})
	return added, nil
}

func (o *Orchestrator) DeleteLessonTime(ctx context.Context, sid app.SessionID, classID, lessonTimeID string) error {
	acc, err := o.member(sid)
	if err != nil {
		return err
	}
	if err := o.Store.DeleteLessonTime(ctx, lessonTimeID, acc.ID); err != nil {
		return err
	}
	o.Registry.Broadcast(core.Event{Type: core.EventClassTimeUpdated, Data: domain.ClassEvent{ID: classID, Action: actionDelete, Data: lessonTimeID}})
	return nil
}

func (o *Orchestrator) ListLessonTimes(ctx context.Context, sid app.SessionID, classID string) ([]domain.LessonTime, error) {
	if _, err := o.identity(sid); err != nil {
		return nil, err
	}
	return o.Store.ListLessonTimes(ctx, classID)
}

func (o *Orchestrator) EnrollStudent(ctx context.Context, sid app.SessionID, classID string, student domain.MemberID) error {
	acc, err := o.member(sid)
	if err != nil {
		return err
	}
	if err := o.Store.EnrollStudent(ctx, classID, acc.ID, student); err != nil {
		return err
	}
	o.Registry.Broadcast(core.Event{Type: core.EventClassUpdated, Data: domain.ClassEvent{ID: classID, Action: actionEnroll, Data: student}})
	return nil
}

// MyAttendance pages through the archived attendance of acc.
func (o *Orchestrator) MyAttendance(ctx context.Context, acc *domain.Account, q domain.AttendanceQuery) (*domain.AttendancePage, error) {
	if acc == nil {
		return nil, domain.ErrLoginRequired
	}
	if q.End != 0 && q.Start > q.End {
		return nil, fmt.Errorf("range: %w", domain.ErrBadPayload)
	}
	q.Member = acc.ID
	if q.Limit <= 0 || q.Limit > maxAttendancePage {
		q.Limit = defaultAttendancePage
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return o.Store.ListMyAttendance(ctx, q)
}

// RoomAttendance returns the archived report of one room session.
func (o *Orchestrator) RoomAttendance(ctx context.Context, recordID string) (*domain.AttendanceReport, error) {
	return o.Store.GetAttendanceResults(ctx, recordID)
}

const (
	defaultAttendancePage = 20
	maxAttendancePage     = 100
)
