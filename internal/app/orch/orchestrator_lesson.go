package orch

import (
	"context"

	"github.com/dkeye/rclass/internal/app"
	"github.com/dkeye/rclass/internal/core"
	"github.com/dkeye/rclass/internal/domain"
)

// LessonStatus is the reply to lesson_state.
type LessonStatus struct {
	Lesson    domain.Lesson        `json:"lesson"`
	Reserved  *domain.LessonWindow `json:"reserved,omitempty"`
	IsCreator bool                 `json:"creator"`
}

func (o *Orchestrator) StartLesson(ctx context.Context, sid app.SessionID) (domain.Lesson, error) {
	var out domain.Lesson
	err := o.inRoom(ctx, sid, func(r *core.Room, me domain.MemberID) error {
		var err error
		out, err = r.StartLesson(me, o.nowMS())
		return err
	})
	return out, err
}

func (o *Orchestrator) EndLesson(ctx context.Context, sid app.SessionID) (domain.Lesson, error) {
	var out domain.Lesson
	err := o.inRoom(ctx, sid, func(r *core.Room, me domain.MemberID) error {
		var err error
		out, err = r.EndLesson(me, o.nowMS())
		return err
	})
	return out, err
}

func (o *Orchestrator) LessonState(ctx context.Context, sid app.SessionID) (LessonStatus, error) {
	var out LessonStatus
	err := o.inSession(ctx, sid, func(r *core.Room, cs *core.ClientSession) error {
		out = LessonStatus{Lesson: r.Lesson, Reserved: r.Reserved, IsCreator: cs.ID == r.Creator}
		return nil
	})
	return out, err
}

// LogBackup stores interim presence telemetry of the caller.
func (o *Orchestrator) LogBackup(ctx context.Context, sid app.SessionID, data domain.PresenceData) (int64, error) {
	var ts int64
	err := o.inRoom(ctx, sid, func(r *core.Room, me domain.MemberID) error {
		var err error
		ts, err = r.LogBackup(me, data, o.nowMS())
		return err
	})
	return ts, err
}

// LogComplete stores the caller's final telemetry and may finalize attendance.
func (o *Orchestrator) LogComplete(ctx context.Context, sid app.SessionID, data domain.PresenceData) (domain.PresenceLog, error) {
	var out domain.PresenceLog
	err := o.inRoom(ctx, sid, func(r *core.Room, me domain.MemberID) error {
		var err error
		out, err = r.LogComplete(me, data, o.nowMS())
		return err
	})
	return out, err
}

func (o *Orchestrator) OverrideAttendance(ctx context.Context, sid app.SessionID, member domain.MemberID, status domain.AttendanceStatus, reason string) (*domain.AttendanceReport, error) {
	var out *domain.AttendanceReport
	err := o.inRoom(ctx, sid, func(r *core.Room, me domain.MemberID) error {
		var err error
		out, err = r.OverrideAttendance(me, member, status, reason)
		return err
	})
	return out, err
}

// Attendance returns the computed attendance of the caller's room.
func (o *Orchestrator) Attendance(ctx context.Context, sid app.SessionID) (*domain.AttendanceReport, error) {
	var out *domain.AttendanceReport
	err := o.inSession(ctx, sid, func(r *core.Room, _ *core.ClientSession) error {
		if r.Attendance == nil {
			return domain.ErrNoAttendance
		}
		out = r.Attendance
		return nil
	})
	return out, err
}
