package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/rclass/internal/app"
	"github.com/dkeye/rclass/internal/app/orch"
	"github.com/dkeye/rclass/internal/domain"
)

type createClassPayload struct {
	Name   string                   `json:"class_name" validate:"required"`
	Policy *domain.AttendancePolicy `json:"policy"`
}

type classPayload struct {
	ClassID string `json:"class_id" validate:"required"`
}

type classTimePayload struct {
	ClassID         string `json:"class_id" validate:"required"`
	StartDay        string `json:"start_day" validate:"required,oneof=SUN MON TUE WED THU FRI SAT"`
	StartTime       string `json:"start_time" validate:"required"`
	EndDay          string `json:"end_day" validate:"required,oneof=SUN MON TUE WED THU FRI SAT"`
	EndTime         string `json:"end_time" validate:"required"`
	Timezone        string `json:"timezone" validate:"omitempty,timezone"`
	EarlyOpenWindow int64  `json:"early_open_window" validate:"gte=0"`
}

type deleteClassTimePayload struct {
	ClassID      string `json:"class_id" validate:"required"`
	LessonTimeID string `json:"lesson_time_id" validate:"required"`
}

type enrollPayload struct {
	ClassID string `json:"class_id" validate:"required"`
	Student string `json:"student_id" validate:"required"`
}

type myAttendancePayload struct {
	Start  int64 `json:"start"`
	End    int64 `json:"end"`
	Offset int   `json:"offset" validate:"gte=0"`
	Limit  int   `json:"limit" validate:"gte=0"`
}

func (ctl *SignalWSController) handleCreateClass(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[createClassPayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return ctl.Orch.CreateClass(ctx, sid, p.Name, p.Policy)
}

func (ctl *SignalWSController) handleListClasses(ctx context.Context, sid app.SessionID, _ json.RawMessage) (any, error) {
	return ctl.Orch.ListClasses(ctx, sid)
}

func (ctl *SignalWSController) handleDeleteClass(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[classPayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return nil, ctl.Orch.DeleteClass(ctx, sid, p.ClassID)
}

func (ctl *SignalWSController) handleAddClassTime(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[classTimePayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return ctl.Orch.AddLessonTime(ctx, sid, p.ClassID, orch.LessonTimeSpec{
		StartDay:        p.StartDay,
		StartTime:       p.StartTime,
		EndDay:          p.EndDay,
		EndTime:         p.EndTime,
		Timezone:        p.Timezone,
		EarlyOpenWindow: p.EarlyOpenWindow,
	})
}

func (ctl *SignalWSController) handleDeleteClassTime(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[deleteClassTimePayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return nil, ctl.Orch.DeleteLessonTime(ctx, sid, p.ClassID, p.LessonTimeID)
}

func (ctl *SignalWSController) handleListClassTime(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[classPayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return ctl.Orch.ListLessonTimes(ctx, sid, p.ClassID)
}

func (ctl *SignalWSController) handleEnrollStudent(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[enrollPayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return nil, ctl.Orch.EnrollStudent(ctx, sid, p.ClassID, domain.MemberID(p.Student))
}

func (ctl *SignalWSController) handleMyAttendance(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[myAttendancePayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	acc, err := ctl.Orch.WhoAmI(sid)
	if err != nil {
		return nil, err
	}
	return ctl.Orch.MyAttendance(ctx, acc, domain.AttendanceQuery{Start: p.Start, End: p.End, Offset: p.Offset, Limit: p.Limit})
}
