package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/rclass/internal/app"
	"github.com/dkeye/rclass/internal/domain"
)

type joinPayload struct {
	Room string `json:"room_name" validate:"required"`
}

type presencePayload struct {
	Log domain.PresenceData `json:"log"`
}

type overridePayload struct {
	Member string `json:"client_id" validate:"required"`
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason"`
}

func (ctl *SignalWSController) handleJoin(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[joinPayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return ctl.Orch.Join(ctx, sid, domain.RoomName(p.Room))
}

func (ctl *SignalWSController) handleLeave(ctx context.Context, sid app.SessionID, _ json.RawMessage) (any, error) {
	return nil, ctl.Orch.Leave(ctx, sid)
}

func (ctl *SignalWSController) handleOnlineUsers(ctx context.Context, sid app.SessionID, _ json.RawMessage) (any, error) {
	return ctl.Orch.OnlineUsers(ctx, sid)
}

func (ctl *SignalWSController) handleRooms(ctx context.Context, _ app.SessionID, _ json.RawMessage) (any, error) {
	return ctl.Orch.ListRooms(ctx), nil
}

func (ctl *SignalWSController) handleLessonStart(ctx context.Context, sid app.SessionID, _ json.RawMessage) (any, error) {
	return ctl.Orch.StartLesson(ctx, sid)
}

func (ctl *SignalWSController) handleLessonEnd(ctx context.Context, sid app.SessionID, _ json.RawMessage) (any, error) {
	return ctl.Orch.EndLesson(ctx, sid)
}

func (ctl *SignalWSController) handleLessonState(ctx context.Context, sid app.SessionID, _ json.RawMessage) (any, error) {
	return ctl.Orch.LessonState(ctx, sid)
}

func (ctl *SignalWSController) handleLogBackup(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[presencePayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	ts, err := ctl.Orch.LogBackup(ctx, sid, p.Log)
	if err != nil {
		return nil, err
	}
	return map[string]int64{"join_ts": ts}, nil
}

func (ctl *SignalWSController) handleLogComplete(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[presencePayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return ctl.Orch.LogComplete(ctx, sid, p.Log)
}

func (ctl *SignalWSController) handleAttendanceOverride(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[overridePayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return ctl.Orch.OverrideAttendance(ctx, sid, domain.MemberID(p.Member), domain.AttendanceStatus(p.Status), p.Reason)
}

func (ctl *SignalWSController) handleAttendanceResults(ctx context.Context, sid app.SessionID, _ json.RawMessage) (any, error) {
	return ctl.Orch.Attendance(ctx, sid)
}
