package core

import (
	"fmt"

	"github.com/dkeye/rclass/internal/core/attendance"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type lessonStarted struct {
	StartTS int64 `json:"start_ts"`
}

type lessonEnded struct {
	StartTS int64 `json:"start_ts"`
	EndTS   int64 `json:"end_ts"`
}

// StartLesson moves Not started -> Started. Creator only.
func (r *Room) StartLesson(by domain.MemberID, now int64) (domain.Lesson, error) {
	if _, err := r.Session(by); err != nil {
		return r.Lesson, err
	}
	if by != r.Creator {
		return r.Lesson, domain.ErrNotCreator
	}
	if r.Lesson.State != domain.LessonNotStarted {
		return r.Lesson, domain.ErrAlreadyStarted
	}
	r.Lesson.State = domain.LessonStarted
	r.Lesson.StartTime = now
	r.cancelCloseTimer()
	log.Info().Str("module", "core.lesson").Str("room", string(r.Name)).Int64("start", now).Msg("lesson started")
	r.broadcast(Event{Type: EventLessonStarted, Data: lessonStarted{StartTS: now}}, by)
	return r.Lesson, nil
}

// EndLesson moves Started -> Ended and runs the completion check. Creator only.
func (r *Room) EndLesson(by domain.MemberID, now int64) (domain.Lesson, error) {
	if _, err := r.Session(by); err != nil {
		return r.Lesson, err
	}
	if by != r.Creator {
		return r.Lesson, domain.ErrNotCreator
	}
	switch r.Lesson.State {
	case domain.LessonNotStarted:
		return r.Lesson, domain.ErrNotStarted
	case domain.LessonEnded:
		return r.Lesson, domain.ErrAlreadyEnded
	}
	r.endLesson(now)
	r.broadcast(Event{Type: EventLessonEnded, Data: lessonEnded{StartTS: r.Lesson.StartTime, EndTS: now}}, by)
	r.CheckCompletion(now)
	return r.Lesson, nil
}

func (r *Room) endLesson(now int64) {
	r.Lesson.State = domain.LessonEnded
	r.Lesson.EndTime = now
	log.Info().Str("module", "core.lesson").Str("room", string(r.Name)).Int64("end", now).Msg("lesson ended")
}

// LogBackup stores the latest telemetry of the member's current connection.
// It returns the join timestamp the data was stored under.
func (r *Room) LogBackup(id domain.MemberID, data domain.PresenceData, now int64) (int64, error) {
	cs, err := r.Session(id)
	if err != nil {
		return 0, err
	}
	r.Logs[id][cs.JoinTS] = domain.PresenceEntry{EndTS: now, Log: data}
	return cs.JoinTS, nil
}

// LogComplete stores the final telemetry of the current connection, marks the
// member complete and runs the completion check.
func (r *Room) LogComplete(id domain.MemberID, data domain.PresenceData, now int64) (domain.PresenceLog, error) {
	if _, err := r.LogBackup(id, data, now); err != nil {
		return nil, err
	}
	r.LogComplete[id] = true
	r.CheckCompletion(now)
	return r.Logs[id], nil
}

// CheckCompletion finalizes attendance once every tracked member except the
// creator has completed its log. Members that left without completing are
// force-completed with an empty NO_CAMERA entry. It reports whether the
// room is finalized. Finalization happens at most once.
func (r *Room) CheckCompletion(now int64) bool {
	if r.Notified {
		return true
	}
	if r.Lesson.State != domain.LessonEnded {
		return false
	}
	pending := make([]domain.MemberID, 0)
	for _, id := range lo.Keys(r.LogComplete) {
		if r.LogComplete[id] || id == r.Creator {
			continue
		}
		if _, connected := r.Clients[id]; connected {
			pending = append(pending, id)
			continue
		}
		r.LogComplete[id] = true
		if logs, ok := r.Logs[id]; ok {
			logs[now] = placeholderEntry(now)
		}
		log.Info().Str("module", "core.lesson").Str("room", string(r.Name)).Str("member", string(id)).Msg("force-completed log of departed member")
	}
	if len(pending) > 0 {
		log.Debug().Str("module", "core.lesson").Str("room", string(r.Name)).Int("pending", len(pending)).Msg("attendance pending")
		return false
	}

	r.Notified = true
	r.Merged = attendance.MergeAll(r.Logs, r.Lesson.StartTime, r.Lesson.EndTime, r.Creator)
	r.broadcast(Event{Type: EventLogAllComplete, Data: r.Merged})
	r.Attendance = attendance.EvaluateAll(r.Merged, r.Policy, r.Creator, r.isGuest)
	r.broadcast(Event{Type: EventAttendance, Data: r.Attendance})
	log.Info().Str("module", "core.lesson").Str("room", string(r.Name)).Int("results", len(r.Attendance.Results)).Msg("attendance checked")
	return true
}

// OverrideAttendance replaces one member's verdict. Creator only, and only
// after attendance has been computed.
func (r *Room) OverrideAttendance(by, member domain.MemberID, status domain.AttendanceStatus, reason string) (*domain.AttendanceReport, error) {
	if _, err := r.Session(by); err != nil {
		return nil, err
	}
	if by != r.Creator {
		return nil, domain.ErrNotCreator
	}
	if r.Attendance == nil {
		return nil, domain.ErrNoAttendance
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	entry, ok := r.Attendance.Results[member]
	if !ok {
		return nil, fmt.Errorf("attendee %s: %w", member, domain.ErrNotFound)
	}
	if reason == "" {
		reason = attendance.ReasonOverride
	}
	entry.Status = status
	entry.Reason = reason
	r.Attendance.Results[member] = entry
	log.Info().Str("module", "core.lesson").Str("room", string(r.Name)).Str("member", string(member)).Str("status", string(status)).Msg("attendance override")
	r.broadcast(Event{Type: EventAttendance, Data: r.Attendance})
	return r.Attendance, nil
}

// isGuest: with a class roster a member is a guest unless enrolled,
// otherwise the account type decides.
func (r *Room) isGuest(id domain.MemberID) bool {
	if r.ClassID != "" && len(r.Roster) > 0 {
		return !lo.Contains(r.Roster, id)
	}
	return r.Guests[id]
}

func placeholderEntry(ts int64) domain.PresenceEntry {
	return domain.PresenceEntry{
		EndTS: ts,
		Log: domain.PresenceData{
			PerBlock: []domain.Block{{Label: domain.LabelNoCamera}},
		},
	}
}
