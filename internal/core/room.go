package core

import (
	"context"
	"time"

	"github.com/dkeye/rclass/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// RoomConfig holds everything a room is built from.
type RoomConfig struct {
	Name     domain.RoomName
	Creator  domain.MemberID
	Router   Router
	Notifier Notifier
	// Schedule is nil for ad hoc rooms.
	Schedule *domain.ClassSchedule
	// Policy applies when Schedule is nil.
	Policy    domain.AttendancePolicy
	CreatedAt int64
}

// Room is the whole state of one classroom session. It is owned by a single
// RoomActor; nothing outside the actor may touch it.
type Room struct {
	Name        domain.RoomName
	Creator     domain.MemberID
	ClassID     string
	RecordID    string
	SessionNo   int64
	Router      Router
	Clients     map[domain.MemberID]*ClientSession
	Groups      map[int]*domain.Group
	NextGroupID int
	LastSeq     int64
	ChatLog     []domain.ChatMessage
	Logs        map[domain.MemberID]domain.PresenceLog
	LogComplete map[domain.MemberID]bool
	Guests      map[domain.MemberID]bool
	Lesson      domain.Lesson
	Reserved    *domain.LessonWindow
	Roster      []domain.MemberID
	Policy      domain.AttendancePolicy
	Merged      *domain.MergedLog
	Attendance  *domain.AttendanceReport
	Notified    bool

	notifier   Notifier
	closeTimer *time.Timer
	closed     bool
}

func NewRoom(cfg RoomConfig) *Room {
	r := &Room{
		Name:        cfg.Name,
		Creator:     cfg.Creator,
		SessionNo:   cfg.CreatedAt,
		Router:      cfg.Router,
		Clients:     make(map[domain.MemberID]*ClientSession),
		Groups:      make(map[int]*domain.Group),
		NextGroupID: 1,
		ChatLog:     make([]domain.ChatMessage, 0),
		Logs:        make(map[domain.MemberID]domain.PresenceLog),
		LogComplete: make(map[domain.MemberID]bool),
		Guests:      make(map[domain.MemberID]bool),
		Lesson:      domain.Lesson{State: domain.LessonNotStarted},
		Policy:      cfg.Policy,
		notifier:    cfg.Notifier,
	}
	if s := cfg.Schedule; s != nil {
		r.ClassID = s.ClassID
		r.Policy = s.Policy
		r.Reserved = s.Window
		r.Roster = append([]domain.MemberID(nil), s.Students...)
		if s.Creator != "" {
			r.Creator = s.Creator
		}
	}
	if r.notifier == nil {
		r.notifier = NotifierFunc(func(domain.RoomName, domain.MemberID, Event) {})
	}
	return r
}

// JoinResult is returned to a member that entered the room.
type JoinResult struct {
	Capabilities Capabilities       `json:"rtpCapabilities"`
	IsCreator    bool               `json:"creator"`
	Lesson       domain.LessonState `json:"lesson_state"`
	JoinTS       int64              `json:"join_ts"`
	TooEarly     bool               `json:"too_early,omitempty"`
}

// Join registers acc as a member. now is unix milliseconds.
func (r *Room) Join(acc *domain.Account, now int64) (*JoinResult, error) {
	if _, ok := r.Clients[acc.ID]; ok {
		return nil, domain.ErrAlreadyJoined
	}
	early := r.TooEarly(now)
	if early && acc.ID != r.Creator {
		return nil, domain.ErrTooEarly
	}
	if early {
		log.Warn().Str("module", "core.room").Str("room", string(r.Name)).Str("member", string(acc.ID)).Msg("creator joined before the early open window")
	}
	r.cancelCloseTimer()

	logs, ok := r.Logs[acc.ID]
	if !ok {
		logs = make(domain.PresenceLog)
		r.Logs[acc.ID] = logs
	}
	// Join timestamps key the presence log; keep them unique per member.
	ts := now
	for {
		if _, taken := logs[ts]; !taken {
			break
		}
		ts++
	}
	logs[ts] = domain.PresenceEntry{EndTS: ts}
	r.LogComplete[acc.ID] = false
	r.Guests[acc.ID] = acc.Type == domain.AccountGuest

	cs := NewClientSession(acc, ts)
	r.Clients[acc.ID] = cs
	log.Info().Str("module", "core.room").Str("room", string(r.Name)).Str("member", string(acc.ID)).Int("members", len(r.Clients)).Msg("member joined")

	if r.Lesson.State == domain.LessonStarted {
		r.send(acc.ID, Event{Type: EventLessonStarted, Data: lessonStarted{StartTS: r.Lesson.StartTime}})
	}
	return &JoinResult{
		Capabilities: r.Router.Capabilities(),
		IsCreator:    acc.ID == r.Creator,
		Lesson:       r.Lesson.State,
		JoinTS:       ts,
		TooEarly:     early,
	}, nil
}

// TooEarly reports whether now precedes the reserved window's early open time
// of a lesson that has not started yet.
func (r *Room) TooEarly(now int64) bool {
	if r.Reserved == nil || r.Lesson.State != domain.LessonNotStarted {
		return false
	}
	return now < r.Reserved.EarlyOpen
}

// Session returns the member's session or ErrNotInRoom.
func (r *Room) Session(id domain.MemberID) (*ClientSession, error) {
	cs, ok := r.Clients[id]
	if !ok {
		return nil, domain.ErrNotInRoom
	}
	return cs, nil
}

// Leave runs the disconnect pipeline for a member: its own media is closed,
// other members forget consumers of its producers, owned groups are deleted
// with a broadcast, the session is dropped and, if the
// lesson already ended, the completion check runs again.
func (r *Room) Leave(id domain.MemberID, now int64) error {
	cs, ok := r.Clients[id]
	if !ok {
		return domain.ErrNotInRoom
	}

	produced := make(map[string]struct{}, len(cs.Producers))
	for pid := range cs.Producers {
		produced[pid] = struct{}{}
	}
	cs.closeMedia(r.Name)
	if len(produced) > 0 {
		for other, ocs := range r.Clients {
			if other != id {
				ocs.forgetConsumersOf(produced)
			}
		}
	}

	for _, gid := range lo.Keys(cs.Groups) {
		g, ok := r.Groups[gid]
		if !ok {
			continue
		}
		delete(r.Groups, gid)
		delete(cs.Groups, gid)
		r.broadcast(Event{Type: EventGroupUpdate, Data: groupUpdate{GroupID: gid, Mode: domain.GroupDelete, Data: *g}}, id)
	}

	delete(r.Clients, id)
	log.Info().Str("module", "core.room").Str("room", string(r.Name)).Str("member", string(id)).Int("members", len(r.Clients)).Msg("member left")

	if r.Lesson.State == domain.LessonEnded {
		r.CheckCompletion(now)
	}
	return nil
}

type Disposition int

const (
	Keep Disposition = iota
	DestroyNow
	EndThenDestroy
	DestroyLater
)

func (d Disposition) String() string {
	switch d {
	case DestroyNow:
		return "destroy"
	case EndThenDestroy:
		return "end_then_destroy"
	case DestroyLater:
		return "destroy_later"
	}
	return "keep"
}

// Disposition decides what happens to the room right now. For DestroyLater
// the returned duration is the time left until the reserved window ends.
func (r *Room) Disposition(now int64) (Disposition, time.Duration) {
	if len(r.Clients) > 0 {
		return Keep, 0
	}
	switch r.Lesson.State {
	case domain.LessonEnded:
		return DestroyNow, 0
	case domain.LessonStarted:
		return EndThenDestroy, 0
	}
	if r.Reserved == nil || now >= r.Reserved.End {
		return DestroyNow, 0
	}
	return DestroyLater, time.Duration(r.Reserved.End-now) * time.Millisecond
}

// ArmCloseTimer replaces the pending deferred destruction, if any.
func (r *Room) ArmCloseTimer(t *time.Timer) {
	r.cancelCloseTimer()
	r.closeTimer = t
}

func (r *Room) cancelCloseTimer() {
	if r.closeTimer != nil {
		r.closeTimer.Stop()
		r.closeTimer = nil
	}
}

// Destroy finalizes the room: a running lesson is ended implicitly, the router
// is released and the room is archived. Failures are logged; the room is
// marked closed regardless.
func (r *Room) Destroy(ctx context.Context, store RoomStore, now int64) {
	if r.closed {
		return
	}
	r.cancelCloseTimer()
	if r.Lesson.State == domain.LessonStarted {
		r.endLesson(now)
		log.Info().Str("module", "core.room").Str("room", string(r.Name)).Msg("lesson ended implicitly")
	}
	if r.Lesson.State == domain.LessonEnded && !r.Notified {
		r.CheckCompletion(now)
	}
	if r.Router != nil {
		if err := r.Router.Close(); err != nil {
			log.Error().Err(err).Str("module", "core.room").Str("room", string(r.Name)).Msg("close router")
		}
	}
	if store != nil {
		r.archive(ctx, store)
	}
	r.closed = true
	log.Info().Str("module", "core.room").Str("room", string(r.Name)).Msg("room destroyed")
}

func (r *Room) Closed() bool { return r.closed }

// archive writes the room to the datastore. A room whose record could not be
// stored at creation gets one now.
func (r *Room) archive(ctx context.Context, store RoomStore) {
	if r.RecordID == "" {
		id, err := store.StoreRoom(ctx, r.Record())
		if err != nil {
			log.Error().Err(err).Str("module", "core.room").Str("room", string(r.Name)).Msg("room has no record, archive skipped")
			return
		}
		r.RecordID = id
	}
	if err := store.ArchiveRoom(ctx, r.Archive()); err != nil {
		log.Error().Err(err).Str("module", "core.room").Str("room", string(r.Name)).Str("record", r.RecordID).Msg("archive room")
	}
}

// Archive snapshots the room for the datastore.
func (r *Room) Archive() domain.RoomArchive {
	return domain.RoomArchive{
		RecordID:   r.RecordID,
		Name:       r.Name,
		ClassID:    r.ClassID,
		Creator:    r.Creator,
		Lesson:     r.Lesson,
		Policy:     r.Policy,
		Chat:       append([]domain.ChatMessage(nil), r.ChatLog...),
		Attendees:  lo.Filter(lo.Keys(r.Logs), func(id domain.MemberID, _ int) bool { return id != r.Creator }),
		Merged:     r.Merged,
		Attendance: r.Attendance,
	}
}

// Record is what gets stored when the room is created.
func (r *Room) Record() domain.RoomRecord {
	return domain.RoomRecord{
		SessionNo: r.SessionNo,
		Name:      r.Name,
		ClassID:   r.ClassID,
		Creator:   r.Creator,
		Reserved:  r.Reserved,
		Policy:    r.Policy,
	}
}

func (r *Room) Info() domain.RoomInfo {
	return domain.RoomInfo{Name: r.Name, MemberCount: len(r.Clients), Lesson: r.Lesson.State}
}

// MemberView is a read-only member listing entry.
type MemberView struct {
	ID    domain.MemberID `json:"id"`
	Name  string          `json:"name"`
	Guest bool            `json:"guest"`
}

func (r *Room) Members() []MemberView {
	return lo.MapToSlice(r.Clients, func(id domain.MemberID, cs *ClientSession) MemberView {
		return MemberView{ID: id, Name: cs.Name, Guest: cs.Guest}
	})
}

func (r *Room) send(to domain.MemberID, ev Event) {
	r.notifier.Notify(r.Name, to, ev)
}

// broadcast delivers ev to every member except the listed ones.
func (r *Room) broadcast(ev Event, except ...domain.MemberID) {
	for id := range r.Clients {
		if lo.Contains(except, id) {
			continue
		}
		r.notifier.Notify(r.Name, id, ev)
	}
}
