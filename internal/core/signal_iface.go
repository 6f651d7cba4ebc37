package core

import "github.com/dkeye/rclass/internal/domain"

// Frame is a raw encoded message for a signal connection.
type Frame []byte

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Event is a server initiated message delivered to room members.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Notifier delivers events to a member of a room. It must never block:
// rooms call it while holding their exclusive state.
type Notifier interface {
	Notify(room domain.RoomName, to domain.MemberID, ev Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(room domain.RoomName, to domain.MemberID, ev Event)

func (f NotifierFunc) Notify(room domain.RoomName, to domain.MemberID, ev Event) { f(room, to, ev) }

const (
	EventGroupUpdate      = "update_group_one"
	EventChatMessage      = "chat_message"
	EventLessonStarted    = "lesson_started"
	EventLessonEnded      = "lesson_ended"
	EventLogAllComplete   = "log_all_complete"
	EventAttendance       = "attendance_checked"
	EventClassUpdated     = "class_updated"
	EventClassTimeUpdated = "class_time_updated"
)
