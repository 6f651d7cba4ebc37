package domain

type (
	RoomName string
	MemberID string
)

const MaxRoomNameLen = 64

// LessonState is the lesson timing state of a room.
// Only NotStarted -> Started -> Ended is legal.
type LessonState string

const (
	LessonNotStarted LessonState = "Not started"
	LessonStarted    LessonState = "Started"
	LessonEnded      LessonState = "Ended"
)

// Lesson timestamps are unix milliseconds, zero until the transition happens.
type Lesson struct {
	State     LessonState `json:"state"`
	StartTime int64       `json:"start_time,omitempty"`
	EndTime   int64       `json:"end_time,omitempty"`
}

// LessonWindow is a reserved lesson period resolved from a class schedule.
type LessonWindow struct {
	Start     int64 `json:"lesson_start"`
	End       int64 `json:"lesson_end"`
	EarlyOpen int64 `json:"early_open_time"`
}

// ClassSchedule describes the class a room name is bound to.
type ClassSchedule struct {
	ClassID   string           `json:"class_id"`
	ClassName string           `json:"class_name"`
	Creator   MemberID         `json:"creator"`
	Policy    AttendancePolicy `json:"policy"`
	Window    *LessonWindow    `json:"window,omitempty"`
	TooEarly  bool             `json:"too_early"`
	Students  []MemberID       `json:"students,omitempty"`
}

// LessonTime is one weekly recurring slot of a class, in minutes from Sunday 00:00.
type LessonTime struct {
	ID              string `json:"lesson_time_id"`
	WeekStart       int    `json:"week_start"`
	WeekEnd         int    `json:"week_end"`
	Timezone        string `json:"timezone"`
	EarlyOpenWindow int64  `json:"early_open_window"` // milliseconds
}

// RoomInfo is a read-only listing entry.
type RoomInfo struct {
	Name        RoomName    `json:"name"`
	MemberCount int         `json:"client_count"`
	Lesson      LessonState `json:"lesson_state"`
}
