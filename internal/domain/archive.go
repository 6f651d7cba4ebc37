package domain

// RoomRecord is what gets persisted when a room is first created.
type RoomRecord struct {
	SessionNo int64            `json:"session_no"`
	Name      RoomName         `json:"room_name"`
	ClassID   string           `json:"class_id,omitempty"`
	Creator   MemberID         `json:"creator_id"`
	Reserved  *LessonWindow    `json:"reserved,omitempty"`
	Policy    AttendancePolicy `json:"policy"`
}

// RoomArchive is the finalized state of a destroyed room.
type RoomArchive struct {
	RecordID   string            `json:"room_id"`
	Name       RoomName          `json:"room_name"`
	ClassID    string            `json:"class_id,omitempty"`
	Creator    MemberID          `json:"creator_id"`
	Lesson     Lesson            `json:"lesson"`
	Policy     AttendancePolicy  `json:"policy"`
	Chat       []ChatMessage     `json:"chat"`
	Attendees  []MemberID        `json:"attendees"`
	Merged     *MergedLog        `json:"merged,omitempty"`
	Attendance *AttendanceReport `json:"attendance,omitempty"`
}

// AttendanceRecord is one archived lesson result of a single member.
type AttendanceRecord struct {
	RoomID      string          `json:"room_id"`
	ClassID     string          `json:"class_id,omitempty"`
	RoomName    RoomName        `json:"room_name"`
	SessionNo   int64           `json:"session_no"`
	LessonStart int64           `json:"lesson_start"`
	LessonEnd   int64           `json:"lesson_end"`
	Result      AttendanceEntry `json:"result"`
}

type AttendanceQuery struct {
	Member MemberID
	Start  int64
	End    int64
	Offset int
	Limit  int
}

type AttendancePage struct {
	Offset  int                `json:"offset"`
	Limit   int                `json:"limit"`
	Total   int                `json:"total_count"`
	Records []AttendanceRecord `json:"records"`
}
