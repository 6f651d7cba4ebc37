package domain

// Minutes in a week; lesson times are expressed as minutes since Sunday 00:00.
const WeekMinutes = 7 * 24 * 60

// Class is a persisted course a room name can be bound to.
type Class struct {
	ID      string           `json:"class_id"`
	Name    string           `json:"class_name"`
	Alive   bool             `json:"alive"`
	Creator MemberID         `json:"creator_id"`
	Policy  AttendancePolicy `json:"policy"`
}

// ClassEvent is the payload of class_updated / class_time_updated.
type ClassEvent struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	Data   any    `json:"data"`
}
