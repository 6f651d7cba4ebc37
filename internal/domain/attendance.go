package domain

type AttendanceStatus string

const (
	StatusPresent   AttendanceStatus = "present"
	StatusLate      AttendanceStatus = "late"
	StatusEarlyExit AttendanceStatus = "early_exit"
	StatusAbsent    AttendanceStatus = "absent"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusEarlyExit, StatusAbsent:
		return true
	}
	return false
}

// AttendancePolicy thresholds are milliseconds; MinPart is a ratio in [0,1].
type AttendancePolicy struct {
	MinPart     float64 `json:"min_part" mapstructure:"min_part" validate:"gte=0,lte=1"`
	MaxNoAppear int64   `json:"max_noappear" mapstructure:"max_noappear" validate:"gte=0"`
	StartLate   int64   `json:"start_late" mapstructure:"start_late" validate:"gte=0"`
	EarlyExit   int64   `json:"early_exit" mapstructure:"early_exit" validate:"gte=0"`
}

func DefaultPolicy() AttendancePolicy {
	return AttendancePolicy{
		MinPart:     0.7,
		MaxNoAppear: 5 * 60 * 1000,
		StartLate:   5 * 60 * 1000,
		EarlyExit:   10 * 60 * 1000,
	}
}

type Verdict struct {
	Status AttendanceStatus `json:"status"`
	Reason string           `json:"reason"`
}

type AttendanceEntry struct {
	Status   AttendanceStatus `json:"status"`
	Reason   string           `json:"reason"`
	Guest    bool             `json:"guest"`
	Detail   *Summary         `json:"detail"`
	PerBlock []Block          `json:"per_block"`
}

type AttendanceReport struct {
	LessonStart int64                        `json:"lesson_start"`
	LessonEnd   int64                        `json:"lesson_end"`
	Results     map[MemberID]AttendanceEntry `json:"results"`
}
