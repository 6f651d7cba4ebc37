package domain

type BlockLabel string

const (
	LabelOpen     BlockLabel = "OPEN"
	LabelNotOpen  BlockLabel = "NOTOPEN"
	LabelNoFace   BlockLabel = "NOFACE"
	LabelNoCamera BlockLabel = "NO_CAMERA"
)

// Block is one labelled time slice of camera telemetry.
// StartMS/EndMS are relative to the owning entry's join time before a merge
// and relative to the lesson start after it.
type Block struct {
	StartMS      int64      `json:"start_ms"`
	EndMS        int64      `json:"end_ms"`
	Label        BlockLabel `json:"label"`
	ClosedFrames int64      `json:"closed_frames"`
	NoFaceFrames int64      `json:"noface_frames"`
	OpenFrames   int64      `json:"open_frames"`
	OpenRatio    float64    `json:"open_ratio"`
	TotalFrames  int64      `json:"total_frames"`
}

func (b Block) Duration() int64 {
	if b.EndMS <= b.StartMS {
		return 0
	}
	return b.EndMS - b.StartMS
}

type Summary struct {
	Blocks         int64   `json:"blocks"`
	FrameOpenRatio float64 `json:"frame_open_ratio"`
	NoCameraBlocks int64   `json:"no_camera_blocks"`
	NoFaceBlocks   int64   `json:"noface_blocks"`
	NotOpenBlocks  int64   `json:"notopen_blocks"`
	OpenBlocks     int64   `json:"open_blocks"`
	TotalClosed    int64   `json:"total_closed"`
	TotalFrames    int64   `json:"total_frames"`
	TotalNoFace    int64   `json:"total_noface"`
	TotalOpen      int64   `json:"total_open"`
}

// PresenceData is what a client reports through log_backup / log_complete.
type PresenceData struct {
	PerBlock []Block `json:"per_block"`
	Summary  Summary `json:"summary"`
}

type PresenceEntry struct {
	EndTS int64        `json:"end_ts"`
	Log   PresenceData `json:"log"`
}

// PresenceLog maps a join timestamp (unix ms) to the telemetry of that connection.
type PresenceLog map[int64]PresenceEntry

// MergedPresence is one member's log expressed in lesson-relative offsets.
type MergedPresence struct {
	PerBlock      []Block `json:"per_block"`
	Summary       Summary `json:"summary"`
	FirstAppearMS *int64  `json:"firstAppear_ms"`
	LastAppearMS  *int64  `json:"lastAppear_ms"`
}

type MergedLog struct {
	FullLog     map[MemberID]MergedPresence `json:"full_log"`
	LessonStart int64                       `json:"lesson_start"`
	LessonEnd   int64                       `json:"lesson_end"`
}
