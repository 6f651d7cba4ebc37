// Package attendance turns per-connection presence telemetry into
// lesson-relative logs and classifies them against an attendance policy.
package attendance

import (
	"sort"

	"github.com/dkeye/rclass/internal/domain"
)

// Merge shifts every block of every connection entry to lesson-relative
// offsets, sorts them, clips them to [0, duration] and fills every gap with
// a NO_CAMERA block so the result covers the lesson exactly once.
func Merge(entries domain.PresenceLog, lessonStart, lessonEnd int64) domain.MergedPresence {
	duration := max(0, lessonEnd-lessonStart)

	blocks := make([]domain.Block, 0)
	for joinTS, entry := range entries {
		shift := joinTS - lessonStart
		for _, b := range entry.Log.PerBlock {
			b.StartMS += shift
			b.EndMS += shift
			blocks = append(blocks, b)
		}
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].StartMS != blocks[j].StartMS {
			return blocks[i].StartMS < blocks[j].StartMS
		}
		return blocks[i].EndMS < blocks[j].EndMS
	})

	filled := make([]domain.Block, 0, len(blocks)+1)
	var cursor int64
	for _, b := range blocks {
		b.StartMS = max(b.StartMS, cursor)
		b.EndMS = min(b.EndMS, duration)
		if b.EndMS <= b.StartMS {
			continue
		}
		if b.StartMS > cursor {
			filled = append(filled, noCamera(cursor, b.StartMS))
		}
		filled = append(filled, b)
		cursor = b.EndMS
	}
	if cursor < duration {
		filled = append(filled, noCamera(cursor, duration))
	}

	out := domain.MergedPresence{PerBlock: filled, Summary: summarize(filled)}
	for _, b := range filled {
		if b.Label != domain.LabelOpen {
			continue
		}
		if out.FirstAppearMS == nil {
			start := b.StartMS
			out.FirstAppearMS = &start
		}
		end := b.EndMS
		out.LastAppearMS = &end
	}
	return out
}

// MergeAll merges every member's log, skipping the excluded identity.
func MergeAll(logs map[domain.MemberID]domain.PresenceLog, lessonStart, lessonEnd int64, exclude domain.MemberID) *domain.MergedLog {
	out := &domain.MergedLog{
		FullLog:     make(map[domain.MemberID]domain.MergedPresence, len(logs)),
		LessonStart: lessonStart,
		LessonEnd:   lessonEnd,
	}
	for id, entries := range logs {
		if id == exclude {
			continue
		}
		out.FullLog[id] = Merge(entries, lessonStart, lessonEnd)
	}
	return out
}

func noCamera(start, end int64) domain.Block {
	return domain.Block{StartMS: start, EndMS: end, Label: domain.LabelNoCamera}
}

func summarize(blocks []domain.Block) domain.Summary {
	var s domain.Summary
	for _, b := range blocks {
		s.Blocks++
		switch b.Label {
		case domain.LabelOpen:
			s.OpenBlocks++
		case domain.LabelNotOpen:
			s.NotOpenBlocks++
		case domain.LabelNoFace:
			s.NoFaceBlocks++
		case domain.LabelNoCamera:
			s.NoCameraBlocks++
		}
		s.TotalClosed += b.ClosedFrames
		s.TotalNoFace += b.NoFaceFrames
		s.TotalOpen += b.OpenFrames
		s.TotalFrames += b.TotalFrames
	}
	if s.TotalFrames > 0 {
		s.FrameOpenRatio = float64(s.TotalOpen) / float64(s.TotalFrames)
	}
	return s
}
