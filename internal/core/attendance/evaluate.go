package attendance

import (
	"github.com/dkeye/rclass/internal/domain"
	"github.com/samber/lo"
)

const (
	ReasonNeverAppeared = "never appeared"
	ReasonNoShow        = "no show"
	ReasonBelowMinPart  = "below min participation"
	ReasonLateAndEarly  = "late + early exit"
	ReasonLate          = "joined after start_late"
	ReasonEarlyExit     = "left early"
	ReasonPresent       = "all conditions ok"
	ReasonOverride      = "manual override"
)

// Evaluate classifies one merged log. The order of the checks matters: a
// participation ratio below the policy minimum overrides late and early flags.
func Evaluate(m *domain.MergedPresence, lessonStart, lessonEnd int64, p domain.AttendancePolicy) domain.Verdict {
	if m == nil || len(m.PerBlock) == 0 || m.FirstAppearMS == nil {
		return domain.Verdict{Status: domain.StatusAbsent, Reason: ReasonNeverAppeared}
	}
	first := *m.FirstAppearMS
	if first > p.MaxNoAppear {
		return domain.Verdict{Status: domain.StatusAbsent, Reason: ReasonNoShow}
	}
	duration := lessonEnd - lessonStart
	late := first > p.StartLate
	early := m.LastAppearMS != nil && duration-*m.LastAppearMS > p.EarlyExit

	var open int64
	for _, b := range m.PerBlock {
		if b.Label == domain.LabelOpen {
			open += b.Duration()
		}
	}
	var ratio float64
	if duration > 0 {
		ratio = float64(open) / float64(duration)
	}

	switch {
	case ratio < p.MinPart:
		return domain.Verdict{Status: domain.StatusAbsent, Reason: ReasonBelowMinPart}
	case late && early:
		return domain.Verdict{Status: domain.StatusAbsent, Reason: ReasonLateAndEarly}
	case late:
		return domain.Verdict{Status: domain.StatusLate, Reason: ReasonLate}
	case early:
		return domain.Verdict{Status: domain.StatusEarlyExit, Reason: ReasonEarlyExit}
	}
	return domain.Verdict{Status: domain.StatusPresent, Reason: ReasonPresent}
}

// EvaluateAll builds the attendance report for every merged member except
// creator. guest decides the guest flag of each member.
func EvaluateAll(merged *domain.MergedLog, p domain.AttendancePolicy, creator domain.MemberID, guest func(domain.MemberID) bool) *domain.AttendanceReport {
	report := &domain.AttendanceReport{
		LessonStart: merged.LessonStart,
		LessonEnd:   merged.LessonEnd,
		Results:     make(map[domain.MemberID]domain.AttendanceEntry, len(merged.FullLog)),
	}
	for _, id := range lo.Keys(merged.FullLog) {
		if id == creator {
			continue
		}
		m := merged.FullLog[id]
		v := Evaluate(&m, merged.LessonStart, merged.LessonEnd, p)
		summary := m.Summary
		report.Results[id] = domain.AttendanceEntry{
			Status:   v.Status,
			Reason:   v.Reason,
			Guest:    guest(id),
			Detail:   &summary,
			PerBlock: m.PerBlock,
		}
	}
	return report
}
