package postgres

import (
	"context"
	"fmt"

	"github.com/dkeye/rclass/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

func (s *Store) StoreRoom(ctx context.Context, rec domain.RoomRecord) (string, error) {
	id := uuid.NewString()
	var start, end *int64
	if rec.Reserved != nil {
		start, end = &rec.Reserved.Start, &rec.Reserved.End
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO rooms (room_id, session_no, room_name, class_id, creator_id, reserved_start, reserved_end, policy, lesson_state)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)`,
		id, rec.SessionNo, string(rec.Name), rec.ClassID, string(rec.Creator), start, end, rec.Policy, string(domain.LessonNotStarted))
	if err != nil {
		return "", fmt.Errorf("store room %s: %w", rec.Name, err)
	}
	return id, nil
}

// ArchiveRoom writes the final room state, its chat log with private
// targets and one attendance row per evaluated member, all in one
// transaction. Guests get no attendance row.
func (s *Store) ArchiveRoom(ctx context.Context, a domain.RoomArchive) error {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE rooms
			SET lesson_state = $2, lesson_start = NULLIF($3::bigint, 0), lesson_end = NULLIF($4::bigint, 0),
			    policy = $5, attendees = $6, merged_log = $7, attendance = $8, archived_at = now()
			WHERE room_id = $1`,
			a.RecordID, string(a.Lesson.State), a.Lesson.StartTime, a.Lesson.EndTime,
			a.Policy, a.Attendees, a.Merged, a.Attendance)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM chat_logs WHERE room_id = $1`, a.RecordID); err != nil {
			return err
		}
		chats := lo.Map(a.Chat, func(m domain.ChatMessage, _ int) []any {
			return []any{a.RecordID, m.Seq, m.MsgID, string(m.From), m.TS, m.Msg, string(m.Mode)}
		})
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"chat_logs"},
			[]string{"room_id", "chat_seq", "msg_id", "sender_id", "ts", "msg", "mode"},
			pgx.CopyFromRows(chats)); err != nil {
			return fmt.Errorf("copy chat: %w", err)
		}
		var targets [][]any
		for _, m := range a.Chat {
			if m.Mode != domain.ChatPrivate {
				continue
			}
			for _, to := range lo.Uniq(m.SendTo) {
				targets = append(targets, []any{a.RecordID, m.Seq, string(to)})
			}
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"chat_targets"},
			[]string{"room_id", "chat_seq", "target_id"},
			pgx.CopyFromRows(targets)); err != nil {
			return fmt.Errorf("copy chat targets: %w", err)
		}

		if a.Attendance == nil {
			return nil
		}
		batch := &pgx.Batch{}
		for member, entry := range a.Attendance.Results {
			if entry.Guest {
				continue
			}
			batch.Queue(`
				INSERT INTO attendance_logs (room_id, attendee_id, lesson_start, lesson_end, result)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (room_id, attendee_id) DO UPDATE SET result = EXCLUDED.result`,
				a.RecordID, string(member), a.Attendance.LessonStart, a.Attendance.LessonEnd, entry)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("archive room %s: %w", a.RecordID, err)
	}
	log.Debug().Str("module", "store.postgres").Str("record", a.RecordID).Int("chat", len(a.Chat)).Msg("room archived")
	return nil
}

func (s *Store) GetAttendanceResults(ctx context.Context, recordID string) (*domain.AttendanceReport, error) {
	var report *domain.AttendanceReport
	err := s.db.QueryRow(ctx, `SELECT attendance FROM rooms WHERE room_id = $1`, recordID).Scan(&report)
	if err != nil {
		return nil, noRows(err)
	}
	if report == nil {
		return nil, domain.ErrNoAttendance
	}
	return report, nil
}

// ListMyAttendance pages through a member's records, newest lesson first.
// Total counts every record that matches the time range.
func (s *Store) ListMyAttendance(ctx context.Context, q domain.AttendanceQuery) (*domain.AttendancePage, error) {
	page := &domain.AttendancePage{Offset: q.Offset, Limit: q.Limit, Records: make([]domain.AttendanceRecord, 0)}

	const filter = `
		FROM attendance_logs a
		JOIN rooms r ON r.room_id = a.room_id
		WHERE a.attendee_id = $1
		  AND ($2::bigint = 0 OR a.lesson_start >= $2)
		  AND ($3::bigint = 0 OR a.lesson_end <= $3)`
	if err := s.db.QueryRow(ctx, `SELECT count(*) `+filter, string(q.Member), q.Start, q.End).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("count attendance of %s: %w", q.Member, err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT a.room_id, COALESCE(r.class_id, ''), r.room_name, r.session_no, a.lesson_start, a.lesson_end, a.result `+filter+`
		ORDER BY a.lesson_start DESC, a.room_id
		OFFSET $4 LIMIT $5`,
		string(q.Member), q.Start, q.End, q.Offset, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("list attendance of %s: %w", q.Member, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec domain.AttendanceRecord
		if err := rows.Scan(&rec.RoomID, &rec.ClassID, &rec.RoomName, &rec.SessionNo, &rec.LessonStart, &rec.LessonEnd, &rec.Result); err != nil {
			return nil, err
		}
		page.Records = append(page.Records, rec)
	}
	return page, rows.Err()
}
