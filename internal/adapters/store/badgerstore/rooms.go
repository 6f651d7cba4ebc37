package badgerstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type roomDoc struct {
	ID      string              `json:"room_id"`
	Record  domain.RoomRecord   `json:"record"`
	Archive *domain.RoomArchive `json:"archive,omitempty"`
}

func (s *Store) StoreRoom(ctx context.Context, rec domain.RoomRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	err := s.db.Update(func(txn *badger.Txn) error {
		return put(txn, roomKey(id), roomDoc{ID: id, Record: rec})
	})
	if err != nil {
		return "", fmt.Errorf("store room %s: %w", rec.Name, err)
	}
	return id, nil
}

// ArchiveRoom attaches the final snapshot to the room record and writes one
// attendance record per evaluated member. Guests get none; their identity
// does not outlive the session.
func (s *Store) ArchiveRoom(ctx context.Context, a domain.RoomArchive) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	written := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		doc, err := get[roomDoc](txn, roomKey(a.RecordID))
		if err != nil {
			return err
		}
		doc.Archive = &a
		if err := put(txn, roomKey(a.RecordID), doc); err != nil {
			return err
		}
		if a.Attendance == nil {
			return nil
		}
		for member, entry := range a.Attendance.Results {
			if entry.Guest {
				continue
			}
			rec := domain.AttendanceRecord{
				RoomID:      a.RecordID,
				ClassID:     a.ClassID,
				RoomName:    a.Name,
				SessionNo:   doc.Record.SessionNo,
				LessonStart: a.Attendance.LessonStart,
				LessonEnd:   a.Attendance.LessonEnd,
				Result:      entry,
			}
			if err := put(txn, attendanceKey(member, rec.LessonStart, a.RecordID), rec); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("archive room %s: %w", a.RecordID, err)
	}
	log.Debug().Str("module", "store.badger").Str("record", a.RecordID).Int("attendance", written).Int("chat", len(a.Chat)).Msg("room archived")
	return nil
}

func (s *Store) GetAttendanceResults(ctx context.Context, recordID string) (*domain.AttendanceReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var report *domain.AttendanceReport
	err := s.db.View(func(txn *badger.Txn) error {
		doc, err := get[roomDoc](txn, roomKey(recordID))
		if err != nil {
			return err
		}
		if doc.Archive == nil || doc.Archive.Attendance == nil {
			return domain.ErrNoAttendance
		}
		report = doc.Archive.Attendance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ListMyAttendance pages through a member's records, newest lesson first.
// Total counts every record that matches the time range.
func (s *Store) ListMyAttendance(ctx context.Context, q domain.AttendanceQuery) (*domain.AttendancePage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page := &domain.AttendancePage{Offset: q.Offset, Limit: q.Limit, Records: make([]domain.AttendanceRecord, 0)}
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, attendancePrefix(q.Member), true, func(rec domain.AttendanceRecord) bool {
			if q.Start > 0 && rec.LessonStart < q.Start {
				return true
			}
			if q.End > 0 && rec.LessonEnd > q.End {
				return true
			}
			if page.Total >= q.Offset && len(page.Records) < q.Limit {
				page.Records = append(page.Records, rec)
			}
			page.Total++
			return true
		})
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("list attendance of %s: %w", q.Member, err)
	}
	return page, nil
}
