package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/rclass/internal/core/schedule"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const classColumns = `class_id, class_name, alive, creator_id, min_part, max_noappear, start_late, early_exit`

func scanClass(row pgx.Row) (*domain.Class, error) {
	var c domain.Class
	err := row.Scan(&c.ID, &c.Name, &c.Alive, &c.Creator,
		&c.Policy.MinPart, &c.Policy.MaxNoAppear, &c.Policy.StartLate, &c.Policy.EarlyExit)
	if err != nil {
		return nil, noRows(err)
	}
	return &c, nil
}

// ownedClass locks a live class row and checks that creator owns it.
func ownedClass(ctx context.Context, tx pgx.Tx, classID string, creator domain.MemberID) (*domain.Class, error) {
	c, err := scanClass(tx.QueryRow(ctx, `SELECT `+classColumns+` FROM classes WHERE class_id = $1 AND alive FOR UPDATE`, classID))
	if err != nil {
		return nil, err
	}
	if c.Creator != creator {
		return nil, domain.ErrNotCreator
	}
	return c, nil
}

func lessonTimes(ctx context.Context, q querier, classID string) ([]domain.LessonTime, error) {
	rows, err := q.Query(ctx, `
		SELECT lesson_time_id, week_start, week_end, timezone, early_open_window
		FROM lesson_times WHERE class_id = $1
		ORDER BY week_start`, classID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LessonTime, error) {
		var lt domain.LessonTime
		err := row.Scan(&lt.ID, &lt.WeekStart, &lt.WeekEnd, &lt.Timezone, &lt.EarlyOpenWindow)
		return lt, err
	})
}

// GetClassSchedule resolves the live class named after the room, if any.
func (s *Store) GetClassSchedule(ctx context.Context, name domain.RoomName, now time.Time) (*domain.ClassSchedule, error) {
	c, err := scanClass(s.db.QueryRow(ctx, `SELECT `+classColumns+` FROM classes WHERE class_name = $1 AND alive`, string(name)))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("class schedule %s: %w", name, err)
	}
	times, err := lessonTimes(ctx, s.db, c.ID)
	if err != nil {
		return nil, fmt.Errorf("lesson times of %s: %w", c.ID, err)
	}
	rows, err := s.db.Query(ctx, `SELECT student_id FROM class_students WHERE class_id = $1 ORDER BY student_id`, c.ID)
	if err != nil {
		return nil, err
	}
	students, err := pgx.CollectRows(rows, pgx.RowTo[domain.MemberID])
	if err != nil {
		return nil, fmt.Errorf("students of %s: %w", c.ID, err)
	}

	sched := &domain.ClassSchedule{
		ClassID:   c.ID,
		ClassName: c.Name,
		Creator:   c.Creator,
		Policy:    c.Policy,
		Students:  students,
	}
	if w, ok := schedule.Resolve(times, now); ok {
		sched.Window = w
		sched.TooEarly = schedule.TooEarly(w, now)
	}
	return sched, nil
}

func (s *Store) CreateClass(ctx context.Context, c domain.Class) (*domain.Class, error) {
	c.ID = uuid.NewString()
	c.Alive = true
	_, err := s.db.Exec(ctx, `
		INSERT INTO classes (`+classColumns+`)
		VALUES ($1, $2, TRUE, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, string(c.Creator), c.Policy.MinPart, c.Policy.MaxNoAppear, c.Policy.StartLate, c.Policy.EarlyExit)
	if err != nil {
		return nil, mapPgError(err, domain.ErrClassExists)
	}
	return &c, nil
}

// ListClasses returns the live classes of creator ordered by name.
func (s *Store) ListClasses(ctx context.Context, creator domain.MemberID) ([]domain.Class, error) {
	rows, err := s.db.Query(ctx, `SELECT `+classColumns+` FROM classes WHERE creator_id = $1 AND alive ORDER BY class_name`, string(creator))
	if err != nil {
		return nil, err
	}
	classes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Class, error) {
		c, err := scanClass(row)
		if err != nil {
			return domain.Class{}, err
		}
		return *c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// DeleteClass marks the class dead, which frees its name. Archived rooms keep
// referring to it.
func (s *Store) DeleteClass(ctx context.Context, classID string, creator domain.MemberID) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := ownedClass(ctx, tx, classID, creator); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE classes SET alive = FALSE WHERE class_id = $1`, classID)
		return err
	})
}

func (s *Store) AddLessonTime(ctx context.Context, classID string, creator domain.MemberID, lt domain.LessonTime) (*domain.LessonTime, error) {
	if lt.Timezone == "" {
		lt.Timezone = schedule.DefaultTimezone
	}
	lt.ID = uuid.NewString()
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := ownedClass(ctx, tx, classID, creator); err != nil {
			return err
		}
		times, err := lessonTimes(ctx, tx, classID)
		if err != nil {
			return err
		}
		if lo.ContainsBy(times, func(other domain.LessonTime) bool { return schedule.Overlaps(lt, other) }) {
			return domain.ErrScheduleOverlap
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO lesson_times (lesson_time_id, class_id, week_start, week_end, timezone, early_open_window)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			lt.ID, classID, lt.WeekStart, lt.WeekEnd, lt.Timezone, lt.EarlyOpenWindow)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &lt, nil
}

func (s *Store) DeleteLessonTime(ctx context.Context, lessonTimeID string, creator domain.MemberID) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var classID string
		err := tx.QueryRow(ctx, `SELECT class_id FROM lesson_times WHERE lesson_time_id = $1`, lessonTimeID).Scan(&classID)
		if err != nil {
			return noRows(err)
		}
		if _, err := ownedClass(ctx, tx, classID, creator); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM lesson_times WHERE lesson_time_id = $1`, lessonTimeID)
		return err
	})
}

// ListLessonTimes returns the weekly slots of a live class, earliest first.
func (s *Store) ListLessonTimes(ctx context.Context, classID string) ([]domain.LessonTime, error) {
	var alive bool
	err := s.db.QueryRow(ctx, `SELECT alive FROM classes WHERE class_id = $1`, classID).Scan(&alive)
	if err != nil {
		return nil, noRows(err)
	}
	if !alive {
		return nil, domain.ErrNotFound
	}
	return lessonTimes(ctx, s.db, classID)
}

// EnrollStudent adds a registered member to the class roster. Enrolling
// twice is not an error.
func (s *Store) EnrollStudent(ctx context.Context, classID string, creator, student domain.MemberID) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := ownedClass(ctx, tx, classID, creator); err != nil {
			return err
		}
		var typ string
		err := tx.QueryRow(ctx, `SELECT account_type FROM accounts WHERE account_id = $1`, string(student)).Scan(&typ)
		if err != nil {
			return fmt.Errorf("student %s: %w", student, noRows(err))
		}
		if domain.AccountType(typ) != domain.AccountMember {
			return domain.ErrGuestForbidden
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO class_students (class_id, student_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, classID, string(student))
		return err
	})
}
