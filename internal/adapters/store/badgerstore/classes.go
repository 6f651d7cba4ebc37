package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkeye/rclass/internal/core/schedule"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type classDoc struct {
	domain.Class
	Students []domain.MemberID `json:"students"`
}

// ownedClass loads a live class and checks that creator owns it.
func ownedClass(txn *badger.Txn, classID string, creator domain.MemberID) (*classDoc, error) {
	doc, err := get[classDoc](txn, classKey(classID))
	if err != nil {
		return nil, err
	}
	if !doc.Alive {
		return nil, domain.ErrNotFound
	}
	if doc.Creator != creator {
		return nil, domain.ErrNotCreator
	}
	return doc, nil
}

func lessonTimes(txn *badger.Txn, classID string) ([]domain.LessonTime, error) {
	times := make([]domain.LessonTime, 0)
	err := scan(txn, lessonTimePrefix(classID), false, func(lt domain.LessonTime) bool {
		times = append(times, lt)
		return true
	})
	return times, err
}

// GetClassSchedule resolves the live class named after the room, if any.
func (s *Store) GetClassSchedule(ctx context.Context, name domain.RoomName, now time.Time) (*domain.ClassSchedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var sched *domain.ClassSchedule
	err := s.db.View(func(txn *badger.Txn) error {
		id, err := get[string](txn, classNameKey(string(name)))
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		doc, err := get[classDoc](txn, classKey(*id))
		if err != nil {
			return err
		}
		if !doc.Alive {
			return nil
		}
		times, err := lessonTimes(txn, doc.ID)
		if err != nil {
			return err
		}
		sched = &domain.ClassSchedule{
			ClassID:   doc.ID,
			ClassName: doc.Name,
			Creator:   doc.Creator,
			Policy:    doc.Policy,
			Students:  doc.Students,
		}
		if w, ok := schedule.Resolve(times, now); ok {
			sched.Window = w
			sched.TooEarly = schedule.TooEarly(w, now)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("class schedule %s: %w", name, err)
	}
	return sched, nil
}

func (s *Store) CreateClass(ctx context.Context, c domain.Class) (*domain.Class, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.ID = uuid.NewString()
	c.Alive = true
	err := s.db.Update(func(txn *badger.Txn) error {
		taken, err := exists(txn, classNameKey(c.Name))
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrClassExists
		}
		if err := put(txn, classKey(c.ID), classDoc{Class: c, Students: []domain.MemberID{}}); err != nil {
			return err
		}
		return put(txn, classNameKey(c.Name), c.ID)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListClasses returns the live classes of creator ordered by name.
func (s *Store) ListClasses(ctx context.Context, creator domain.MemberID) ([]domain.Class, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	classes := make([]domain.Class, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, prefixClass, false, func(doc classDoc) bool {
			if doc.Alive && doc.Creator == creator {
				classes = append(classes, doc.Class)
			}
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	slices.SortFunc(classes, func(a, b domain.Class) int { return strings.Compare(a.Name, b.Name) })
	return classes, nil
}

// DeleteClass marks the class dead and frees its name. Archived rooms keep
// referring to it.
func (s *Store) DeleteClass(ctx context.Context, classID string, creator domain.MemberID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		doc, err := ownedClass(txn, classID, creator)
		if err != nil {
			return err
		}
		doc.Alive = false
		if err := put(txn, classKey(classID), doc); err != nil {
			return err
		}
		return txn.Delete([]byte(classNameKey(doc.Name)))
	})
}

func (s *Store) AddLessonTime(ctx context.Context, classID string, creator domain.MemberID, lt domain.LessonTime) (*domain.LessonTime, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if lt.Timezone == "" {
		lt.Timezone = schedule.DefaultTimezone
	}
	lt.ID = uuid.NewString()
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := ownedClass(txn, classID, creator); err != nil {
			return err
		}
		times, err := lessonTimes(txn, classID)
		if err != nil {
			return err
		}
		if lo.ContainsBy(times, func(other domain.LessonTime) bool { return schedule.Overlaps(lt, other) }) {
			return domain.ErrScheduleOverlap
		}
		if err := put(txn, lessonTimeKey(classID, lt.ID), lt); err != nil {
			return err
		}
		return put(txn, timeOwnerKey(lt.ID), classID)
	})
	if err != nil {
		return nil, err
	}
	return &lt, nil
}

func (s *Store) DeleteLessonTime(ctx context.Context, lessonTimeID string, creator domain.MemberID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		classID, err := get[string](txn, timeOwnerKey(lessonTimeID))
		if err != nil {
			return err
		}
		if _, err := ownedClass(txn, *classID, creator); err != nil {
			return err
		}
		if err := txn.Delete([]byte(lessonTimeKey(*classID, lessonTimeID))); err != nil {
			return err
		}
		return txn.Delete([]byte(timeOwnerKey(lessonTimeID)))
	})
}

// ListLessonTimes returns the weekly slots of a live class, earliest first.
func (s *Store) ListLessonTimes(ctx context.Context, classID string) ([]domain.LessonTime, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var times []domain.LessonTime
	err := s.db.View(func(txn *badger.Txn) error {
		doc, err := get[classDoc](txn, classKey(classID))
		if err != nil {
			return err
		}
		if !doc.Alive {
			return domain.ErrNotFound
		}
		times, err = lessonTimes(txn, classID)
		return err
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(times, func(a, b domain.LessonTime) int { return a.WeekStart - b.WeekStart })
	return times, nil
}

// EnrollStudent adds a registered member to the class roster. Enrolling
// twice is not an error.
func (s *Store) EnrollStudent(ctx context.Context, classID string, creator, student domain.MemberID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		doc, err := ownedClass(txn, classID, creator)
		if err != nil {
			return err
		}
		acc, err := get[domain.Account](txn, accountKey(student))
		if err != nil {
			return fmt.Errorf("student %s: %w", student, err)
		}
		if acc.Type != domain.AccountMember {
			return domain.ErrGuestForbidden
		}
		if lo.Contains(doc.Students, student) {
			return nil
		}
		doc.Students = append(doc.Students, student)
		return put(txn, classKey(classID), doc)
	})
}
