package core

import (
	"context"
	"time"

	"github.com/dkeye/rclass/internal/domain"
)

//go:generate mockgen -destination=mocks/store_mock.go -package=mocks github.com/dkeye/rclass/internal/core Store

// RoomStore persists room sessions.
type RoomStore interface {
	StoreRoom(ctx context.Context, rec domain.RoomRecord) (string, error)
	ArchiveRoom(ctx context.Context, a domain.RoomArchive) error
	GetAttendanceResults(ctx context.Context, recordID string) (*domain.AttendanceReport, error)
	ListMyAttendance(ctx context.Context, q domain.AttendanceQuery) (*domain.AttendancePage, error)
}

// ClassStore persists classes and their weekly lesson times.
type ClassStore interface {
	// GetClassSchedule returns nil, nil when name is not bound to a live class.
	GetClassSchedule(ctx context.Context, name domain.RoomName, now time.Time) (*domain.ClassSchedule, error)
	CreateClass(ctx context.Context, c domain.Class) (*domain.Class, error)
	ListClasses(ctx context.Context, creator domain.MemberID) ([]domain.Class, error)
	DeleteClass(ctx context.Context, classID string, creator domain.MemberID) error
	AddLessonTime(ctx context.Context, classID string, creator domain.MemberID, lt domain.LessonTime) (*domain.LessonTime, error)
	DeleteLessonTime(ctx context.Context, lessonTimeID string, creator domain.MemberID) error
	ListLessonTimes(ctx context.Context, classID string) ([]domain.LessonTime, error)
	EnrollStudent(ctx context.Context, classID string, creator, student domain.MemberID) error
}

// AccountStore persists member and guest identities.
type AccountStore interface {
	CreateAccount(ctx context.Context, login, name, password string) (*domain.Account, error)
	CreateGuest(ctx context.Context, name string) (*domain.Account, error)
	Authenticate(ctx context.Context, login, password string) (*domain.Account, error)
}

type Store interface {
	RoomStore
	ClassStore
	AccountStore
	Close() error
}
