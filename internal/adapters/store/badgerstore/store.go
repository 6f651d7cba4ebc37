// Package badgerstore keeps rooms, classes and accounts in an embedded
// BadgerDB. It serves single-node deployments that run without Postgres;
// an empty path keeps everything in memory.
package badgerstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/rs/zerolog/log"
)

// guestTTL bounds how long a guest identity survives in the store.
const guestTTL = 24 * time.Hour

// Key layout. Numbers are zero padded so that keys sort chronologically.
const (
	prefixRoom       = "room:"
	prefixAttendance = "attendance:"
	prefixClass      = "class:"
	prefixClassName  = "class_name:"
	prefixLessonTime = "lesson_time:"
	prefixTimeOwner  = "lesson_time_class:"
	prefixLogin      = "account:login:"
	prefixAccount    = "account:id:"
)

func roomKey(id string) string { return prefixRoom + id }

func attendanceKey(member domain.MemberID, lessonStart int64, roomID string) string {
	return fmt.Sprintf("%s%s:%019d:%s", prefixAttendance, member, lessonStart, roomID)
}

func attendancePrefix(member domain.MemberID) string {
	return prefixAttendance + string(member) + ":"
}

func classKey(id string) string { return prefixClass + id }
func classNameKey(name string) string { return prefixClassName + name }
func lessonTimeKey(classID, id string) string { return prefixLessonTime + classID + ":" + id }
func lessonTimePrefix(classID string) string { return prefixLessonTime + classID + ":" }
func timeOwnerKey(id string) string { return prefixTimeOwner + id }
func loginKey(login string) string { return prefixLogin + strings.ToLower(login) }
func accountKey(id domain.MemberID) string { return prefixAccount + string(id) }

type Store struct {
	db *badger.DB
}

// Open opens (or creates) the database at path. An empty path yields an
// in-memory store that is lost on Close.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(badgerLogger{})
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	log.Info().Str("module", "store.badger").Str("path", path).Bool("in_memory", path == "").Msg("store opened")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// get decodes the JSON value at key. A missing key is domain.ErrNotFound.
func get[T any](txn *badger.Txn, key string) (*T, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	}); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &v, nil
}

func put(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// scan walks every key under prefix in key order (or reverse order) and
// decodes each value. fn returns false to stop early.
func scan[T any](txn *badger.Txn, prefix string, reverse bool, fn func(v T) bool) error {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = reverse
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	start := []byte(prefix)
	if reverse {
		start = append(start, 0xff)
	}
	for it.Seek(start); it.ValidForPrefix([]byte(prefix)); it.Next() {
		var v T
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		}); err != nil {
			return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
		}
		if !fn(v) {
			return nil
		}
	}
	return nil
}

// badgerLogger routes badger's internal logging through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, args ...any) {
	log.Error().Str("module", "store.badger").Msgf(strings.TrimSpace(f), args...)
}

func (badgerLogger) Warningf(f string, args ...any) {
	log.Warn().Str("module", "store.badger").Msgf(strings.TrimSpace(f), args...)
}

func (badgerLogger) Infof(f string, args ...any) {
	log.Debug().Str("module", "store.badger").Msgf(strings.TrimSpace(f), args...)
}

func (badgerLogger) Debugf(f string, args ...any) {
	log.Trace().Str("module", "store.badger").Msgf(strings.TrimSpace(f), args...)
}
