// Package postgres is the relational datastore: accounts, classes with
// their weekly lesson times, room records and archived chat and attendance.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/rclass/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DSN             string        `mapstructure:"dsn" validate:"required"`
	MaxConns        int32         `mapstructure:"max_conns" validate:"gte=0"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	ApplicationName string        `mapstructure:"application_name"`
}

type Store struct {
	db *pgxpool.Pool
}

// Open connects, pings and applies the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.ApplicationName != "" {
		pc.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	log.Info().Str("module", "store.postgres").Str("database", pc.ConnConfig.Database).Msg("store opened")
	return &Store{db: pool}, nil
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// inTx runs fn in a transaction that is committed only if fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func noRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// mapPgError translates driver errors; conflict is returned for unique
// violations.
func mapPgError(err, conflict error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return conflict
		case "23503": // foreign_key_violation
			return domain.ErrNotFound
		}
	}
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	account_id    TEXT PRIMARY KEY,
	login         TEXT UNIQUE,
	login_display TEXT,
	name          TEXT NOT NULL,
	account_type  TEXT NOT NULL,
	password_hash BYTEA,
	expires_at    TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS classes (
	class_id     TEXT PRIMARY KEY,
	class_name   TEXT NOT NULL,
	alive        BOOLEAN NOT NULL DEFAULT TRUE,
	creator_id   TEXT NOT NULL REFERENCES accounts (account_id),
	min_part     DOUBLE PRECISION NOT NULL,
	max_noappear BIGINT NOT NULL,
	start_late   BIGINT NOT NULL,
	early_exit   BIGINT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS classes_alive_name ON classes (class_name) WHERE alive;

CREATE TABLE IF NOT EXISTS lesson_times (
	lesson_time_id    TEXT PRIMARY KEY,
	class_id          TEXT NOT NULL REFERENCES classes (class_id) ON DELETE CASCADE,
	week_start        INTEGER NOT NULL,
	week_end          INTEGER NOT NULL,
	timezone          TEXT NOT NULL,
	early_open_window BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS class_students (
	class_id   TEXT NOT NULL REFERENCES classes (class_id) ON DELETE CASCADE,
	student_id TEXT NOT NULL REFERENCES accounts (account_id),
	PRIMARY KEY (class_id, student_id)
);

CREATE TABLE IF NOT EXISTS rooms (
	room_id        TEXT PRIMARY KEY,
	session_no     BIGINT NOT NULL,
	room_name      TEXT NOT NULL,
	class_id       TEXT,
	creator_id     TEXT NOT NULL,
	reserved_start BIGINT,
	reserved_end   BIGINT,
	policy         JSONB NOT NULL,
	lesson_state   TEXT,
	lesson_start   BIGINT,
	lesson_end     BIGINT,
	attendees      JSONB,
	merged_log     JSONB,
	attendance     JSONB,
	archived_at    TIMESTAMPTZ,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS chat_logs (
	room_id   TEXT NOT NULL REFERENCES rooms (room_id) ON DELETE CASCADE,
	chat_seq  BIGINT NOT NULL,
	msg_id    TEXT NOT NULL,
	sender_id TEXT NOT NULL,
	ts        BIGINT NOT NULL,
	msg       TEXT NOT NULL,
	mode      TEXT NOT NULL,
	PRIMARY KEY (room_id, chat_seq)
);

CREATE TABLE IF NOT EXISTS chat_targets (
	room_id   TEXT NOT NULL,
	chat_seq  BIGINT NOT NULL,
	target_id TEXT NOT NULL,
	PRIMARY KEY (room_id, chat_seq, target_id),
	FOREIGN KEY (room_id, chat_seq) REFERENCES chat_logs (room_id, chat_seq) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS attendance_logs (
	room_id      TEXT NOT NULL REFERENCES rooms (room_id) ON DELETE CASCADE,
	attendee_id  TEXT NOT NULL,
	lesson_start BIGINT NOT NULL,
	lesson_end   BIGINT NOT NULL,
	result       JSONB NOT NULL,
	PRIMARY KEY (room_id, attendee_id)
);
CREATE INDEX IF NOT EXISTS attendance_logs_attendee ON attendance_logs (attendee_id, lesson_start DESC);
`
