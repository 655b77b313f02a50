package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/elayon/psiq/internal/engine"

	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		createdAt REAL NOT NULL,
		subjectRef TEXT NOT NULL DEFAULT '',
		locationRef TEXT NOT NULL DEFAULT '',
		durationSeconds INTEGER NOT NULL DEFAULT 0,
		finalIndicators TEXT NOT NULL,
		averagedIndicators TEXT NOT NULL,
		peakIndicators TEXT NOT NULL,
		audio BLOB,
		audioType TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS sessions_createdAt ON sessions(createdAt);
`

// SQLite stores sessions in a single SQLite table.
type SQLite struct {
	db *sql.DB
}

// Open opens or creates the database at path. Use ":memory:" for a
// throwaway database.
func Open(path string) (*SQLite, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create database dir: %w", ErrPersistence, err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", ErrPersistence, err)
	}
	// One connection keeps ":memory:" a single database and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %w", ErrPersistence, err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Put inserts or replaces a session.
func (s *SQLite) Put(ctx context.Context, sess Session) error {
	if sess.ID == "" {
		return fmt.Errorf("%w: empty session id", ErrPersistence)
	}
	final, avg, peak, err := encodeVectors(sess)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, createdAt, subjectRef, locationRef, durationSeconds,
			finalIndicators, averagedIndicators, peakIndicators, audio, audioType, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			createdAt = excluded.createdAt,
			subjectRef = excluded.subjectRef,
			locationRef = excluded.locationRef,
			durationSeconds = excluded.durationSeconds,
			finalIndicators = excluded.finalIndicators,
			averagedIndicators = excluded.averagedIndicators,
			peakIndicators = excluded.peakIndicators,
			audio = excluded.audio,
			audioType = excluded.audioType,
			note = excluded.note
	`, sess.ID, unixFromTime(sess.CreatedAt), sess.SubjectRef, sess.LocationRef, sess.DurationSeconds,
		final, avg, peak, sess.Audio, sess.AudioType, sess.Note)
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", ErrPersistence, sess.ID, err)
	}
	return nil
}

// Get returns one session or ErrNotFound.
func (s *SQLite) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, createdAt, subjectRef, locationRef, durationSeconds,
			finalIndicators, averagedIndicators, peakIndicators, audio, audioType, note
		FROM sessions
		WHERE id = ?
	`, id)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: get %s: %w", ErrPersistence, id, err)
	}
	return sess, nil
}

// All returns every session, newest first.
func (s *SQLite) All(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, createdAt, subjectRef, locationRef, durationSeconds,
			finalIndicators, averagedIndicators, peakIndicators, audio, audioType, note
		FROM sessions
		ORDER BY createdAt DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query sessions: %w", ErrPersistence, err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan session: %w", ErrPersistence, err)
		}
		out = append(out, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate sessions: %w", ErrPersistence, err)
	}
	return out, nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrPersistence, id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (*Session, error) {
	var sess Session
	var createdAt float64
	var final, avg, peak string
	if err := sc.Scan(&sess.ID, &createdAt, &sess.SubjectRef, &sess.LocationRef, &sess.DurationSeconds,
		&final, &avg, &peak, &sess.Audio, &sess.AudioType, &sess.Note); err != nil {
		return nil, err
	}
	sess.CreatedAt = timeFromUnix(createdAt)

	for _, v := range []struct {
		raw string
		dst *engine.Indicators
	}{
		{final, &sess.FinalIndicators},
		{avg, &sess.AveragedIndicators},
		{peak, &sess.PeakIndicators},
	} {
		if err := json.Unmarshal([]byte(v.raw), v.dst); err != nil {
			return nil, fmt.Errorf("decode indicators: %w", err)
		}
	}
	return &sess, nil
}

func encodeVectors(sess Session) (final, avg, peak string, err error) {
	enc := func(v engine.Indicators) string {
		if err != nil {
			return ""
		}
		var b []byte
		b, err = json.Marshal(v)
		return string(b)
	}
	final, avg, peak = enc(sess.FinalIndicators), enc(sess.AveragedIndicators), enc(sess.PeakIndicators)
	if err != nil {
		err = fmt.Errorf("%w: encode indicators: %w", ErrPersistence, err)
	}
	return final, avg, peak, err
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).Round(time.Microsecond)
}
