package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/scheerer/redlight/internal/game"
)

// timeLayout is fixed width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record is one finished game.
type Record struct {
	ID            string
	StartedAt     time.Time
	EndedAt       time.Time
	Reason        string
	Rounds        int
	StopsSurvived int
	Source        string
}

func (r Record) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// FromSession builds a record for an ended session.
func FromSession(s *game.Session, source string) Record {
	ended := s.EndedAt()
	if ended.IsZero() {
		ended = time.Now()
	}
	return Record{
		ID:            uuid.NewString(),
		StartedAt:     s.StartedAt(),
		EndedAt:       ended,
		Reason:        s.Reason().String(),
		Rounds:        s.Rounds(),
		StopsSurvived: s.StopsSurvived(),
		Source:        source,
	}
}

type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &Store{db: db}
	if err := store.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS games (
  id TEXT PRIMARY KEY,
  started_at TEXT NOT NULL,
  ended_at TEXT NOT NULL,
  reason TEXT NOT NULL,
  rounds INTEGER NOT NULL,
  stops_survived INTEGER NOT NULL,
  source TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create games table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS games_ended_at ON games (ended_at)`); err != nil {
		return fmt.Errorf("create games index: %w", err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, r Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	const stmt = `
INSERT INTO games (id, started_at, ended_at, reason, rounds, stops_survived, source)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, stmt,
		r.ID,
		r.StartedAt.UTC().Format(timeLayout),
		r.EndedAt.UTC().Format(timeLayout),
		r.Reason,
		r.Rounds,
		r.StopsSurvived,
		r.Source,
	)
	if err != nil {
		return fmt.Errorf("save game %s: %w", r.ID, err)
	}
	return nil
}

// Recent returns up to limit records, most recently ended first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, ended_at, reason, rounds, stops_survived, source
FROM games
ORDER BY ended_at DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var started, ended string
		if err := rows.Scan(&r.ID, &started, &ended, &r.Reason, &r.Rounds, &r.StopsSurvived, &r.Source); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse started_at of %s: %w", r.ID, err)
		}
		if r.EndedAt, err = time.Parse(timeLayout, ended); err != nil {
			return nil, fmt.Errorf("parse ended_at of %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Best returns the record with the most stop phases survived.
func (s *Store) Best(ctx context.Context) (Record, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, started_at, ended_at, reason, rounds, stops_survived, source
FROM games
ORDER BY stops_survived DESC, ended_at ASC
LIMIT 1`)

	var r Record
	var started, ended string
	err := row.Scan(&r.ID, &started, &ended, &r.Reason, &r.Rounds, &r.StopsSurvived, &r.Source)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("query best game: %w", err)
	}
	if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return Record{}, false, fmt.Errorf("parse started_at of %s: %w", r.ID, err)
	}
	if r.EndedAt, err = time.Parse(timeLayout, ended); err != nil {
		return Record{}, false, fmt.Errorf("parse ended_at of %s: %w", r.ID, err)
	}
	return r, true, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
