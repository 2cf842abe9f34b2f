// Package history journals scheduling outcomes to SQLite. It records what
// happened (fired, completed, cancelled, deleted), never the live schedule
// itself; the schedule stays in memory and dies with the process.
package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"clocked/pkg/logx"
)

// ErrDisabled is returned by a nil or closed journal.
var ErrDisabled = errors.New("history: disabled")

const schema = `
CREATE TABLE IF NOT EXISTS outcomes (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	at        TEXT NOT NULL,
	event_id  TEXT NOT NULL,
	kind      TEXT NOT NULL,
	title     TEXT,
	detail    TEXT
);
CREATE INDEX IF NOT EXISTS idx_outcomes_event ON outcomes(event_id);
CREATE INDEX IF NOT EXISTS idx_outcomes_at ON outcomes(at);
`

// Entry is one journaled outcome.
type Entry struct {
	ID      int64     `json:"id"`
	At      time.Time `json:"at"`
	EventID string    `json:"eventId"`
	Kind    string    `json:"kind"`
	Title   string    `json:"title,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

// Outcome kinds.
const (
	KindFired     = "fired"
	KindCompleted = "completed"
	KindCancelled = "cancelled"
	KindDeleted   = "deleted"
)

// Config controls where the journal lives.
type Config struct {
	Path        string
	BusyTimeout time.Duration
}

// Journal is an append-mostly outcome log backed by one SQLite file.
type Journal struct {
	db  *sql.DB
	log logx.Logger
}

// Open opens (and if needed creates) the journal database.
func Open(cfg Config, log logx.Logger) (*Journal, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = "./clocked-history.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec("PRAGMA busy_timeout = " + strconv.FormatInt(cfg.BusyTimeout.Milliseconds(), 10))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db, log: log}, nil
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Append writes one outcome. A zero At defaults to now.
func (j *Journal) Append(ctx context.Context, e Entry) error {
	if j == nil || j.db == nil {
		return ErrDisabled
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO outcomes(at, event_id, kind, title, detail) VALUES(?,?,?,?,?)`,
		e.At.Format(time.RFC3339Nano), e.EventID, e.Kind, nullStr(e.Title), nullStr(e.Detail),
	)
	return err
}

// Recent returns the newest entries, most recent first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if j == nil || j.db == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, at, event_id, kind, COALESCE(title,''), COALESCE(detail,'')
		 FROM outcomes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&e.ID, &at, &e.EventID, &e.Kind, &e.Title, &e.Detail); err != nil {
			return nil, err
		}
		if t, perr := time.Parse(time.RFC3339Nano, at); perr == nil {
			e.At = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
