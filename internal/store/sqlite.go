package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/pkg/errors"

	"github.com/comigor/econlux-go/internal/conversation"
	"github.com/comigor/econlux-go/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	history    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS bookmarks (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	widget_id  TEXT NOT NULL,
	created_at TEXT NOT NULL
);`

// SQLite is a Store backed by a single sqlite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create schema")
	}
	logger.L.Info("sqlite store initialized", "path", path)
	return &SQLite{db: db}, nil
}

// Open returns a SQLite store at path, or a Memory store if that fails.
func Open(path string) Store {
	s, err := OpenSQLite(path)
	if err != nil {
		logger.L.Warn("sqlite unavailable; using in-memory store", "error", err)
		return NewMemory()
	}
	return s
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) FindSession(ctx context.Context, id string) (*Session, error) {
	var (
		raw                  string
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT history, created_at, updated_at FROM sessions WHERE session_id = ?;`, id,
	).Scan(&raw, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find session %s", id)
	}

	sess := &Session{ID: id}
	if err := json.Unmarshal([]byte(raw), &sess.History); err != nil {
		return nil, errors.Wrapf(err, "decode history of session %s", id)
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	sess.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return sess, nil
}

// timeLayout keeps every stored timestamp the same width so that text
// ordering matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func (s *SQLite) UpsertSession(ctx context.Context, id string, history []conversation.Message, updatedAt time.Time) error {
	if history == nil {
		history = []conversation.Message{}
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return errors.Wrap(err, "encode history")
	}
	ts := formatTime(updatedAt)
	_, err = s.db.ExecContext(ctx, `
INSERT INTO sessions (session_id, history, created_at, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET history = excluded.history, updated_at = excluded.updated_at;`,
		id, string(raw), ts, ts)
	return errors.Wrapf(err, "upsert session %s", id)
}

func (s *SQLite) SaveBookmark(ctx context.Context, b Bookmark) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmarks (id, title, widget_id, created_at) VALUES (?, ?, ?, ?);`,
		b.ID, b.Title, b.WidgetID, formatTime(b.CreatedAt))
	return errors.Wrapf(err, "save bookmark %s", b.ID)
}

func (s *SQLite) ListBookmarks(ctx context.Context) ([]Bookmark, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, widget_id, created_at FROM bookmarks ORDER BY created_at DESC, id ASC;`)
	if err != nil {
		return nil, errors.Wrap(err, "list bookmarks")
	}
	defer rows.Close()

	out := []Bookmark{}
	for rows.Next() {
		var (
			b  Bookmark
			ts string
		)
		if err := rows.Scan(&b.ID, &b.Title, &b.WidgetID, &ts); err != nil {
			return nil, errors.Wrap(err, "scan bookmark")
		}
		b.CreatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, b)
	}
	return out, errors.Wrap(rows.Err(), "iterate bookmarks")
}
