// Package transcript archives expired conversations in SQLite.
package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/itspaulthegreat/ai-customer-service-bot/internal/logger"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/memory"
)

const defaultLimit = 20

const schema = `
CREATE TABLE IF NOT EXISTS transcripts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_key TEXT NOT NULL,
    user_id TEXT NOT NULL,
    last_activity TEXT NOT NULL,
    message_count INTEGER NOT NULL,
    messages TEXT NOT NULL,
    archived_at DATETIME DEFAULT (datetime('now')),
    UNIQUE(session_key, last_activity)
);

CREATE INDEX IF NOT EXISTS idx_transcripts_user ON transcripts(user_id, last_activity DESC);
`

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open transcript db: %w", err)
	}

	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping transcript db: %w", err)
	}

	return db, nil
}

// NewStore creates the transcript archive using the provided database connection
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate transcripts: %w", err)
	}
	return s, nil
}

// Archive stores a batch in one transaction. A transcript already stored
// for the same session and last activity is skipped, so retried batches
// are safe.
func (s *Store) Archive(ctx context.Context, transcripts []memory.Transcript) error {
	if len(transcripts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transcripts (session_key, user_id, last_activity, message_count, messages)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, t := range transcripts {
		data, err := json.Marshal(t.Messages)
		if err != nil {
			return fmt.Errorf("encode %s: %w", t.Key, err)
		}

		res, err := stmt.ExecContext(ctx, t.Key, t.UserID, formatTime(t.LastActivity), len(t.Messages), string(data))
		if err != nil {
			return fmt.Errorf("insert %s: %w", t.Key, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += n
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	logger.Debug("transcripts archived", "batch", len(transcripts), "inserted", inserted)
	return nil
}

// ForUser returns the user's archived transcripts, newest first.
func (s *Store) ForUser(ctx context.Context, userID string, limit int) ([]memory.Transcript, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT session_key, user_id, last_activity, messages
		FROM transcripts
		WHERE user_id = ?
		ORDER BY last_activity DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []memory.Transcript
	for rows.Next() {
		var t memory.Transcript
		var lastActivity, data string
		if err := rows.Scan(&t.Key, &t.UserID, &lastActivity, &data); err != nil {
			return nil, err
		}
		t.LastActivity, _ = time.Parse(time.RFC3339Nano, lastActivity)
		if err := json.Unmarshal([]byte(data), &t.Messages); err != nil {
			return nil, fmt.Errorf("decode %s: %w", t.Key, err)
		}
		result = append(result, t)
	}

	return result, rows.Err()
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transcripts`).Scan(&n)
	return n, err
}

func (s *Store) Healthy(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// formatTime uses a fixed-width UTC layout so text ordering matches time ordering.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
