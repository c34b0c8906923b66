package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zhouzirui/soothe/backend/internal/model/chat"
	"github.com/zhouzirui/soothe/backend/internal/model/mood"
)

// SQLiteStore persists to a single SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *SQLiteStore) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			display_name TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chat_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_logs_user ON chat_logs(user_id, id)`,
		`CREATE TABLE IF NOT EXISTS mood_logs (
			user_id TEXT NOT NULL,
			date TEXT NOT NULL,
			mood INTEGER NOT NULL CHECK (mood BETWEEN 1 AND 5),
			note TEXT,
			PRIMARY KEY (user_id, date)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) UpsertUser(ctx context.Context, userID string, displayName *string) error {
	if err := validateUser(userID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, display_name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET display_name = COALESCE(excluded.display_name, users.display_name)
	`, userID, nullableString(displayName), s.timestamp())
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LogMessage(ctx context.Context, userID string, role chat.Role, content string) error {
	if err := validateUser(userID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_logs (user_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		userID, string(role), content, s.timestamp())
	if err != nil {
		return fmt.Errorf("log message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Messages(ctx context.Context, userID string, limit int) ([]chat.LogEntry, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, created_at FROM chat_logs
		WHERE user_id = ? ORDER BY id DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	entries := make([]chat.LogEntry, 0)
	for rows.Next() {
		var (
			id        int64
			role      string
			content   string
			createdAt string
		)
		if err := rows.Scan(&id, &role, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		parsedRole, err := chat.ParseRole(role)
		if err != nil {
			return nil, fmt.Errorf("scan message %d: %w", id, err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse message %d timestamp: %w", id, err)
		}
		entries = append(entries, chat.LogEntry{
			ID:        strconv.FormatInt(id, 10),
			UserID:    userID,
			Role:      parsedRole,
			Content:   content,
			CreatedAt: ts,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	reverse(entries)
	return entries, nil
}

func (s *SQLiteStore) LogMood(ctx context.Context, entry mood.Entry) error {
	if err := validateMood(entry); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO mood_logs (user_id, date, mood, note) VALUES (?, ?, ?, ?)`,
		entry.UserID, entry.Date, entry.Value, nullableString(entry.Note))
	if err != nil {
		return fmt.Errorf("log mood: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FetchMoodSeries(ctx context.Context, userID string, limitDays int) ([]mood.Point, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, mood FROM mood_logs WHERE user_id = ? ORDER BY date DESC LIMIT ?`,
		userID, seriesLimit(limitDays))
	if err != nil {
		return nil, fmt.Errorf("query mood series: %w", err)
	}
	defer rows.Close()

	points := make([]mood.Point, 0)
	for rows.Next() {
		var p mood.Point
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("scan mood: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mood series: %w", err)
	}

	// newest first from the query; callers want chronological order
	reverse(points)
	return points, nil
}

func (s *SQLiteStore) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func reverse[T any](items []T) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
