// Package storage persists completed session summaries.
package storage

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/omnisight/backend/internal/domain"
)

// Store is the SQLite-backed session-log collaborator: append-only writes,
// newest-first reads. It holds no room state; live relay state stays in the
// registry only.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?cache=shared&mode=rwc", path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS session_logs (
			id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			task_type TEXT NOT NULL,
			summary TEXT NOT NULL,
			critical_interruptions INTEGER NOT NULL DEFAULT 0
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session_logs table: %w", err)
	}
	log.Info().Str("module", "storage").Str("path", path).Msg("session log store ready")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores one session log and returns it with its assigned id.
func (s *Store) Append(entry domain.SessionLog) (domain.SessionLog, error) {
	entry.ID = uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO session_logs (id, timestamp, duration_seconds, task_type, summary, critical_interruptions)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Timestamp, entry.DurationSeconds, entry.TaskType, entry.Summary, entry.CriticalInterruptions)
	if err != nil {
		return domain.SessionLog{}, fmt.Errorf("insert session log: %w", err)
	}
	return entry, nil
}

// ListRecent returns up to limit logs, newest first.
func (s *Store) ListRecent(limit int) ([]domain.SessionLog, error) {
	rows, err := s.db.Query(`
		SELECT id, timestamp, duration_seconds, task_type, summary, critical_interruptions
		FROM session_logs
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query session logs: %w", err)
	}
	defer rows.Close()

	out := []domain.SessionLog{}
	for rows.Next() {
		var entry domain.SessionLog
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.DurationSeconds,
			&entry.TaskType, &entry.Summary, &entry.CriticalInterruptions); err != nil {
			return nil, fmt.Errorf("scan session log: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
