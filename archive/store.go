// Package archive persists change-snapshot reports to SQLite so a run can
// be audited after the browser session is gone.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/axwatch/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS change_reports (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	baseline_key TEXT NOT NULL,
	compare_key TEXT NOT NULL,
	created INTEGER NOT NULL,
	added INTEGER NOT NULL,
	removed INTEGER NOT NULL,
	changed INTEGER NOT NULL,
	report_text TEXT NOT NULL,
	diff_json BLOB,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_change_reports_session ON change_reports(session_id, created_at);
CREATE INDEX IF NOT EXISTS idx_change_reports_key ON change_reports(baseline_key);
`

// Store is a SQLite-backed report archive. It implements session.ReportSink.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the archive database at path with the usual
// production pragmas. Parent directories are created as needed.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("archive: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("archive: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: ping: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveReport persists one change-snapshot report.
func (s *Store) SaveReport(ctx context.Context, r *session.Report) error {
	created := 0
	if r.Created {
		created = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO change_reports
			(id, session_id, baseline_key, compare_key, created,
			 added, removed, changed, report_text, diff_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, r.BaselineKey, r.CompareKey, created,
		r.Added, r.Removed, r.Changed, r.Text, r.DiffJSON, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("archive: save report %s: %w", r.ID, err)
	}
	return nil
}

// Recent returns the newest reports for a session, most recent first.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]*session.Report, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, baseline_key, compare_key, created,
		       added, removed, changed, report_text, diff_json, created_at
		FROM change_reports
		WHERE session_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: query reports: %w", err)
	}
	defer rows.Close()

	var reports []*session.Report
	for rows.Next() {
		var r session.Report
		var created int
		if err := rows.Scan(&r.ID, &r.SessionID, &r.BaselineKey, &r.CompareKey, &created,
			&r.Added, &r.Removed, &r.Changed, &r.Text, &r.DiffJSON, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("archive: scan report: %w", err)
		}
		r.Created = created != 0
		reports = append(reports, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: iterate reports: %w", err)
	}
	return reports, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
