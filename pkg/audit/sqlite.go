package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// schema creates the dispatch record table. The timestamp index serves
// both retention pruning and newest-first queries.
const schema = `
CREATE TABLE IF NOT EXISTS dispatches (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,
    time TIMESTAMP NOT NULL,

    method TEXT NOT NULL,
    path TEXT NOT NULL,
    service TEXT,
    subject TEXT,

    outcome TEXT NOT NULL,
    reason TEXT,
    upstream_status INTEGER,
    latency_ms INTEGER,
    retried BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_dispatches_time ON dispatches(time);
CREATE INDEX IF NOT EXISTS idx_dispatches_service ON dispatches(service);
`

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteStorage implements Storage on a SQLite database file.
type SQLiteStorage struct {
	db     *sql.DB
	insert *sql.Stmt
	logger *slog.Logger
}

// NewSQLiteStorage opens (creating if needed) the database at the
// configured path and prepares the schema.
func NewSQLiteStorage(config SQLiteConfig) (*SQLiteStorage, error) {
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = 10
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)

	s := &SQLiteStorage{
		db:     db,
		logger: slog.Default().With("component", "audit.sqlite"),
	}

	if err := s.initialize(config); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.logger.Info("audit storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

// initialize sets pragmas, creates the schema, and prepares the insert
// statement used on every dispatch.
func (s *SQLiteStorage) initialize(config SQLiteConfig) error {
	if config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", config.BusyTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}

	insert, err := s.db.Prepare(`
		INSERT INTO dispatches
		(id, request_id, time, method, path, service, subject, outcome, reason, upstream_status, latency_ms, retried)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	s.insert = insert
	return nil
}

// Insert stores one record.
func (s *SQLiteStorage) Insert(ctx context.Context, record *Record) error {
	_, err := s.insert.ExecContext(ctx,
		record.ID,
		record.RequestID,
		record.Time.UTC(),
		record.Method,
		record.Path,
		record.Service,
		record.Subject,
		record.Outcome,
		record.Reason,
		record.UpstreamStatus,
		record.LatencyMS,
		record.Retried,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *SQLiteStorage) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dispatches").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit records: %w", err)
	}
	return count, nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStorage) Recent(ctx context.Context, limit int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, time, method, path, service, subject, outcome, reason, upstream_status, latency_ms, retried
		FROM dispatches ORDER BY time DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		r := &Record{}
		if err := rows.Scan(
			&r.ID, &r.RequestID, &r.Time, &r.Method, &r.Path,
			&r.Service, &r.Subject, &r.Outcome, &r.Reason,
			&r.UpstreamStatus, &r.LatencyMS, &r.Retried,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// PruneBefore deletes records older than cutoff.
func (s *SQLiteStorage) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM dispatches WHERE time < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit records by age: %w", err)
	}
	return res.RowsAffected()
}

// PruneToCount deletes the oldest records until at most max remain.
func (s *SQLiteStorage) PruneToCount(ctx context.Context, max int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM dispatches WHERE id IN (
			SELECT id FROM dispatches ORDER BY time DESC, id DESC LIMIT -1 OFFSET ?
		)`, max)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit records by count: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if s.insert != nil {
		_ = s.insert.Close()
	}
	return s.db.Close()
}
