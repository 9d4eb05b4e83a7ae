package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/Scarage1/API-Watch/internal/infra/metrics"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// OpenSQLite opens the database at cfg.Path, creating it and its directory
// if missing, and runs pending migrations.
func OpenSQLite(ctx context.Context, cfg Config) (*SQLiteStore, error) {
	path := cfg.Path
	if path == "" {
		path = "apiwatch.db"
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create history directory: %w", err)
			}
		}
	}

	// _time_format=sqlite keeps stored timestamps text-comparable in
	// chronological order; all writes go in as UTC.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite wants a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	s := &SQLiteStore{db: db}

	var total int64
	if err := db.GetContext(ctx, &total, `SELECT COUNT(*) FROM requests`); err == nil {
		metrics.HistoryRecords.Set(float64(total))
	}

	return s, nil
}

const insertRecord = `
	INSERT INTO requests (id, method, url, success, status_code, attempts, elapsed_ms, size_bytes, error_kind, error_msg, category, severity, issue, source, suite_name, case_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectRecord = `
	SELECT id, method, url, success, status_code, attempts, elapsed_ms, size_bytes, error_kind, error_msg, category, severity, issue, source, suite_name, case_id, created_at
	FROM requests
`

func insertArgs(rec Record) []any {
	return []any{
		rec.ID, rec.Method, rec.URL, rec.Success, rec.StatusCode, rec.Attempts,
		rec.ElapsedMS, rec.SizeBytes, rec.ErrorKind, rec.ErrorMsg,
		rec.Category, rec.Severity, rec.Issue, rec.Source, rec.SuiteName,
		rec.CaseID, rec.CreatedAt.UTC(),
	}
}

// Save saves one record.
func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	if _, err := s.db.ExecContext(ctx, insertRecord, insertArgs(rec)...); err != nil {
		return fmt.Errorf("failed to save history record: %w", err)
	}
	metrics.HistoryRecords.Inc()
	return nil
}

// SaveBatch saves multiple records in one transaction.
func (s *SQLiteStore) SaveBatch(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range recs {
		if _, err := tx.ExecContext(ctx, insertRecord, insertArgs(rec)...); err != nil {
			return fmt.Errorf("failed to save history record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history tx: %w", err)
	}
	metrics.HistoryRecords.Add(float64(len(recs)))
	return nil
}

// Get retrieves a record by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := s.db.GetContext(ctx, &rec, selectRecord+` WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to get history record: %w", err)
	}
	return rec, nil
}

// Recent retrieves the newest records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int, onlyFailed bool) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	query := selectRecord
	if onlyFailed {
		query += ` WHERE success = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`

	var recs []Record
	if err := s.db.SelectContext(ctx, &recs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list history records: %w", err)
	}
	return recs, nil
}

// Prune deletes records older than the cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM requests WHERE created_at < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	metrics.HistoryRecords.Sub(float64(n))
	return n, nil
}

// Stats summarizes the stored records.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	if err := s.db.GetContext(ctx, &stats.Total, `SELECT COUNT(*) FROM requests`); err != nil {
		return Stats{}, fmt.Errorf("failed to count history records: %w", err)
	}
	if err := s.db.GetContext(ctx, &stats.Failed, `SELECT COUNT(*) FROM requests WHERE success = 0`); err != nil {
		return Stats{}, fmt.Errorf("failed to count failed records: %w", err)
	}
	if stats.Total == 0 {
		return stats, nil
	}

	var oldest, newest time.Time
	if err := s.db.GetContext(ctx, &oldest, `SELECT created_at FROM requests ORDER BY created_at ASC, id ASC LIMIT 1`); err != nil {
		return Stats{}, fmt.Errorf("failed to read oldest record: %w", err)
	}
	if err := s.db.GetContext(ctx, &newest, `SELECT created_at FROM requests ORDER BY created_at DESC, id DESC LIMIT 1`); err != nil {
		return Stats{}, fmt.Errorf("failed to read newest record: %w", err)
	}
	stats.Oldest = &oldest
	stats.Newest = &newest
	return stats, nil
}

// Vacuum reclaims disk space after large prunes.
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
		return fmt.Errorf("failed to vacuum history database: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
