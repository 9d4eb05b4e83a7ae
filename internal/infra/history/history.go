// Package history persists request outcomes so past runs can be listed,
// inspected, and pruned.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/Scarage1/API-Watch/internal/core/domain"
)

// ErrNotFound is returned when a record doesn't exist.
var ErrNotFound = errors.New("history record not found")

// Config holds history storage configuration.
type Config struct {
	Enabled   bool          `yaml:"enabled"`
	Path      string        `yaml:"path"`
	Retention time.Duration `yaml:"retention"`
}

// Source values for Record.Source.
const (
	SourceCLI   = "cli"
	SourceSuite = "suite"
)

// Record is one persisted request outcome. Bodies and headers are not kept;
// the record captures what a later `history` listing needs. Source tells
// whether the run came from a one-off CLI request or a suite case.
type Record struct {
	ID         string    `db:"id" json:"id"`
	Method     string    `db:"method" json:"method"`
	URL        string    `db:"url" json:"url"`
	Success    bool      `db:"success" json:"success"`
	StatusCode int       `db:"status_code" json:"status_code,omitempty"`
	Attempts   int       `db:"attempts" json:"attempts"`
	ElapsedMS  int64     `db:"elapsed_ms" json:"elapsed_ms"`
	SizeBytes  int64     `db:"size_bytes" json:"size_bytes"`
	ErrorKind  string    `db:"error_kind" json:"error_kind,omitempty"`
	ErrorMsg   string    `db:"error_msg" json:"error,omitempty"`
	Category   string    `db:"category" json:"category,omitempty"`
	Severity   string    `db:"severity" json:"severity,omitempty"`
	Issue      string    `db:"issue" json:"issue,omitempty"`
	Source     string    `db:"source" json:"source"`
	SuiteName  string    `db:"suite_name" json:"suite_name,omitempty"`
	CaseID     string    `db:"case_id" json:"case_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// FromResult converts an executed request into its history record. Callers
// fill Source and the suite fields.
func FromResult(res domain.Result) Record {
	rec := Record{
		ID:         res.ID,
		Method:     res.Method,
		URL:        res.URL,
		Success:    res.Success,
		StatusCode: res.StatusCode,
		Attempts:   res.Attempts,
		ElapsedMS:  res.Elapsed.Milliseconds(),
		SizeBytes:  res.Size,
		ErrorKind:  string(res.ErrorKind),
		ErrorMsg:   res.Error,
		Source:     SourceCLI,
		CreatedAt:  res.StartedAt,
	}
	if res.Diagnosis != nil {
		rec.Category = string(res.Diagnosis.Category)
		rec.Severity = string(res.Diagnosis.Severity)
		rec.Issue = res.Diagnosis.Issue
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return rec
}

// Stats summarizes the stored records.
type Stats struct {
	Total  int64      `json:"total"`
	Failed int64      `json:"failed"`
	Oldest *time.Time `json:"oldest,omitempty"`
	Newest *time.Time `json:"newest,omitempty"`
}

// Store handles record persistence.
type Store interface {
	// Save saves one record.
	Save(ctx context.Context, rec Record) error

	// SaveBatch saves multiple records.
	SaveBatch(ctx context.Context, recs []Record) error

	// Get retrieves a record by id.
	Get(ctx context.Context, id string) (Record, error)

	// Recent retrieves the newest records, newest first. onlyFailed limits
	// the listing to failed runs.
	Recent(ctx context.Context, limit int, onlyFailed bool) ([]Record, error)

	// Prune deletes records older than the cutoff and reports how many went.
	Prune(ctx context.Context, olderThan time.Time) (int64, error)

	// Stats summarizes the stored records.
	Stats(ctx context.Context) (Stats, error)

	// Close releases the underlying resources.
	Close() error
}
