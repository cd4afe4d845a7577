// Package history provides a SQLite-backed log of reconciliation runs.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Entry is one recorded reconciliation run.
type Entry struct {
	ID             int64
	SyncTime       time.Time
	Created        int
	Updated        int
	Deactivated    int
	Errors         int
	RecurringCount int
	TotalMonthly   decimal.Decimal
	ErrorDetail    string
}

// Store records reconciliation summaries in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the history database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records one run.
func (s *Store) Append(e Entry) error {
	_, err := s.db.Exec(`INSERT INTO sync_runs
		(sync_time, created_count, updated_count, deactivated_count,
		 error_count, recurring_count, total_monthly, error_detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SyncTime.UTC().Format(time.RFC3339),
		e.Created, e.Updated, e.Deactivated,
		e.Errors, e.RecurringCount,
		e.TotalMonthly.String(), e.ErrorDetail,
	)
	return err
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT
		id, sync_time, created_count, updated_count, deactivated_count,
		error_count, recurring_count, total_monthly, error_detail
		FROM sync_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var syncTime, totalMonthly string
		var detail sql.NullString

		err := rows.Scan(&e.ID, &syncTime, &e.Created, &e.Updated, &e.Deactivated,
			&e.Errors, &e.RecurringCount, &totalMonthly, &detail)
		if err != nil {
			return nil, err
		}

		e.SyncTime, _ = time.Parse(time.RFC3339, syncTime)
		if d, derr := decimal.NewFromString(totalMonthly); derr == nil {
			e.TotalMonthly = d
		}
		if detail.Valid {
			e.ErrorDetail = detail.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RunCount returns the number of recorded runs.
func (s *Store) RunCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sync_runs").Scan(&count)
	return count, err
}

// Prune deletes runs older than the cutoff, keeping the log bounded.
func (s *Store) Prune(olderThan time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM sync_runs WHERE sync_time < ?",
		olderThan.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// JoinErrorDetail flattens per-item error messages for storage.
func JoinErrorDetail(msgs []string) string {
	return strings.Join(msgs, "; ")
}
