package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// schema creates the single append-only relation. The implicit rowid is the
// only ordering key; the table deliberately has no uniqueness constraint so
// the same index can be requested many times.
const schema = `CREATE TABLE IF NOT EXISTS values_log (
	number INTEGER NOT NULL
);`

// SQLiteStore persists the request history in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) a SQLite history store at path.
//
// Parameters:
//   - path: The database file path.
//
// Returns:
//   - *SQLiteStore: The opened store.
//   - error: An error if the database cannot be opened or initialized.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history database path is required")
	}
	cleanPath := filepath.Clean(path)
	// The _pragma form is applied on every pooled connection, which matters
	// for busy_timeout: concurrent appends must wait out writer locks rather
	// than fail with SQLITE_BUSY.
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create values_log table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append inserts one record.
func (s *SQLiteStore) Append(ctx context.Context, record IndexRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("history store is not configured")
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO values_log (number) VALUES (?)`,
		record.Number,
	)
	if err != nil {
		return fmt.Errorf("append index record: %w", err)
	}
	return nil
}

// ListAll returns every record in insertion (rowid) order.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]IndexRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("history store is not configured")
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT number FROM values_log ORDER BY rowid ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list index records: %w", err)
	}
	defer rows.Close()

	var records []IndexRecord
	for rows.Next() {
		var record IndexRecord
		if err := rows.Scan(&record.Number); err != nil {
			return nil, fmt.Errorf("list index records: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list index records: %w", err)
	}
	return records, nil
}

var _ Store = (*SQLiteStore)(nil)
