package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/skillforge/skillforge/pkg/logger"
)

// SQLiteStore implements Store using a SQLite database. The full
// record is stored as JSON in a data column so fields written by
// newer versions survive a load/save cycle; the remaining columns
// are denormalized for querying.
type SQLiteStore struct {
	dbPath string
	db     *sql.DB
}

// NewSQLiteStore creates a SQLite-backed session store at dbPath.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	if err := configureDatabase(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to configure database")
	}

	store := &SQLiteStore{dbPath: dbPath, db: db}
	if err := store.initializeSchema(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}
	return store, nil
}

// configureDatabase sets up SQLite pragmas for WAL mode.
func configureDatabase(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=1000",
		"PRAGMA temp_store=memory",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}

	for _, pragma := range pragmas {
		pragmaCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := db.ExecContext(pragmaCtx, pragma)
		cancel()
		if err != nil {
			return errors.Wrapf(err, "failed to execute pragma: %s", pragma)
		}
	}

	var journalMode string
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := db.QueryRowContext(queryCtx, "PRAGMA journal_mode").Scan(&journalMode)
	cancel()
	if err != nil {
		return errors.Wrap(err, "failed to query journal mode")
	}
	if strings.ToLower(journalMode) != "wal" {
		return errors.Errorf("WAL mode not enabled. Current mode: %s", journalMode)
	}
	return nil
}

func (s *SQLiteStore) initializeSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			phase TEXT NOT NULL,
			request TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			data TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
		CREATE INDEX IF NOT EXISTS idx_sessions_phase ON sessions(phase);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to create sessions table")
	}
	return nil
}

// Save stores a session record, replacing any previous checkpoint.
func (s *SQLiteStore) Save(ctx context.Context, record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session record")
	}

	query := `
		INSERT OR REPLACE INTO sessions (id, phase, request, created_at, updated_at, data)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		record.ID, string(record.Phase), record.Request,
		record.CreatedAt.Format(time.RFC3339Nano),
		record.UpdatedAt.Format(time.RFC3339Nano),
		string(data))
	if err != nil {
		return errors.Wrap(err, "failed to save session record")
	}
	return nil
}

// Load retrieves a session record by id.
func (s *SQLiteStore) Load(ctx context.Context, id string) (Record, error) {
	var record Record
	var data string

	row := s.db.QueryRowContext(ctx, "SELECT data FROM sessions WHERE id = ?", id)
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return record, errors.Wrapf(ErrNotFound, "session %s", id)
		}
		return record, errors.Wrap(err, "failed to load session record")
	}

	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return record, errors.Wrapf(err, "failed to unmarshal session %s", id)
	}
	return record, nil
}

// List returns all session summaries, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	return s.Query(ctx, QueryOptions{})
}

// Query filters, sorts, and paginates session summaries in SQL.
func (s *SQLiteStore) Query(ctx context.Context, options QueryOptions) ([]Summary, error) {
	var args []interface{}
	var conditions []string

	if options.StartDate != nil {
		conditions = append(conditions, "updated_at >= ?")
		args = append(args, options.StartDate.Format(time.RFC3339Nano))
	}
	if options.EndDate != nil {
		conditions = append(conditions, "updated_at <= ?")
		args = append(args, options.EndDate.Format(time.RFC3339Nano))
	}
	if options.Phase != "" {
		conditions = append(conditions, "phase = ?")
		args = append(args, string(options.Phase))
	}
	if options.SearchTerm != "" {
		conditions = append(conditions, "LOWER(request) LIKE ?")
		args = append(args, "%"+strings.ToLower(options.SearchTerm)+"%")
	}

	sortBy := "updated_at"
	if options.SortBy == "created" {
		sortBy = "created_at"
	}
	sortOrder := "DESC"
	if options.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	query := "SELECT id, phase, request, created_at, updated_at FROM sessions"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY " + sortBy + " " + sortOrder
	if options.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, options.Limit)
		if options.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, options.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query sessions")
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var summary Summary
		var phase, createdAt, updatedAt string

		if scanErr := rows.Scan(&summary.ID, &phase, &summary.Request, &createdAt, &updatedAt); scanErr != nil {
			logger.G(ctx).WithError(scanErr).Warn("skipping unreadable session row")
			continue
		}
		summary.Phase = Phase(phase)

		summary.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			logger.G(ctx).WithField("session", summary.ID).WithError(err).Warn("skipping session row with bad created_at")
			continue
		}
		summary.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			logger.G(ctx).WithField("session", summary.ID).WithError(err).Warn("skipping session row with bad updated_at")
			continue
		}

		summary.Request = truncateRequest(summary.Request)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating session rows")
	}
	return summaries, nil
}

// Delete removes a session record.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "failed to delete session record")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check deleted rows")
	}
	if affected == 0 {
		return errors.Wrapf(ErrNotFound, "session %s", id)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
