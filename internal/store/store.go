// Package store provides the SQLite-backed status store. Every file the run
// touches has exactly one row keyed by path; each mutation is its own
// transaction so concurrent workers never observe a partial write.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dharsanguruparan/RenameVault/internal/logging"
	"github.com/dharsanguruparan/RenameVault/internal/model"
)

// ErrNotFound is returned by Get for paths never registered.
var ErrNotFound = errors.New("file task not found")

// Store wraps the single-file SQLite database holding per-file state.
type Store struct {
	db   *sql.DB
	path string
}

// Update carries the optional fields of an upsert. Nil fields keep whatever
// value the row already has.
type Update struct {
	Status    *model.Status
	Message   *string
	WorkerID  *string
	StartTime *time.Time
	EndTime   *time.Time
}

// Open creates (or reopens) the status database at dbPath and ensures the
// schema exists.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// WAL keeps readers (the progress reporter) from blocking writers.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows one writer at a time; a single connection serializes
	// conflicting upserts without deadlocking.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS files (
		path TEXT PRIMARY KEY,
		status INTEGER NOT NULL DEFAULT 0,
		message TEXT NOT NULL DEFAULT '',
		worker_id TEXT,
		start_time REAL,
		end_time REAL
	);
	CREATE INDEX IF NOT EXISTS idx_files_status ON files(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Upsert merges the given fields into the row for path, creating the row as
// pending if it does not exist. Timestamps auto-populate: start_time on the
// first transition into processing, end_time on the first terminal
// transition; neither is ever reset.
func (s *Store) Upsert(path string, u Update) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	cur, err := getTx(tx, path)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, ErrNotFound) {
		cur = &model.FileTask{Path: path, Status: model.StatusPending}
	}

	if u.Status != nil {
		cur.Status = *u.Status
	}
	if u.Message != nil {
		cur.Message = *u.Message
	}
	if u.WorkerID != nil {
		cur.WorkerID = *u.WorkerID
	}
	now := time.Now()
	if u.StartTime != nil {
		cur.StartTime = u.StartTime
	} else if cur.Status == model.StatusProcessing && cur.StartTime == nil {
		cur.StartTime = &now
	}
	if u.EndTime != nil {
		cur.EndTime = u.EndTime
	} else if cur.Status.Terminal() && cur.EndTime == nil {
		cur.EndTime = &now
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO files (path, status, message, worker_id, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?)`,
		cur.Path, int(cur.Status), cur.Message, nullString(cur.WorkerID),
		nullEpoch(cur.StartTime), nullEpoch(cur.EndTime))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", path, err)
	}
	return tx.Commit()
}

// SetStatus is the common upsert shape: new status plus diagnostic message.
func (s *Store) SetStatus(path string, status model.Status, message string) error {
	return s.Upsert(path, Update{Status: &status, Message: &message})
}

// MarkProcessing records the owning worker together with the transition.
func (s *Store) MarkProcessing(path, workerID string) error {
	status := model.StatusProcessing
	msg := "processing"
	return s.Upsert(path, Update{Status: &status, Message: &msg, WorkerID: &workerID})
}

// Get returns the task for path or ErrNotFound.
func (s *Store) Get(path string) (*model.FileTask, error) {
	row := s.db.QueryRow(`SELECT path, status, message, worker_id, start_time, end_time FROM files WHERE path = ?`, path)
	return scanTask(row)
}

// ListAll returns every row, ordered by path for stable display.
func (s *Store) ListAll() ([]model.FileTask, error) {
	rows, err := s.db.Query(`SELECT path, status, message, worker_id, start_time, end_time FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var tasks []model.FileTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ListPending returns up to limit pending paths; limit <= 0 means all.
func (s *Store) ListPending(limit int) ([]string, error) {
	query := `SELECT path FROM files WHERE status = ? ORDER BY path`
	args := []any{int(model.StatusPending)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan pending: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Register inserts paths as pending, skipping any already present. Returns
// the number of rows actually added.
func (s *Store) Register(paths []string) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, p := range paths {
		res, err := tx.Exec(`
			INSERT OR IGNORE INTO files (path, status, message) VALUES (?, ?, ?)`,
			p, int(model.StatusPending), "waiting")
		if err != nil {
			return 0, fmt.Errorf("register %s: %w", p, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	return added, tx.Commit()
}

// Close exports the table to CSV, closes the database and deletes the
// single-file table from disk. Export failure is logged, not fatal: the run
// already finished and the store is throwaway state.
func (s *Store) Close(exportDir string) error {
	if exportDir != "" {
		if path, err := s.ExportCSV(exportDir); err != nil {
			logging.L.Warnf("export status store: %v", err)
		} else {
			logging.L.Infof("status exported to %s", path)
		}
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		logging.L.Warnf("remove status db: %v", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*model.FileTask, error) {
	var (
		t        model.FileTask
		status   int
		workerID sql.NullString
		start    sql.NullFloat64
		end      sql.NullFloat64
	)
	if err := row.Scan(&t.Path, &status, &t.Message, &workerID, &start, &end); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan file task: %w", err)
	}
	t.Status = model.Status(status)
	if workerID.Valid {
		t.WorkerID = workerID.String
	}
	if start.Valid {
		ts := fromEpoch(start.Float64)
		t.StartTime = &ts
	}
	if end.Valid {
		ts := fromEpoch(end.Float64)
		t.EndTime = &ts
	}
	return &t, nil
}

func getTx(tx *sql.Tx, path string) (*model.FileTask, error) {
	row := tx.QueryRow(`SELECT path, status, message, worker_id, start_time, end_time FROM files WHERE path = ?`, path)
	return scanTask(row)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullEpoch(t *time.Time) any {
	if t == nil {
		return nil
	}
	return float64(t.UnixMilli()) / 1000.0
}

func fromEpoch(sec float64) time.Time {
	return time.UnixMilli(int64(sec * 1000))
}
