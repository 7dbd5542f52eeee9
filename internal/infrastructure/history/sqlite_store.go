package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/doeshing/shai-agent/internal/domain"
	"github.com/doeshing/shai-agent/internal/ports"
)

// ErrRunNotFound is returned by Run when no id (or id prefix) matches.
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousRunID is returned by Run when an id prefix matches several runs.
var ErrAmbiguousRunID = errors.New("ambiguous run id")

// Fixed-width so timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	model TEXT NOT NULL,
	state TEXT NOT NULL,
	abort_reason TEXT,
	output TEXT,
	error TEXT,
	turns INTEGER NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);`

// SQLiteStore persists agent runs and their transcripts in SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore creates (or opens) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history db: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	if _, err := s.db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return err
	}
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Save inserts a run and its transcript. A record without an id gets one.
func (s *SQLiteStore) Save(ctx context.Context, record domain.RunRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, query, model, state, abort_reason, output, error, turns, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Query,
		record.Model,
		string(record.State),
		string(record.AbortReason),
		record.Output,
		record.Error,
		record.Turns,
		record.StartedAt.UTC().Format(timeLayout),
		record.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, msg := range record.Messages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (run_id, seq, role, content) VALUES (?, ?, ?, ?)`,
			record.ID, i, msg.Role, msg.Content); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}
	return tx.Commit()
}

// Runs returns the newest runs first, without transcripts. limit <= 0
// returns every run.
func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	query := `SELECT id, query, model, state, abort_reason, output, error, turns, started_at, finished_at
		FROM runs ORDER BY started_at DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Run returns one run with its transcript. id may be a unique prefix.
func (s *SQLiteStore) Run(ctx context.Context, id string) (domain.RunRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.RunRecord{}, ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, query, model, state, abort_reason, output, error, turns, started_at, finished_at
		FROM runs WHERE id = ? OR id LIKE ? ORDER BY id = ? DESC LIMIT 2`, id, escapeLike(id)+"%", id)
	if err != nil {
		return domain.RunRecord{}, err
	}
	var matches []domain.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return domain.RunRecord{}, err
		}
		matches = append(matches, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.RunRecord{}, err
	}

	switch {
	case len(matches) == 0:
		return domain.RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case len(matches) > 1 && matches[0].ID != id:
		return domain.RunRecord{}, fmt.Errorf("%w: %s", ErrAmbiguousRunID, id)
	}

	rec := matches[0]
	msgRows, err := s.db.QueryContext(ctx, `SELECT role, content FROM messages WHERE run_id = ? ORDER BY seq`, rec.ID)
	if err != nil {
		return domain.RunRecord{}, err
	}
	defer msgRows.Close()
	for msgRows.Next() {
		var msg domain.Message
		if err := msgRows.Scan(&msg.Role, &msg.Content); err != nil {
			return domain.RunRecord{}, err
		}
		rec.Messages = append(rec.Messages, msg)
	}
	return rec, msgRows.Err()
}

// Clear deletes all runs and transcripts.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM messages"); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM runs")
	return err
}

// ExportJSON writes every run with its transcript to w, one JSON object per
// line, oldest first.
func (s *SQLiteStore) ExportJSON(ctx context.Context, w io.Writer) (int, error) {
	runs, err := s.Runs(ctx, 0)
	if err != nil {
		return 0, err
	}
	enc := json.NewEncoder(w)
	for i := len(runs) - 1; i >= 0; i-- {
		full, err := s.Run(ctx, runs[i].ID)
		if err != nil {
			return 0, err
		}
		if err := enc.Encode(full); err != nil {
			return 0, err
		}
	}
	return len(runs), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (domain.RunRecord, error) {
	var rec domain.RunRecord
	var state, abort, started, finished string
	var output, errText sql.NullString
	if err := row.Scan(&rec.ID, &rec.Query, &rec.Model, &state, &abort, &output, &errText, &rec.Turns, &started, &finished); err != nil {
		return domain.RunRecord{}, err
	}
	rec.State = domain.RunState(state)
	rec.AbortReason = domain.AbortReason(abort)
	rec.Output = output.String
	rec.Error = errText.String
	if t, err := time.Parse(timeLayout, started); err == nil {
		rec.StartedAt = t
	}
	if t, err := time.Parse(timeLayout, finished); err == nil {
		rec.FinishedAt = t
	}
	return rec, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}

var _ ports.HistoryRepository = (*SQLiteStore)(nil)
