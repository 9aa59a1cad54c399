package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shruggr/fpgrowth/metadata"
)

// Store is a SQLite-backed implementation of metadata.Store
type Store struct {
	db *sql.DB
}

// Config holds configuration for SQLite
type Config struct {
	DBPath string // Path to SQLite database file
}

// New creates a new SQLite-backed metadata store
func New(config *Config) (*Store, error) {
	if config.DBPath == "" {
		return nil, fmt.Errorf("DBPath is required")
	}

	db, err := sql.Open("sqlite3", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	store := &Store{db: db}

	// Initialize schema
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the necessary tables
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id             TEXT PRIMARY KEY,
		dataset_digest BLOB NOT NULL,
		transactions   INTEGER NOT NULL,
		distinct_txs   INTEGER NOT NULL,
		min_support    INTEGER NOT NULL,
		workers        INTEGER NOT NULL,
		itemsets       INTEGER NOT NULL,
		result_hash    BLOB,
		cached         INTEGER NOT NULL DEFAULT 0,
		status         TEXT NOT NULL,
		error          TEXT NOT NULL DEFAULT '',
		started_at     INTEGER NOT NULL,
		duration_ns    INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset_digest, min_support, status);
	`

	_, err := s.db.Exec(schema)
	return err
}

const runColumns = `id, dataset_digest, transactions, distinct_txs, min_support, workers,
	itemsets, result_hash, cached, status, error, started_at, duration_ns`

// PutRun stores run metadata
func (s *Store) PutRun(ctx context.Context, meta *metadata.RunMeta) error {
	if meta.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	var resultHash any
	if len(meta.ResultHash) > 0 {
		resultHash = meta.ResultHash.Bytes()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (`+runColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.DatasetDigest[:], meta.Transactions, meta.Distinct, meta.MinSupport, meta.Workers,
		meta.Itemsets, resultHash, meta.Cached, string(meta.Status), meta.Error,
		meta.StartedAt.UnixNano(), int64(meta.Duration),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetRun retrieves run metadata by ID
func (s *Store) GetRun(ctx context.Context, id string) (*metadata.RunMeta, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`,
		id,
	)

	meta, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return meta, nil
}

// ListRuns returns up to limit runs, newest first
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*metadata.RunMeta, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*metadata.RunMeta
	for rows.Next() {
		meta, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, meta)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// LatestCompleted returns the newest completed run with a stored result for dataset and minSupport
func (s *Store) LatestCompleted(ctx context.Context, dataset [32]byte, minSupport int) (*metadata.RunMeta, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs
		 WHERE dataset_digest = ? AND min_support = ? AND status = ? AND result_hash IS NOT NULL
		 ORDER BY started_at DESC LIMIT 1`,
		dataset[:], minSupport, string(metadata.StatusCompleted),
	)

	meta, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	return meta, nil
}

// Close releases all database resources
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*metadata.RunMeta, error) {
	var meta metadata.RunMeta
	var digest, resultHash []byte
	var status string
	var startedAt, duration int64

	err := row.Scan(&meta.ID, &digest, &meta.Transactions, &meta.Distinct, &meta.MinSupport, &meta.Workers,
		&meta.Itemsets, &resultHash, &meta.Cached, &status, &meta.Error, &startedAt, &duration)
	if err != nil {
		return nil, err
	}

	copy(meta.DatasetDigest[:], digest)
	if len(resultHash) > 0 {
		meta.ResultHash = resultHash
	}
	meta.Status = metadata.RunStatus(status)
	meta.StartedAt = time.Unix(0, startedAt)
	meta.Duration = time.Duration(duration)

	return &meta, nil
}
