package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/pkg/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS builds (
    seq       INTEGER PRIMARY KEY AUTOINCREMENT,
    id        TEXT    NOT NULL,
    source    TEXT    NOT NULL,
    format    TEXT    NOT NULL DEFAULT '',
    gen       INTEGER NOT NULL,
    species   TEXT    NOT NULL,
    payload   TEXT    NOT NULL,
    cached_at INTEGER NOT NULL,
    UNIQUE (id, source, format)
);

CREATE INDEX IF NOT EXISTS idx_builds_gen_format ON builds(gen, format);
CREATE INDEX IF NOT EXISTS idx_builds_gen_source ON builds(gen, source);
CREATE INDEX IF NOT EXISTS idx_builds_cached     ON builds(cached_at);
`

const upsert = `
INSERT INTO builds (id, source, format, gen, species, payload, cached_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id, source, format) DO UPDATE SET
    gen       = excluded.gen,
    species   = excluded.species,
    payload   = excluded.payload,
    cached_at = excluded.cached_at`

// SQLiteStore is a Store backed by a pure-Go SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
// ":memory:" keeps everything in process.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("repository.OpenSQLite: open %q: %w", dsn, err)
	}
	// SQLite is single-writer; one connection also keeps ":memory:" stable.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository.OpenSQLite: apply schema: %w", err)
	}
	s := &SQLiteStore{db: db}
	metrics.UpdateCacheRecords(s.Count(ctx))
	return s, nil
}

// Put implements Store. All records are written in one transaction.
func (s *SQLiteStore) Put(ctx context.Context, records []build.Record, cachedAt time.Time) (err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.RecordCacheOperation("put", result, msSince(start))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if len(records) == 0 {
		return nil
	}

	recs := sealed(records)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repository.Put: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("repository.Put: prepare: %w", err)
	}
	defer stmt.Close()

	at := cachedAt.UnixNano()
	for i := range recs {
		r := &recs[i]
		if r.Species == "" {
			return fmt.Errorf("%w: record %d has no species", ErrInvalid, i)
		}
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("repository.Put: encode %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, string(r.Source), r.Format, r.Gen, r.Species, string(payload), at); err != nil {
			return fmt.Errorf("repository.Put: upsert %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("repository.Put: commit: %w", err)
	}
	metrics.UpdateCacheRecords(s.countLocked(ctx))
	return nil
}

// ByFormat implements Store.
func (s *SQLiteStore) ByFormat(ctx context.Context, gen int, format string) ([]build.Record, error) {
	if format == "" {
		return s.query(ctx, "by_format", `SELECT payload FROM builds WHERE gen = ? ORDER BY seq`, gen)
	}
	return s.query(ctx, "by_format", `SELECT payload FROM builds WHERE gen = ? AND format = ? ORDER BY seq`, gen, format)
}

// BySource implements Store.
func (s *SQLiteStore) BySource(ctx context.Context, gen int, source build.Source) ([]build.Record, error) {
	return s.query(ctx, "by_source", `SELECT payload FROM builds WHERE gen = ? AND source = ? ORDER BY seq`, gen, string(source))
}

func (s *SQLiteStore) query(ctx context.Context, op, q string, args ...any) (out []build.Record, err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.RecordCacheOperation(op, result, msSince(start))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.%s: query: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("repository.%s: scan: %w", op, err)
		}
		var r build.Record
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("repository.%s: decode: %w", op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.%s: rows: %w", op, err)
	}
	return out, nil
}

// Prune implements Store.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM builds WHERE cached_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("repository.Prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("repository.Prune: rows affected: %w", err)
	}
	metrics.UpdateCacheRecords(s.countLocked(ctx))
	return int(n), nil
}

// Count implements Store. It returns 0 when the store is closed or the
// count fails.
func (s *SQLiteStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0
	}
	return s.countLocked(ctx)
}

func (s *SQLiteStore) countLocked(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM builds`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("repository.Close: %w", err)
	}
	return nil
}
