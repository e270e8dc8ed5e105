package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/garagedata/vehiclefacts/internal/model"
)

// SQLiteStore is a cache backend on modernc.org/sqlite. Entries are
// read-only once written; Put overwrites by key.
type SQLiteStore struct {
	db  *sql.DB
	ttl TTLConfig
	now func() time.Time
}

// NewSQLite opens a SQLite cache at the given path, configures WAL
// mode, and creates the schema.
func NewSQLite(dsn string, ttl TTLConfig) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}

	const migration = `
CREATE TABLE IF NOT EXISTS evidence_cache (
	key        TEXT PRIMARY KEY,
	report     TEXT NOT NULL,
	ttl_class  TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`
	if _, err := db.Exec(migration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "cache: migrate")
	}

	return &SQLiteStore{db: db, ttl: ttl, now: time.Now}, nil
}

// WithNow fixes the clock for testing.
func (s *SQLiteStore) WithNow(now func() time.Time) *SQLiteStore {
	s.now = now
	return s
}

func (s *SQLiteStore) Get(ctx context.Context, key model.VehicleKey) (*model.ResolutionReport, error) {
	var reportJSON, class string
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT report, ttl_class, created_at FROM evidence_cache WHERE key = ?`,
		key.CacheKey(),
	).Scan(&reportJSON, &class, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "cache: get %s", key.CacheKey())
	}

	// Lazy expiry: a stale row reads as a miss but stays on disk for
	// external compaction.
	if s.now().Sub(createdAt) > s.ttl.For(TTLClass(class)) {
		return nil, nil
	}

	var rep model.ResolutionReport
	if err := json.Unmarshal([]byte(reportJSON), &rep); err != nil {
		return nil, eris.Wrapf(err, "cache: unmarshal report for %s", key.CacheKey())
	}
	return &rep, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key model.VehicleKey, rep *model.ResolutionReport) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return eris.Wrap(err, "cache: marshal report")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO evidence_cache (key, report, ttl_class, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET report = excluded.report, ttl_class = excluded.ttl_class, created_at = excluded.created_at`,
		key.CacheKey(), string(data), string(ClassFor(rep)), s.now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "cache: put %s", key.CacheKey())
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key model.VehicleKey) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM evidence_cache WHERE key = ?`, key.CacheKey(),
	)
	return eris.Wrapf(err, "cache: delete %s", key.CacheKey())
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
