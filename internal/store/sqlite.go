package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/garagedata/vehiclefacts/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures
// WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS vehicle_fields (
	vehicle_key      TEXT NOT NULL,
	field_name       TEXT NOT NULL,
	value            TEXT,
	confidence       REAL NOT NULL,
	evidence_weight  REAL NOT NULL,
	source_count     INTEGER NOT NULL,
	highest_tier     TEXT NOT NULL,
	evidence_summary TEXT NOT NULL,
	updated_at       DATETIME NOT NULL,
	PRIMARY KEY (vehicle_key, field_name)
);

CREATE TABLE IF NOT EXISTS resolution_audit (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL,
	vehicle_key TEXT NOT NULL,
	field_name  TEXT NOT NULL,
	resolution  TEXT NOT NULL,
	created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_resolution_audit_run ON resolution_audit(run_id);
CREATE INDEX IF NOT EXISTS idx_resolution_audit_key ON resolution_audit(vehicle_key);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertFieldValue(ctx context.Context, key model.VehicleKey, f FlattenedField) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vehicle_fields (vehicle_key, field_name, value, confidence, evidence_weight, source_count, highest_tier, evidence_summary, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(vehicle_key, field_name) DO UPDATE SET
			value = excluded.value,
			confidence = excluded.confidence,
			evidence_weight = excluded.evidence_weight,
			source_count = excluded.source_count,
			highest_tier = excluded.highest_tier,
			evidence_summary = excluded.evidence_summary,
			updated_at = excluded.updated_at`,
		key.CacheKey(), f.FieldName, fmt.Sprintf("%v", f.Value), f.Confidence,
		f.EvidenceWeight, f.SourceCount, string(f.HighestTier), f.EvidenceSummary,
		time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert field %s", f.FieldName)
}

func (s *SQLiteStore) GetFieldValue(ctx context.Context, key model.VehicleKey, field string) (*FlattenedField, error) {
	var f FlattenedField
	var value, tier string
	err := s.db.QueryRowContext(ctx,
		`SELECT field_name, value, confidence, evidence_weight, source_count, highest_tier, evidence_summary
		 FROM vehicle_fields WHERE vehicle_key = ? AND field_name = ?`,
		key.CacheKey(), field,
	).Scan(&f.FieldName, &value, &f.Confidence, &f.EvidenceWeight, &f.SourceCount, &tier, &f.EvidenceSummary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get field %s", field)
	}
	f.Value = value
	f.HighestTier = model.TrustTier(tier)
	return &f, nil
}

func (s *SQLiteStore) SaveAudit(ctx context.Context, runID string, key model.VehicleKey, res model.FieldResolution) error {
	data, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal resolution")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resolution_audit (id, run_id, vehicle_key, field_name, resolution, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), runID, key.CacheKey(), res.FieldName, string(data), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save audit for %s", res.FieldName)
}
