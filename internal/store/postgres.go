package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/garagedata/vehiclefacts/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool, e.g. pgxmock in tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS vehicle_fields (
	vehicle_key      TEXT NOT NULL,
	field_name       TEXT NOT NULL,
	value            TEXT,
	confidence       DOUBLE PRECISION NOT NULL,
	evidence_weight  DOUBLE PRECISION NOT NULL,
	source_count     INTEGER NOT NULL,
	highest_tier     TEXT NOT NULL,
	evidence_summary TEXT NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (vehicle_key, field_name)
);

CREATE TABLE IF NOT EXISTS resolution_audit (
	id          UUID PRIMARY KEY,
	run_id      TEXT NOT NULL,
	vehicle_key TEXT NOT NULL,
	field_name  TEXT NOT NULL,
	resolution  JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_resolution_audit_run ON resolution_audit(run_id);
CREATE INDEX IF NOT EXISTS idx_resolution_audit_key ON resolution_audit(vehicle_key);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertFieldValue(ctx context.Context, key model.VehicleKey, f FlattenedField) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO vehicle_fields (vehicle_key, field_name, value, confidence, evidence_weight, source_count, highest_tier, evidence_summary, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (vehicle_key, field_name) DO UPDATE SET
			value = EXCLUDED.value,
			confidence = EXCLUDED.confidence,
			evidence_weight = EXCLUDED.evidence_weight,
			source_count = EXCLUDED.source_count,
			highest_tier = EXCLUDED.highest_tier,
			evidence_summary = EXCLUDED.evidence_summary,
			updated_at = EXCLUDED.updated_at`,
		key.CacheKey(), f.FieldName, fmt.Sprintf("%v", f.Value), f.Confidence,
		f.EvidenceWeight, f.SourceCount, string(f.HighestTier), f.EvidenceSummary,
		time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert field %s", f.FieldName)
}

func (s *PostgresStore) GetFieldValue(ctx context.Context, key model.VehicleKey, field string) (*FlattenedField, error) {
	var f FlattenedField
	var value, tier string
	err := s.pool.QueryRow(ctx,
		`SELECT field_name, value, confidence, evidence_weight, source_count, highest_tier, evidence_summary
		 FROM vehicle_fields WHERE vehicle_key = $1 AND field_name = $2`,
		key.CacheKey(), field,
	).Scan(&f.FieldName, &value, &f.Confidence, &f.EvidenceWeight, &f.SourceCount, &tier, &f.EvidenceSummary)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get field %s", field)
	}
	f.Value = value
	f.HighestTier = model.TrustTier(tier)
	return &f, nil
}

func (s *PostgresStore) SaveAudit(ctx context.Context, runID string, key model.VehicleKey, res model.FieldResolution) error {
	data, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal resolution")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO resolution_audit (id, run_id, vehicle_key, field_name, resolution, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), runID, key.CacheKey(), res.FieldName, data, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save audit for %s", res.FieldName)
}
