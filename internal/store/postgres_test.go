package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garagedata/vehiclefacts/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgresMigrate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS vehicle_fields").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertFieldValue(t *testing.T) {
	s, mock := newMockStore(t)
	f := Flatten(resolvedWeight())

	mock.ExpectExec("INSERT INTO vehicle_fields").
		WithArgs(storeKey.CacheKey(), "curb_weight", "3310", 1.0, 2.4, 3, "high",
			f.EvidenceSummary, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.UpsertFieldValue(context.Background(), storeKey, f))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetFieldValue(t *testing.T) {
	s, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{
		"field_name", "value", "confidence", "evidence_weight", "source_count", "highest_tier", "evidence_summary",
	}).AddRow("curb_weight", "3310", 1.0, 2.4, 3, "high", "2.40 weighted across 3 source(s), best tier high")

	mock.ExpectQuery("SELECT field_name, value, confidence").
		WithArgs(storeKey.CacheKey(), "curb_weight").
		WillReturnRows(rows)

	got, err := s.GetFieldValue(context.Background(), storeKey, "curb_weight")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "3310", got.Value)
	assert.Equal(t, model.TierHigh, got.HighestTier)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetFieldValueAbsent(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT field_name, value, confidence").
		WithArgs(storeKey.CacheKey(), "ground_clearance").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetFieldValue(context.Background(), storeKey, "ground_clearance")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveAudit(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO resolution_audit").
		WithArgs(pgxmock.AnyArg(), "run-1", storeKey.CacheKey(), "curb_weight",
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveAudit(context.Background(), "run-1", storeKey, resolvedWeight()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
