package resolver

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garagedata/vehiclefacts/internal/cache"
	"github.com/garagedata/vehiclefacts/internal/gate"
	"github.com/garagedata/vehiclefacts/internal/model"
	"github.com/garagedata/vehiclefacts/internal/store"
)

var testKey = model.VehicleKey{Year: 2018, Make: "honda", Model: "cr-v", Drivetrain: "awd"}

// fakeLookup serves canned candidates per field and counts calls.
type fakeLookup struct {
	mu         sync.Mutex
	candidates map[string][]model.CandidateObservation
	errs       map[string]error
	calls      int
}

func (f *fakeLookup) FetchCandidates(_ context.Context, _ model.VehicleKey, field string) ([]model.CandidateObservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[field]; err != nil {
		return nil, err
	}
	return f.candidates[field], nil
}

func (f *fakeLookup) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeStore records writes so tests can assert on gate behavior.
type fakeStore struct {
	mu       sync.Mutex
	upserts  []store.FlattenedField
	audits   []string
	migrated bool
}

func (f *fakeStore) UpsertFieldValue(_ context.Context, _ model.VehicleKey, ff store.FlattenedField) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, ff)
	return nil
}

func (f *fakeStore) GetFieldValue(_ context.Context, _ model.VehicleKey, _ string) (*store.FlattenedField, error) {
	return nil, nil
}

func (f *fakeStore) SaveAudit(_ context.Context, _ string, _ model.VehicleKey, res model.FieldResolution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, res.FieldName)
	return nil
}

func (f *fakeStore) Migrate(context.Context) error { f.migrated = true; return nil }
func (f *fakeStore) Close() error                  { return nil }

func curbWeightCandidates() []model.CandidateObservation {
	return []model.CandidateObservation{
		{Value: 3280, SourceID: "edmunds.com", Confidence: 1.0},
		{Value: 3310, SourceID: "honda.com", Confidence: 1.0},
		{Value: 3320, SourceID: "kbb.com", Confidence: 1.0},
	}
}

func TestResolveSingleField(t *testing.T) {
	lk := &fakeLookup{candidates: map[string][]model.CandidateObservation{
		"curb_weight": curbWeightCandidates(),
	}}
	r := New(Options{Lookup: lk, Gate: gate.DefaultConfig()})

	rep, err := r.Resolve(context.Background(), testKey, []FieldRequest{
		{Name: "curb_weight", Archetype: model.ArchetypeNumeric, Required: true},
	})
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeComplete, rep.Outcome)
	assert.Equal(t, StrategyGroundedSearch, rep.Strategy)
	assert.NotEmpty(t, rep.RunID)

	res := rep.Fields["curb_weight"]
	assert.Equal(t, model.StatusOK, res.Status)
	// Tiers come from the classifier, not the collaborator.
	assert.Equal(t, model.TierHigh, res.Evidence.HighestTier)
}

func TestResolveCacheHitShortCircuits(t *testing.T) {
	lk := &fakeLookup{candidates: map[string][]model.CandidateObservation{
		"curb_weight": curbWeightCandidates(),
	}}
	mem := cache.NewMemory(cache.DefaultTTLConfig())
	r := New(Options{Lookup: lk, Cache: mem, Gate: gate.DefaultConfig()})

	fields := []FieldRequest{{Name: "curb_weight", Archetype: model.ArchetypeNumeric}}

	first, err := r.Resolve(context.Background(), testKey, fields)
	require.NoError(t, err)
	callsAfterFirst := lk.callCount()
	require.Positive(t, callsAfterFirst)

	second, err := r.Resolve(context.Background(), testKey, fields)
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, lk.callCount())
	assert.Equal(t, first.RunID, second.RunID)
}

func TestResolveRejectsMalformedCandidates(t *testing.T) {
	lk := &fakeLookup{candidates: map[string][]model.CandidateObservation{
		"curb_weight": {
			{Value: nil, SourceID: "edmunds.com"},
			{Value: 3310, SourceID: ""},
			{Value: 3310, SourceID: "honda.com", Confidence: 1.0},
		},
	}}
	r := New(Options{Lookup: lk, Gate: gate.DefaultConfig()})

	rep, err := r.Resolve(context.Background(), testKey, []FieldRequest{
		{Name: "curb_weight", Archetype: model.ArchetypeNumeric},
	})
	require.NoError(t, err)

	res := rep.Fields["curb_weight"]
	assert.Equal(t, model.StatusOK, res.Status)
	assert.Equal(t, 1, res.Evidence.SourceCount)
	assert.Equal(t, []string{"honda.com"}, res.Evidence.Sources)
}

func TestResolveLookupFailureFailsOpen(t *testing.T) {
	lk := &fakeLookup{
		candidates: map[string][]model.CandidateObservation{
			"curb_weight": curbWeightCandidates(),
		},
		errs: map[string]error{
			"aluminum_block": eris.New("upstream timeout"),
		},
	}
	r := New(Options{Lookup: lk, Gate: gate.DefaultConfig()})

	rep, err := r.Resolve(context.Background(), testKey, []FieldRequest{
		{Name: "curb_weight", Archetype: model.ArchetypeNumeric, Required: true},
		{Name: "aluminum_block", Archetype: model.ArchetypeBoolean},
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusOK, rep.Fields["curb_weight"].Status)
	assert.Equal(t, model.StatusInsufficientData, rep.Fields["aluminum_block"].Status)
	assert.Equal(t, model.OutcomeComplete, rep.Outcome)
}

func TestResolvePersistsOnlyGatePassers(t *testing.T) {
	lk := &fakeLookup{candidates: map[string][]model.CandidateObservation{
		"curb_weight": curbWeightCandidates(),
		// Even split between two low-trust forums cannot clear the gate.
		"aluminum_block": {
			{Value: true, SourceID: "forum-a"},
			{Value: false, SourceID: "forum-b"},
		},
	}}
	st := &fakeStore{}
	r := New(Options{Lookup: lk, Store: st, Gate: gate.DefaultConfig()})

	rep, err := r.Resolve(context.Background(), testKey, []FieldRequest{
		{Name: "curb_weight", Archetype: model.ArchetypeNumeric},
		{Name: "aluminum_block", Archetype: model.ArchetypeBoolean},
	})
	require.NoError(t, err)
	assert.True(t, rep.ActionNeeded)

	require.Len(t, st.upserts, 1)
	assert.Equal(t, "curb_weight", st.upserts[0].FieldName)
	assert.Equal(t, []string{"curb_weight"}, st.audits)
}

func TestResolveDefaultFields(t *testing.T) {
	lk := &fakeLookup{}
	r := New(Options{Lookup: lk, Gate: gate.DefaultConfig()})

	rep, err := r.Resolve(context.Background(), testKey, nil)
	require.NoError(t, err)

	assert.Len(t, rep.Fields, 4)
	assert.Contains(t, rep.Fields, "curb_weight")
	assert.Contains(t, rep.Fields, "aluminum_block")
	assert.Contains(t, rep.Fields, "aluminum_rims")
	assert.Contains(t, rep.Fields, "catalytic_converter_count")
	assert.Equal(t, model.OutcomeFailed, rep.Outcome)
}

func TestResolveCancelledContext(t *testing.T) {
	lk := &fakeLookup{}
	r := New(Options{Lookup: lk, Gate: gate.DefaultConfig()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, testKey, []FieldRequest{
		{Name: "curb_weight", Archetype: model.ArchetypeNumeric},
	})
	assert.ErrorIs(t, err, context.Canceled)
}
