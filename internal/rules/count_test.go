package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garagedata/vehiclefacts/internal/model"
)

func TestCountAllAgree(t *testing.T) {
	engine := NewEngine(nil)
	res := engine.Resolve("catalytic_converter_count", model.ArchetypeCount, []model.CandidateObservation{
		obs(2, "edmunds.com", model.TierMedium),
		obs(2, "caranddriver.com", model.TierMedium),
	})

	require.Equal(t, model.StatusOK, res.Status)
	assert.Equal(t, ruleCount, res.RuleApplied)
	assert.InDelta(t, 0.7, res.Confidence, 1e-9)

	cv, ok := res.Value.(model.ConditionalValue)
	require.True(t, ok)
	require.NotNil(t, cv.Range)
	require.NotNil(t, cv.Range.Chosen)
	assert.Equal(t, 2.0, *cv.Range.Chosen)
	assert.Equal(t, model.EstimateMedianOfTrusted, cv.Range.EstimateType)
	assert.False(t, cv.Range.VariantNeeded)
}

func TestCountUnlabeledDisagreementRefusesToGuess(t *testing.T) {
	engine := NewEngine(nil)
	res := engine.Resolve("catalytic_converter_count", model.ArchetypeCount, []model.CandidateObservation{
		obs(2, "edmunds.com", model.TierMedium),
		obs(1, "kbb.com", model.TierMedium),
	})

	assert.Equal(t, model.StatusNeedsReview, res.Status)
	assert.Zero(t, res.Confidence)

	cv := res.Value.(model.ConditionalValue)
	require.NotNil(t, cv.Range)
	assert.Nil(t, cv.Range.Chosen)
	assert.Equal(t, 1.0, *cv.Range.Low)
	assert.Equal(t, 2.0, *cv.Range.High)
	assert.Equal(t, model.EstimateUnknownPendingVariant, cv.Range.EstimateType)
	assert.True(t, cv.Range.VariantNeeded)

	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[len(res.Warnings)-1], "refusing to pick a value")
}

func TestCountEngineLabeledDisagreement(t *testing.T) {
	engine := NewEngine(nil)
	res := engine.Resolve("catalytic_converter_count", model.ArchetypeCount, []model.CandidateObservation{
		obsCond(1, "edmunds.com", model.TierMedium, "engine=1.5T"),
		obsCond(2, "kbb.com", model.TierMedium, "engine=2.0T"),
	})

	assert.Equal(t, model.StatusNeedsReview, res.Status)

	cv := res.Value.(model.ConditionalValue)
	require.NotNil(t, cv.Range)
	assert.Nil(t, cv.Range.Chosen)
	assert.Equal(t, model.EstimateEngineDependent, cv.Range.EstimateType)
	assert.True(t, cv.Range.VariantNeeded)

	require.Len(t, cv.Facts, 2)
	assert.Equal(t, "engine=1.5t", cv.Facts[0].Condition)
	assert.Equal(t, 1, cv.Facts[0].Value)
	assert.Equal(t, "engine=2.0t", cv.Facts[1].Condition)
	assert.Equal(t, 2, cv.Facts[1].Value)

	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[len(res.Warnings)-1], "varies by engine")
}

func TestCountLowerAcceptThreshold(t *testing.T) {
	// Variant counts rarely attract corroboration, so the default
	// ruleset accepts them at a lower threshold than other fields.
	cfg := Defaults()
	assert.InDelta(t, 0.6, cfg.FieldFor("catalytic_converter_count", model.ArchetypeCount).AcceptThreshold, 1e-9)
	assert.InDelta(t, 0.7, cfg.FieldFor("curb_weight", model.ArchetypeNumeric).AcceptThreshold, 1e-9)
}

func TestCountInsufficientData(t *testing.T) {
	engine := NewEngine(nil)

	res := engine.Resolve("catalytic_converter_count", model.ArchetypeCount, nil)
	assert.Equal(t, model.StatusInsufficientData, res.Status)

	res = engine.Resolve("catalytic_converter_count", model.ArchetypeCount, []model.CandidateObservation{
		obs("several", "forum-a", model.TierLow),
	})
	assert.Equal(t, model.StatusInsufficientData, res.Status)
}
