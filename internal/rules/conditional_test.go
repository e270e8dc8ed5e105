package rules

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garagedata/vehiclefacts/internal/model"
)

func TestConditionalFactsPerTrim(t *testing.T) {
	engine := NewEngine(nil)
	res := engine.Resolve("aluminum_rims", model.ArchetypeConditional, []model.CandidateObservation{
		obsCond("aluminum", "edmunds.com", model.TierMedium, "trim=EX"),
		obsCond("steel", "kbb.com", model.TierMedium, "trim=LX"),
		obs("aluminum", "forum-a", model.TierLow),
	})

	assert.Equal(t, ruleConditional, res.RuleApplied)

	cv, ok := res.Value.(model.ConditionalValue)
	require.True(t, ok)
	assert.Equal(t, "aluminum", cv.Default)

	require.Len(t, cv.Facts, 2)
	assert.Equal(t, "trim=ex", cv.Facts[0].Condition)
	assert.Equal(t, "aluminum", cv.Facts[0].Value)
	assert.Equal(t, "trim=lx", cv.Facts[1].Condition)
	assert.Equal(t, "steel", cv.Facts[1].Value)

	// Disagreeing facts must set the structured flag, not just a
	// warning string.
	require.NotNil(t, cv.Range)
	assert.True(t, cv.Range.VariantNeeded)
	assert.Equal(t, model.EstimateMarketDefault, cv.Range.EstimateType)

	// Default share 1.1/1.8 capped by the medium tier weight.
	assert.InDelta(t, (1.1/1.8)*0.7, res.Confidence, 1e-9)
	assert.Equal(t, model.StatusNeedsReview, res.Status)

	var sawVariantWarning bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "variant") {
			sawVariantWarning = true
		}
	}
	assert.True(t, sawVariantWarning)
}

func TestConditionalUnanimous(t *testing.T) {
	engine := NewEngine(nil)
	res := engine.Resolve("aluminum_rims", model.ArchetypeConditional, []model.CandidateObservation{
		obs("aluminum", "honda.com", model.TierHigh),
		obs("aluminum", "edmunds.com", model.TierMedium),
	})

	cv := res.Value.(model.ConditionalValue)
	assert.Equal(t, "aluminum", cv.Default)
	assert.Empty(t, cv.Facts)
	require.NotNil(t, cv.Range)
	assert.False(t, cv.Range.VariantNeeded)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)
	assert.Equal(t, model.StatusOK, res.Status)
}

func TestConditionalVariantFlagSerializes(t *testing.T) {
	engine := NewEngine(nil)
	res := engine.Resolve("aluminum_rims", model.ArchetypeConditional, []model.CandidateObservation{
		obsCond("aluminum", "edmunds.com", model.TierMedium, "trim=EX"),
		obsCond("steel", "kbb.com", model.TierMedium, "trim=LX"),
	})

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"variant_needed_for_exact":true`)

	var back model.FieldResolution
	require.NoError(t, json.Unmarshal(data, &back))
	cv, ok := back.Value.(model.ConditionalValue)
	require.True(t, ok)
	require.NotNil(t, cv.Range)
	assert.True(t, cv.Range.VariantNeeded)
}

func TestConditionalThinConditionSkipped(t *testing.T) {
	// A lone low-trust claim about a trim does not clear the minimum
	// condition weight, so no fact is emitted for it.
	engine := NewEngine(nil)
	res := engine.Resolve("aluminum_rims", model.ArchetypeConditional, []model.CandidateObservation{
		obs("aluminum", "honda.com", model.TierHigh),
		obsCond("steel", "forum-a", model.TierLow, "trim=Sport"),
	})

	cv := res.Value.(model.ConditionalValue)
	assert.Empty(t, cv.Facts)

	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "insufficient evidence")
}

func TestConditionalInsufficientData(t *testing.T) {
	engine := NewEngine(nil)
	res := engine.Resolve("aluminum_rims", model.ArchetypeConditional, nil)
	assert.Equal(t, model.StatusInsufficientData, res.Status)
}
