package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garagedata/vehiclefacts/internal/model"
)

func TestBooleanUnanimous(t *testing.T) {
	engine := NewEngine(nil)
	res := engine.Resolve("aluminum_block", model.ArchetypeBoolean, []model.CandidateObservation{
		obs(true, "edmunds.com", model.TierMedium),
		obs(true, "caranddriver.com", model.TierMedium),
	})

	require.Equal(t, model.StatusOK, res.Status)
	assert.Equal(t, ruleBoolean, res.RuleApplied)
	assert.InDelta(t, 0.7, res.Confidence, 1e-9)

	bv, ok := res.Value.(model.BooleanValue)
	require.True(t, ok)
	assert.True(t, bv.Value)
}

func TestBooleanEvenSplitNeedsReview(t *testing.T) {
	engine := NewEngine(nil)
	res := engine.Resolve("aluminum_block", model.ArchetypeBoolean, []model.CandidateObservation{
		obs(true, "forum-a", model.TierLow),
		obs(false, "forum-b", model.TierLow),
	})

	assert.Equal(t, model.StatusNeedsReview, res.Status)
	// 50% agreement times the low-trust tier weight.
	assert.InDelta(t, 0.5*0.4, res.Confidence, 1e-9)

	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "50%")
}

func TestBooleanHighTrustDominance(t *testing.T) {
	// One factory source asserting yes outweighs three forums asserting
	// no, even though the forums' summed weight is larger.
	engine := NewEngine(nil)
	res := engine.Resolve("aluminum_block", model.ArchetypeBoolean, []model.CandidateObservation{
		obs(true, "honda.com", model.TierHigh),
		obs(false, "forum-a", model.TierLow),
		obs(false, "forum-b", model.TierLow),
		obs(false, "forum-c", model.TierLow),
	})

	require.Equal(t, model.StatusOK, res.Status)
	bv := res.Value.(model.BooleanValue)
	assert.True(t, bv.Value)
	assert.InDelta(t, 0.75, res.Confidence, 1e-9)

	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "overruled 3")
}

func TestBooleanDominanceNotTriggeredByMediumOpposition(t *testing.T) {
	// A medium-trust opposing side is real disagreement, not noise.
	engine := NewEngine(nil)
	res := engine.Resolve("aluminum_block", model.ArchetypeBoolean, []model.CandidateObservation{
		obs(true, "honda.com", model.TierHigh),
		obs(false, "edmunds.com", model.TierMedium),
	})

	bv := res.Value.(model.BooleanValue)
	assert.True(t, bv.Value)
	// Agreement 1.0/1.7 is below the floor, so no override applies.
	assert.Equal(t, model.StatusNeedsReview, res.Status)
	assert.InDelta(t, (1.0/1.7)*1.0, res.Confidence, 1e-9)
}

func TestBooleanStringValues(t *testing.T) {
	engine := NewEngine(nil)
	res := engine.Resolve("aluminum_block", model.ArchetypeBoolean, []model.CandidateObservation{
		obs("yes", "honda.com", model.TierHigh),
	})

	require.Equal(t, model.StatusOK, res.Status)
	bv := res.Value.(model.BooleanValue)
	assert.True(t, bv.Value)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)
}

func TestBooleanInsufficientData(t *testing.T) {
	engine := NewEngine(nil)

	res := engine.Resolve("aluminum_block", model.ArchetypeBoolean, nil)
	assert.Equal(t, model.StatusInsufficientData, res.Status)

	res = engine.Resolve("aluminum_block", model.ArchetypeBoolean, []model.CandidateObservation{
		obs("cast something", "forum-a", model.TierLow),
	})
	assert.Equal(t, model.StatusInsufficientData, res.Status)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "non-boolean")
}
