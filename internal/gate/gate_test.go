package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garagedata/vehiclefacts/internal/model"
)

func passing() model.FieldResolution {
	return model.FieldResolution{
		FieldName:  "curb_weight",
		Status:     model.StatusOK,
		Confidence: 0.9,
		Evidence: model.EvidenceScore{
			WeightedScore: 1.7,
			SourceCount:   2,
			HighestTier:   model.TierHigh,
		},
	}
}

func TestAllowPersist(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name   string
		mutate func(*model.FieldResolution)
		want   bool
	}{
		{"passes all thresholds", func(*model.FieldResolution) {}, true},
		{"needs review never persists", func(r *model.FieldResolution) { r.Status = model.StatusNeedsReview }, false},
		{"insufficient data never persists", func(r *model.FieldResolution) { r.Status = model.StatusInsufficientData }, false},
		{"confidence below threshold", func(r *model.FieldResolution) { r.Confidence = 0.69 }, false},
		{"confidence exactly at threshold", func(r *model.FieldResolution) { r.Confidence = 0.7 }, true},
		{"evidence weight below threshold", func(r *model.FieldResolution) { r.Evidence.WeightedScore = 0.5 }, false},
		{"no sources", func(r *model.FieldResolution) {
			r.Evidence.SourceCount = 0
			r.Evidence.WeightedScore = 0.9
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := passing()
			tt.mutate(&res)
			assert.Equal(t, tt.want, AllowPersist(res, cfg))
		})
	}
}

func TestAllowPersistOnlyOnOKStatus(t *testing.T) {
	// Even a high-confidence resolution stays out of the store unless
	// its status is ok.
	cfg := DefaultConfig()
	res := passing()
	res.Status = model.StatusNeedsReview
	res.Confidence = 1.0
	assert.False(t, AllowPersist(res, cfg))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.InDelta(t, 0.7, cfg.MinConfidence, 1e-9)
	assert.InDelta(t, 0.7, cfg.MinEvidenceWeight, 1e-9)
	assert.Equal(t, 1, cfg.MinSources)
}
