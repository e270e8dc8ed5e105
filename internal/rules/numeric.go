package rules

import (
	"github.com/garagedata/vehiclefacts/internal/evidence"
	"github.com/garagedata/vehiclefacts/internal/model"
)

const ruleNumeric = "single_numeric_with_range"

// resolveNumeric handles single-numeric fields such as curb weight.
// Candidates below MEDIUM trust are discarded outright; the chosen
// value is the median of the surviving non-outlier values, with the
// observed min/max preserved as the range.
func resolveNumeric(field string, candidates []model.CandidateObservation, fc FieldConfig, d DefaultConfig) model.FieldResolution {
	var warnings []string

	var trusted []model.CandidateObservation
	var discarded int
	for _, c := range candidates {
		if _, ok := c.NumericValue(); !ok {
			warnings = append(warnings, warnf("ignored non-numeric value from %s", c.SourceID))
			continue
		}
		if !c.Tier.AtLeast(model.TierMedium) {
			discarded++
			continue
		}
		trusted = append(trusted, c)
	}
	if discarded > 0 {
		warnings = append(warnings, warnf("discarded %d candidate(s) below medium trust", discarded))
	}

	if len(trusted) == 0 {
		res := insufficient(field, ruleNumeric, "no numeric candidates at medium trust or above")
		res.Warnings = append(warnings, res.Warnings...)
		return res
	}

	agg := evidence.Aggregate(trusted, aggOptions(d))
	for _, o := range agg.Outliers {
		warnings = append(warnings, warnf("excluded outlier %v from %s", o.Value, o.SourceID))
	}

	// Surviving values span every non-outlier cluster.
	var values []float64
	for _, cl := range agg.Clusters {
		for _, m := range cl.Members {
			if v, ok := m.NumericValue(); ok {
				values = append(values, v)
			}
		}
	}

	chosen := evidence.Median(values)
	low, high := values[0], values[0]
	for _, v := range values {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}

	rng := model.ValueRange{
		Low:          ptr(low),
		High:         ptr(high),
		Chosen:       ptr(chosen),
		EstimateType: model.EstimateMedianOfTrusted,
	}
	if chosen != 0 && (high-low)/chosen > d.VariantSpread {
		rng.VariantNeeded = true
		warnings = append(warnings, warnf("spread %.0f-%.0f exceeds %.0f%% of chosen value; exact answer likely varies by sub-variant", low, high, d.VariantSpread*100))
	}

	// Agreement is the dominant cluster's share of surviving weight,
	// capped by the best tier observed.
	confidence := 0.0
	if largest, ok := evidence.LargestCluster(agg.Clusters); ok && agg.Score.WeightedScore > 0 {
		var survivingWeight float64
		for _, cl := range agg.Clusters {
			survivingWeight += cl.TrustWeight
		}
		confidence = (largest.TrustWeight / survivingWeight) * agg.Score.HighestTier.Weight()
	}

	status := model.StatusNeedsReview
	if confidence >= fc.AcceptThreshold {
		status = model.StatusOK
	}

	return model.FieldResolution{
		FieldName:   field,
		Value:       model.NumericValue{Range: rng},
		Evidence:    agg.Score,
		Confidence:  confidence,
		Status:      status,
		RuleApplied: ruleNumeric,
		Warnings:    warnings,
	}
}
