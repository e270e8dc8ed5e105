package rules

import (
	"strings"

	"github.com/garagedata/vehiclefacts/internal/evidence"
	"github.com/garagedata/vehiclefacts/internal/model"
)

const ruleCount = "engine_variant_count"

// resolveCount handles countable fields that depend on the engine
// variant, such as the number of catalytic converters. It mirrors the
// conditional rule, but when the responsible variant is unknown and the
// observed counts disagree it refuses to guess: chosen stays nil and
// the range spans the observed counts.
func resolveCount(field string, candidates []model.CandidateObservation, fc FieldConfig, d DefaultConfig) model.FieldResolution {
	var warnings []string

	var numeric []model.CandidateObservation
	for _, c := range candidates {
		if _, ok := c.NumericValue(); !ok {
			warnings = append(warnings, warnf("ignored non-numeric count from %s", c.SourceID))
			continue
		}
		numeric = append(numeric, c)
	}
	if len(numeric) == 0 {
		res := insufficient(field, ruleCount, "no numeric count candidates")
		res.Warnings = append(warnings, res.Warnings...)
		return res
	}

	agg := evidence.Aggregate(numeric, aggOptions(d))
	facts, factWarnings := buildConditionalFacts(numeric, d.MinConditionWeight)
	warnings = append(warnings, factWarnings...)

	low, high := observedSpan(numeric)
	distinct := distinctCounts(numeric)
	labeled := hasEngineLabel(numeric)

	defaultValue, defaultShare := marketDefault(numeric)
	confidence := defaultShare * agg.Score.HighestTier.Weight()

	var rng model.ValueRange
	var chosenDefault any
	switch {
	case distinct <= 1:
		// Every source agrees; the count does not hinge on the variant.
		rng = model.ValueRange{
			Low:          ptr(low),
			High:         ptr(high),
			Chosen:       ptr(low),
			EstimateType: model.EstimateMedianOfTrusted,
		}
		chosenDefault = defaultValue

	case labeled:
		// Disagreement is explained by engine labels: surface the facts
		// and the market default, flagged as variant-dependent.
		rng = model.ValueRange{
			Low:           ptr(low),
			High:          ptr(high),
			Chosen:        nil,
			EstimateType:  model.EstimateEngineDependent,
			VariantNeeded: true,
		}
		chosenDefault = defaultValue
		warnings = append(warnings, warnf("count varies by engine; per-engine facts attached"))

	default:
		// Counts disagree and nothing names the engine: do not guess.
		rng = model.ValueRange{
			Low:           ptr(low),
			High:          ptr(high),
			Chosen:        nil,
			EstimateType:  model.EstimateUnknownPendingVariant,
			VariantNeeded: true,
		}
		confidence = 0
		warnings = append(warnings, warnf("observed counts %g-%g disagree and the engine is unknown; refusing to pick a value", low, high))
	}

	status := model.StatusNeedsReview
	if rng.Chosen != nil && confidence >= fc.AcceptThreshold {
		status = model.StatusOK
	}

	return model.FieldResolution{
		FieldName: field,
		Value: model.ConditionalValue{
			Default: chosenDefault,
			Facts:   facts,
			Range:   &rng,
		},
		Evidence:    agg.Score,
		Confidence:  confidence,
		Status:      status,
		RuleApplied: ruleCount,
		Warnings:    warnings,
	}
}

func observedSpan(candidates []model.CandidateObservation) (low, high float64) {
	first := true
	for _, c := range candidates {
		v, ok := c.NumericValue()
		if !ok {
			continue
		}
		if first {
			low, high = v, v
			first = false
			continue
		}
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}
	return low, high
}

func distinctCounts(candidates []model.CandidateObservation) int {
	seen := make(map[float64]bool)
	for _, c := range candidates {
		if v, ok := c.NumericValue(); ok {
			seen[v] = true
		}
	}
	return len(seen)
}

func hasEngineLabel(candidates []model.CandidateObservation) bool {
	for _, c := range candidates {
		if strings.TrimSpace(c.Condition) != "" {
			return true
		}
	}
	return false
}
