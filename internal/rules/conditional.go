package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/garagedata/vehiclefacts/internal/evidence"
	"github.com/garagedata/vehiclefacts/internal/model"
)

const ruleConditional = "trim_variant_conditional"

// resolveConditional handles fields that legitimately vary by trim or
// another named condition, such as "are the rims aluminum". Each
// condition label with sufficient evidence becomes a conditional fact;
// the scalar default is the most frequently observed value across all
// candidates (the market default).
func resolveConditional(field string, candidates []model.CandidateObservation, fc FieldConfig, d DefaultConfig) model.FieldResolution {
	var warnings []string

	var wellFormed []model.CandidateObservation
	for _, c := range candidates {
		if c.Value == nil {
			continue
		}
		wellFormed = append(wellFormed, c)
	}
	if len(wellFormed) == 0 {
		res := insufficient(field, ruleConditional, "no usable candidates")
		res.Warnings = append(warnings, res.Warnings...)
		return res
	}

	agg := evidence.Aggregate(wellFormed, aggOptions(d))

	facts, factWarnings := buildConditionalFacts(wellFormed, d.MinConditionWeight)
	warnings = append(warnings, factWarnings...)

	defaultValue, defaultShare := marketDefault(wellFormed)

	variantNeeded := distinctFactValues(facts) >= 2
	if variantNeeded {
		warnings = append(warnings, warnf("value differs across %d condition(s); exact answer requires the vehicle's variant", len(facts)))
	}

	confidence := defaultShare * agg.Score.HighestTier.Weight()
	status := model.StatusNeedsReview
	if confidence >= fc.AcceptThreshold {
		status = model.StatusOK
	}

	return model.FieldResolution{
		FieldName: field,
		Value: model.ConditionalValue{
			Default: defaultValue,
			Facts:   facts,
			Range: &model.ValueRange{
				EstimateType:  model.EstimateMarketDefault,
				VariantNeeded: variantNeeded,
			},
		},
		Evidence:    agg.Score,
		Confidence:  confidence,
		Status:      status,
		RuleApplied: ruleConditional,
		Warnings:    warnings,
	}
}

// buildConditionalFacts groups candidates by condition label and emits
// a fact for each label whose evidence weight clears the minimum. The
// fact's value is the label's weighted-vote winner.
func buildConditionalFacts(candidates []model.CandidateObservation, minWeight float64) ([]model.ConditionalFact, []string) {
	groups := make(map[string][]model.CandidateObservation)
	for _, c := range candidates {
		label := strings.ToLower(strings.TrimSpace(c.Condition))
		if label == "" {
			continue
		}
		groups[label] = append(groups[label], c)
	}

	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var facts []model.ConditionalFact
	var warnings []string
	for _, label := range labels {
		members := groups[label]

		byValue := make(map[string]float64)
		valueOf := make(map[string]any)
		var total float64
		var highest model.TrustTier = model.TierUnknown
		var sources []string
		for _, m := range members {
			key := fmt.Sprintf("%v", m.Value)
			w := m.Tier.Weight() * m.EffectiveConfidence()
			byValue[key] += w
			valueOf[key] = m.Value
			total += w
			highest = model.HigherTier(highest, m.Tier)
			sources = append(sources, m.SourceID)
		}

		if total < minWeight {
			warnings = append(warnings, warnf("condition %q has insufficient evidence (weight %.2f)", label, total))
			continue
		}

		winKey := ""
		var winWeight float64
		keys := make([]string, 0, len(byValue))
		for k := range byValue {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if byValue[k] > winWeight {
				winKey, winWeight = k, byValue[k]
			}
		}

		facts = append(facts, model.ConditionalFact{
			Condition:  label,
			Value:      valueOf[winKey],
			Confidence: (winWeight / total) * highest.Weight(),
			Sources:    sources,
		})
	}

	return facts, warnings
}

// marketDefault returns the most frequently observed value across all
// candidates and its share of the total evidence weight. Ties on
// occurrence count break toward the higher weighted value.
func marketDefault(candidates []model.CandidateObservation) (any, float64) {
	counts := make(map[string]int)
	weights := make(map[string]float64)
	valueOf := make(map[string]any)
	var total float64
	for _, c := range candidates {
		key := fmt.Sprintf("%v", c.Value)
		w := c.Tier.Weight() * c.EffectiveConfidence()
		counts[key]++
		weights[key] += w
		valueOf[key] = c.Value
		total += w
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	winKey := ""
	for _, k := range keys {
		if winKey == "" ||
			counts[k] > counts[winKey] ||
			(counts[k] == counts[winKey] && weights[k] > weights[winKey]) {
			winKey = k
		}
	}

	share := 0.0
	if total > 0 {
		share = weights[winKey] / total
	}
	return valueOf[winKey], share
}

func distinctFactValues(facts []model.ConditionalFact) int {
	seen := make(map[string]bool)
	for _, f := range facts {
		seen[fmt.Sprintf("%v", f.Value)] = true
	}
	return len(seen)
}
