package rules

import (
	"github.com/garagedata/vehiclefacts/internal/evidence"
	"github.com/garagedata/vehiclefacts/internal/model"
)

const ruleBoolean = "boolean_with_high_bar"

// resolveBoolean handles boolean fields such as "is the engine block
// aluminum". Each candidate contributes tier weight times confidence to
// its outcome; the larger weighted sum wins, with a 75% agreement floor
// before the result reaches status ok. A lone high-trust source
// asserting a value outweighs any number of low-trust sources asserting
// the opposite.
func resolveBoolean(field string, candidates []model.CandidateObservation, fc FieldConfig, d DefaultConfig) model.FieldResolution {
	var warnings []string

	type side struct {
		weight      float64
		highestTier model.TrustTier
		members     []model.CandidateObservation
	}
	sides := map[bool]*side{
		true:  {highestTier: model.TierUnknown},
		false: {highestTier: model.TierUnknown},
	}

	var voters []model.CandidateObservation
	for _, c := range candidates {
		b, ok := c.BoolValue()
		if !ok {
			warnings = append(warnings, warnf("ignored non-boolean value from %s", c.SourceID))
			continue
		}
		s := sides[b]
		s.weight += c.Tier.Weight() * c.EffectiveConfidence()
		s.highestTier = model.HigherTier(s.highestTier, c.Tier)
		s.members = append(s.members, c)
		voters = append(voters, c)
	}

	if len(voters) == 0 {
		res := insufficient(field, ruleBoolean, "no boolean candidates")
		res.Warnings = append(warnings, res.Warnings...)
		return res
	}

	agg := evidence.Aggregate(voters, aggOptions(d))

	yes, no := sides[true], sides[false]
	chosen := yes.weight >= no.weight

	// Tier dominance: a high-trust side beats a side whose best source
	// is low trust or worse, regardless of summed weight.
	dominated := false
	if yes.highestTier == model.TierHigh && !no.highestTier.AtLeast(model.TierMedium) && len(no.members) > 0 {
		if !chosen {
			dominated = true
		}
		chosen = true
	} else if no.highestTier == model.TierHigh && !yes.highestTier.AtLeast(model.TierMedium) && len(yes.members) > 0 {
		if chosen {
			dominated = true
		}
		chosen = false
	}

	win, lose := sides[chosen], sides[!chosen]
	total := win.weight + lose.weight
	agreement := 1.0
	if total > 0 {
		agreement = win.weight / total
	}

	if dominated {
		warnings = append(warnings, warnf("high-trust source(s) overruled %d lower-trust source(s) asserting %v", len(lose.members), !chosen))
		if agreement < d.AgreementFloor {
			agreement = d.AgreementFloor
		}
	}

	confidence := agreement * win.highestTier.Weight()

	status := model.StatusNeedsReview
	if agreement >= d.AgreementFloor && confidence >= fc.AcceptThreshold {
		status = model.StatusOK
	}
	if agreement < d.AgreementFloor {
		warnings = append(warnings, warnf("only %.0f%% of weighted evidence agrees (floor %.0f%%)", agreement*100, d.AgreementFloor*100))
	}

	return model.FieldResolution{
		FieldName:   field,
		Value:       model.BooleanValue{Value: chosen},
		Evidence:    agg.Score,
		Confidence:  confidence,
		Status:      status,
		RuleApplied: ruleBoolean,
		Warnings:    warnings,
	}
}
