// Package rules holds one deterministic decision rule per field
// archetype. Rules consume aggregated evidence and produce a typed
// FieldResolution; they never consult state beyond the candidates and
// the named thresholds passed in. Conflicting or absent evidence is a
// resolution status, never an error.
package rules

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garagedata/vehiclefacts/internal/evidence"
	"github.com/garagedata/vehiclefacts/internal/model"
)

// Engine dispatches candidates to the decision rule for a field's
// archetype.
type Engine struct {
	cfg *Config
}

// NewEngine creates an engine over the given rule configuration. A nil
// config uses the built-in defaults.
func NewEngine(cfg *Config) *Engine {
	if cfg == nil {
		cfg = Defaults()
	}
	return &Engine{cfg: cfg}
}

// Resolve applies the archetype's rule to the candidates, which must
// already be boundary-validated and tier-classified. The returned
// resolution is complete: value, evidence, confidence, status, and
// human-readable warnings for every non-obvious branch taken.
func (e *Engine) Resolve(field string, arch model.FieldArchetype, candidates []model.CandidateObservation) model.FieldResolution {
	fc := e.cfg.FieldFor(field, arch)

	var res model.FieldResolution
	switch fc.Archetype {
	case model.ArchetypeBoolean:
		res = resolveBoolean(field, candidates, fc, e.cfg.Defaults)
	case model.ArchetypeConditional:
		res = resolveConditional(field, candidates, fc, e.cfg.Defaults)
	case model.ArchetypeCount:
		res = resolveCount(field, candidates, fc, e.cfg.Defaults)
	default:
		res = resolveNumeric(field, candidates, fc, e.cfg.Defaults)
	}

	zap.L().Debug("rules: field resolved",
		zap.String("field", field),
		zap.String("rule", res.RuleApplied),
		zap.String("status", string(res.Status)),
		zap.Float64("confidence", res.Confidence),
		zap.Int("sources", res.Evidence.SourceCount),
	)
	return res
}

func aggOptions(d DefaultConfig) evidence.Options {
	return evidence.Options{Tolerance: d.ClusterTolerance, OutlierSigma: d.OutlierSigma}
}

func insufficient(field, rule, why string) model.FieldResolution {
	return model.FieldResolution{
		FieldName:   field,
		Status:      model.StatusInsufficientData,
		RuleApplied: rule,
		Evidence:    model.EvidenceScore{HighestTier: model.TierUnknown},
		Warnings:    []string{why},
	}
}

func warnf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

func ptr(v float64) *float64 { return &v }
