// Package gate decides whether a field resolution is eligible for the
// durable store. Resolutions failing the gate are still returned to
// callers for display; they just never pollute the canonical dataset.
package gate

import "github.com/garagedata/vehiclefacts/internal/model"

// Config holds the persistence thresholds. These are the primary
// tuning surface for the data-quality/recall trade-off, so they travel
// as an explicit struct rather than hidden globals.
type Config struct {
	MinConfidence     float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	MinEvidenceWeight float64 `yaml:"min_evidence_weight" mapstructure:"min_evidence_weight"`
	MinSources        int     `yaml:"min_sources" mapstructure:"min_sources"`
}

// DefaultConfig returns the standard gate thresholds.
func DefaultConfig() Config {
	return Config{
		MinConfidence:     0.7,
		MinEvidenceWeight: 0.7,
		MinSources:        1,
	}
}

// AllowPersist reports whether the resolution may be written to the
// durable store. Pure predicate: status must be ok and confidence,
// evidence weight, and source count must all clear their thresholds.
func AllowPersist(res model.FieldResolution, cfg Config) bool {
	return res.Status == model.StatusOK &&
		res.Confidence >= cfg.MinConfidence &&
		res.Evidence.WeightedScore >= cfg.MinEvidenceWeight &&
		res.Evidence.SourceCount >= cfg.MinSources
}
