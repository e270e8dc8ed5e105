// Package store persists gate-passing field values and their full
// audit resolutions. The canonical table holds only the flattened
// tuple consumers query; the audit table keeps the complete resolution
// (range, conditional facts, warnings) for later review.
package store

import (
	"context"
	"fmt"

	"github.com/garagedata/vehiclefacts/internal/model"
)

// FlattenedField is the narrow tuple written to the canonical table
// for a field that passed the confidence gate.
type FlattenedField struct {
	FieldName       string          `json:"field_name"`
	Value           any             `json:"value"`
	Confidence      float64         `json:"confidence"`
	EvidenceWeight  float64         `json:"evidence_weight"`
	SourceCount     int             `json:"source_count"`
	HighestTier     model.TrustTier `json:"highest_tier"`
	EvidenceSummary string          `json:"evidence_summary"`
}

// Flatten reduces a resolution to its persistable tuple.
func Flatten(res model.FieldResolution) FlattenedField {
	return FlattenedField{
		FieldName:      res.FieldName,
		Value:          res.ChosenScalar(),
		Confidence:     res.Confidence,
		EvidenceWeight: res.Evidence.WeightedScore,
		SourceCount:    res.Evidence.SourceCount,
		HighestTier:    res.Evidence.HighestTier,
		EvidenceSummary: fmt.Sprintf("%.2f weighted across %d source(s), best tier %s",
			res.Evidence.WeightedScore, res.Evidence.SourceCount, res.Evidence.HighestTier),
	}
}

// Store is the persistence interface for resolved vehicle fields.
// GetFieldValue returns (nil, nil) when the field has never been
// persisted for the vehicle.
type Store interface {
	UpsertFieldValue(ctx context.Context, key model.VehicleKey, f FlattenedField) error
	GetFieldValue(ctx context.Context, key model.VehicleKey, field string) (*FlattenedField, error)
	SaveAudit(ctx context.Context, runID string, key model.VehicleKey, res model.FieldResolution) error
	Migrate(ctx context.Context) error
	Close() error
}
