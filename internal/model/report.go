package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// VehicleKey identifies the entity being resolved. Drivetrain and
// Engine are optional. Callers normalize case and whitespace upstream.
type VehicleKey struct {
	Year       int    `json:"year"`
	Make       string `json:"make"`
	Model      string `json:"model"`
	Drivetrain string `json:"drivetrain,omitempty"`
	Engine     string `json:"engine,omitempty"`
}

// CacheKey encodes the key as a stable string. Optional components are
// always present as (possibly empty) positions so the encoding is
// unambiguous.
func (k VehicleKey) CacheKey() string {
	return fmt.Sprintf("%d|%s|%s|%s|%s", k.Year, k.Make, k.Model, k.Drivetrain, k.Engine)
}

func (k VehicleKey) String() string {
	parts := []string{fmt.Sprintf("%d %s %s", k.Year, k.Make, k.Model)}
	if k.Drivetrain != "" {
		parts = append(parts, k.Drivetrain)
	}
	if k.Engine != "" {
		parts = append(parts, k.Engine)
	}
	return strings.Join(parts, " ")
}

// ReportOutcome summarizes how much of a report resolved.
type ReportOutcome string

const (
	OutcomeComplete ReportOutcome = "complete"
	OutcomePartial  ReportOutcome = "partial"
	OutcomeFailed   ReportOutcome = "failed"
)

// ResolutionReport is the consolidated output for one vehicle: every
// field's resolution, including the ones that failed the confidence
// gate, so consumers can show low-confidence values rather than
// silently omit them.
type ResolutionReport struct {
	RunID               string                     `json:"run_id,omitempty"`
	Key                 VehicleKey                 `json:"entity_key"`
	Strategy            string                     `json:"strategy"`
	Outcome             ReportOutcome              `json:"outcome"`
	Fields              map[string]FieldResolution `json:"field_resolutions"`
	OverallConfidence   float64                    `json:"overall_confidence"`
	FieldsResolved      []string                   `json:"fields_resolved"`
	FieldsNeedingReview []string                   `json:"fields_needing_review"`
	ActionNeeded        bool                       `json:"action_needed"`
	CreatedAt           time.Time                  `json:"created_at"`
}

// SortedFieldNames returns the report's field names in stable order.
func (r *ResolutionReport) SortedFieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
