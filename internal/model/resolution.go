package model

// ResolutionStatus is the business outcome of one field's resolution.
// Conflicting or absent evidence is a status, never an error.
type ResolutionStatus string

const (
	StatusOK               ResolutionStatus = "ok"
	StatusNeedsReview      ResolutionStatus = "needs_review"
	StatusInsufficientData ResolutionStatus = "insufficient_data"
)

// FieldArchetype selects which decision rule resolves a field.
type FieldArchetype string

const (
	ArchetypeNumeric     FieldArchetype = "numeric_range"    // e.g. curb weight
	ArchetypeBoolean     FieldArchetype = "boolean_high_bar" // e.g. aluminum block
	ArchetypeConditional FieldArchetype = "trim_conditional" // e.g. aluminum rims by trim
	ArchetypeCount       FieldArchetype = "variant_count"    // e.g. catalytic converter count
)

// Estimate types recorded on a ValueRange to name the rule branch that
// produced the chosen value.
const (
	EstimateMedianOfTrusted       = "median_of_trusted"
	EstimateMarketDefault         = "market_default"
	EstimateEngineDependent       = "engine_dependent"
	EstimateUnknownPendingVariant = "unknown_pending_variant"
)

// ValueRange represents a resolved numeric value honestly: the single
// surfaced value plus the observed spread. Chosen is nil when the rule
// explicitly refuses to guess. Invariant: Low <= *Chosen <= High
// whenever all three are set.
type ValueRange struct {
	Low           *float64 `json:"low,omitempty"`
	High          *float64 `json:"high,omitempty"`
	Chosen        *float64 `json:"chosen,omitempty"`
	EstimateType  string   `json:"estimate_type"`
	VariantNeeded bool     `json:"variant_needed_for_exact"`
}

// ConditionalFact is a value that holds only under a named condition
// (e.g. condition="trim=base"). Two or more facts with differing values
// set VariantNeeded on the parent range.
type ConditionalFact struct {
	Condition  string   `json:"condition"`
	Value      any      `json:"value"`
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources"`
}

// ResolvedValue is the tagged variant carried by a FieldResolution.
// Each decision rule returns exactly one concrete variant, so consumers
// switch on type instead of inspecting a dynamically-typed union.
type ResolvedValue interface {
	resolvedValue()
}

// NumericValue is a resolved numeric field with its range.
type NumericValue struct {
	Range ValueRange `json:"range"`
}

// BooleanValue is a resolved boolean field.
type BooleanValue struct {
	Value bool `json:"value"`
}

// ConditionalValue is a resolved variant-dependent field: a market
// default (possibly absent), the per-condition facts, and, for count
// fields, the observed numeric spread.
type ConditionalValue struct {
	Default any               `json:"default,omitempty"`
	Facts   []ConditionalFact `json:"conditional_facts,omitempty"`
	Range   *ValueRange       `json:"range,omitempty"`
}

func (NumericValue) resolvedValue()     {}
func (BooleanValue) resolvedValue()     {}
func (ConditionalValue) resolvedValue() {}

// FieldResolution is the immutable unit of output per field. A
// re-resolution produces a new value; nothing mutates one in place.
type FieldResolution struct {
	FieldName   string           `json:"field_name"`
	Value       ResolvedValue    `json:"value,omitempty"`
	Evidence    EvidenceScore    `json:"evidence"`
	Confidence  float64          `json:"confidence"`
	Status      ResolutionStatus `json:"status"`
	RuleApplied string           `json:"decision_rule_applied"`
	Warnings    []string         `json:"warnings,omitempty"`
}

// ChosenScalar flattens the resolved value to the single scalar surfaced
// to consumers, or nil when the rule refused to pick one.
func (r FieldResolution) ChosenScalar() any {
	switch v := r.Value.(type) {
	case NumericValue:
		if v.Range.Chosen != nil {
			return *v.Range.Chosen
		}
	case BooleanValue:
		return v.Value
	case ConditionalValue:
		if v.Default != nil {
			return v.Default
		}
		if v.Range != nil && v.Range.Chosen != nil {
			return *v.Range.Chosen
		}
	}
	return nil
}
