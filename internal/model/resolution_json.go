package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// fieldResolutionJSON is the wire envelope for FieldResolution. The
// variant kind is tagged explicitly so cached reports deserialize back
// into the correct concrete type.
type fieldResolutionJSON struct {
	FieldName   string           `json:"field_name"`
	ValueKind   string           `json:"value_kind,omitempty"`
	Value       json.RawMessage  `json:"value,omitempty"`
	Evidence    EvidenceScore    `json:"evidence"`
	Confidence  float64          `json:"confidence"`
	Status      ResolutionStatus `json:"status"`
	RuleApplied string           `json:"decision_rule_applied"`
	Warnings    []string         `json:"warnings,omitempty"`
}

const (
	valueKindNumeric     = "numeric"
	valueKindBoolean     = "boolean"
	valueKindConditional = "conditional"
)

// MarshalJSON tags the resolved value variant.
func (r FieldResolution) MarshalJSON() ([]byte, error) {
	env := fieldResolutionJSON{
		FieldName:   r.FieldName,
		Evidence:    r.Evidence,
		Confidence:  r.Confidence,
		Status:      r.Status,
		RuleApplied: r.RuleApplied,
		Warnings:    r.Warnings,
	}

	if r.Value != nil {
		var kind string
		switch r.Value.(type) {
		case NumericValue:
			kind = valueKindNumeric
		case BooleanValue:
			kind = valueKindBoolean
		case ConditionalValue:
			kind = valueKindConditional
		default:
			return nil, eris.Errorf("resolution: unknown value variant %T", r.Value)
		}
		raw, err := json.Marshal(r.Value)
		if err != nil {
			return nil, eris.Wrap(err, "resolution: marshal value")
		}
		env.ValueKind = kind
		env.Value = raw
	}

	return json.Marshal(env)
}

// UnmarshalJSON restores the tagged variant.
func (r *FieldResolution) UnmarshalJSON(data []byte) error {
	var env fieldResolutionJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return eris.Wrap(err, "resolution: unmarshal envelope")
	}

	r.FieldName = env.FieldName
	r.Evidence = env.Evidence
	r.Confidence = env.Confidence
	r.Status = env.Status
	r.RuleApplied = env.RuleApplied
	r.Warnings = env.Warnings
	r.Value = nil

	if len(env.Value) == 0 {
		return nil
	}

	switch env.ValueKind {
	case valueKindNumeric:
		var v NumericValue
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return eris.Wrap(err, "resolution: unmarshal numeric value")
		}
		r.Value = v
	case valueKindBoolean:
		var v BooleanValue
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return eris.Wrap(err, "resolution: unmarshal boolean value")
		}
		r.Value = v
	case valueKindConditional:
		var v ConditionalValue
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return eris.Wrap(err, "resolution: unmarshal conditional value")
		}
		r.Value = v
	default:
		return eris.Errorf("resolution: unknown value kind %q", env.ValueKind)
	}

	return nil
}
