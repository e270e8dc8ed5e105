package model

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// CandidateObservation is one source's claim about a field's value, as
// returned by the grounded lookup collaborator. Candidates are ephemeral:
// they are folded into evidence and never persisted standalone.
type CandidateObservation struct {
	Value      any       `json:"value"`
	SourceID   string    `json:"source_identifier"`
	Quote      string    `json:"quote,omitempty"`
	SourceType string    `json:"source_type,omitempty"` // advisory hint only
	Condition  string    `json:"condition,omitempty"`   // trim/engine label, e.g. "trim=base"
	Confidence float64   `json:"confidence,omitempty"`
	Tier       TrustTier `json:"tier,omitempty"` // assigned by the classifier, not the collaborator
}

// Validate rejects candidates that are malformed at the boundary.
// A missing value or source identifier is an upstream defect, not a
// business outcome, and the candidate must be excluded before it
// reaches any decision rule.
func (c CandidateObservation) Validate() error {
	if c.Value == nil {
		return eris.Errorf("candidate: missing value (source %q)", c.SourceID)
	}
	if strings.TrimSpace(c.SourceID) == "" {
		return eris.New("candidate: missing source identifier")
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return eris.Errorf("candidate: confidence %.2f out of range (source %q)", c.Confidence, c.SourceID)
	}
	return nil
}

// EffectiveConfidence returns the per-candidate confidence, substituting
// a neutral default when the collaborator did not report one.
func (c CandidateObservation) EffectiveConfidence() float64 {
	if c.Confidence <= 0 {
		return 0.8
	}
	return c.Confidence
}

// NumericValue extracts the candidate value as a float64. Returns false
// for booleans, nil, and strings that do not parse as numbers.
func (c CandidateObservation) NumericValue() (float64, bool) {
	switch v := c.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(v, ",", "")), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// BoolValue extracts the candidate value as a boolean. Accepts native
// bools and the usual string spellings.
func (c CandidateObservation) BoolValue() (bool, bool) {
	switch v := c.Value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1":
			return true, true
		case "false", "no", "n", "0":
			return false, true
		}
	}
	return false, false
}
