package report

import (
	"fmt"
	"strings"

	"github.com/garagedata/vehiclefacts/internal/model"
)

// FormatMarkdown renders a resolution report for humans. Every warning
// a rule attached is included so the report explains itself without
// re-deriving the computation.
func FormatMarkdown(rep *model.ResolutionReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Resolution Report: %s\n\n", rep.Key.String())
	fmt.Fprintf(&b, "- Outcome: %s\n", rep.Outcome)
	fmt.Fprintf(&b, "- Overall confidence: %.0f%%\n", rep.OverallConfidence*100)
	fmt.Fprintf(&b, "- Fields resolved: %d/%d\n", len(rep.FieldsResolved), len(rep.Fields))
	if rep.ActionNeeded {
		fmt.Fprintf(&b, "- Needs review: %s\n", strings.Join(rep.FieldsNeedingReview, ", "))
	}
	b.WriteString("\n## Fields\n\n")

	for _, name := range rep.SortedFieldNames() {
		res := rep.Fields[name]
		fmt.Fprintf(&b, "### %s\n", name)
		fmt.Fprintf(&b, "- Status: %s (%.0f%% confidence, rule %s)\n", res.Status, res.Confidence*100, res.RuleApplied)

		if v := res.ChosenScalar(); v != nil {
			fmt.Fprintf(&b, "- Value: %v\n", v)
		} else {
			b.WriteString("- Value: undetermined\n")
		}
		writeRange(&b, res)
		writeFacts(&b, res)

		fmt.Fprintf(&b, "- Evidence: %.2f weighted across %d source(s), best tier %s\n",
			res.Evidence.WeightedScore, res.Evidence.SourceCount, res.Evidence.HighestTier)
		if len(res.Evidence.Outliers) > 0 {
			fmt.Fprintf(&b, "- Outliers excluded: %s\n", strings.Join(res.Evidence.Outliers, ", "))
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "- Note: %s\n", w)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeRange(b *strings.Builder, res model.FieldResolution) {
	var rng *model.ValueRange
	switch v := res.Value.(type) {
	case model.NumericValue:
		rng = &v.Range
	case model.ConditionalValue:
		rng = v.Range
	}
	if rng == nil || rng.Low == nil || rng.High == nil {
		return
	}
	fmt.Fprintf(b, "- Range: %g to %g (%s)", *rng.Low, *rng.High, rng.EstimateType)
	if rng.VariantNeeded {
		b.WriteString("; exact value depends on the sub-variant")
	}
	b.WriteString("\n")
}

func writeFacts(b *strings.Builder, res model.FieldResolution) {
	v, ok := res.Value.(model.ConditionalValue)
	if !ok {
		return
	}
	for _, f := range v.Facts {
		fmt.Fprintf(b, "- When %s: %v (%.0f%% confidence)\n", f.Condition, f.Value, f.Confidence*100)
	}
}
