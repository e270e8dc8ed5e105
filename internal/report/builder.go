// Package report assembles per-field resolutions into a consolidated
// resolution report. The builder performs no I/O and contains no
// business rules; it only summarizes.
package report

import (
	"time"

	"github.com/garagedata/vehiclefacts/internal/model"
)

// Build assembles a resolution report for one vehicle. Overall
// confidence is the mean across fields with usable evidence; the
// outcome is complete when every required field reached ok, failed when
// none did, and partial otherwise.
func Build(key model.VehicleKey, strategy string, fields map[string]model.FieldResolution, required []string) *model.ResolutionReport {
	rep := &model.ResolutionReport{
		Key:       key,
		Strategy:  strategy,
		Fields:    fields,
		CreatedAt: time.Now().UTC(),
	}

	var confSum float64
	var confCount int
	okCount := 0
	for _, name := range rep.SortedFieldNames() {
		res := fields[name]
		if res.Status != model.StatusInsufficientData {
			confSum += res.Confidence
			confCount++
		}
		switch res.Status {
		case model.StatusOK:
			okCount++
			rep.FieldsResolved = append(rep.FieldsResolved, name)
		case model.StatusNeedsReview:
			rep.FieldsNeedingReview = append(rep.FieldsNeedingReview, name)
			rep.ActionNeeded = true
		}
	}

	if confCount > 0 {
		rep.OverallConfidence = confSum / float64(confCount)
	}

	rep.Outcome = outcomeOf(fields, required, okCount)
	return rep
}

func outcomeOf(fields map[string]model.FieldResolution, required []string, okCount int) model.ReportOutcome {
	if okCount == 0 {
		return model.OutcomeFailed
	}

	// Default the required set to every requested field.
	if len(required) == 0 {
		for name := range fields {
			required = append(required, name)
		}
	}
	for _, name := range required {
		res, ok := fields[name]
		if !ok || res.Status != model.StatusOK {
			return model.OutcomePartial
		}
	}
	return model.OutcomeComplete
}
