package schedule

import (
	"sort"
	"time"

	"proforma_engine/pkg/models"
)

// ComputeCriticalPath builds the critical path report for a project from its
// budget items and milestones.
//
// This is a simplified CPM variant: no predecessor graph is modeled, so no
// forward/backward pass runs here. Early/late dates and float are trusted as
// supplied by the caller; this pass filters to critical entities, computes
// day-precision durations, and orders everything chronologically. Entities
// with zero float and a populated early date are treated as critical even
// when the flag was not set; cancelled milestones are always excluded.
//
// An input with no critical entities yields an empty report, never an error,
// and missing optional fields default (duration 0, float 0).
func ComputeCriticalPath(settings *models.ProjectSettings, items []models.LineItemRecord, milestones []models.MilestoneRecord) *CriticalPathReport {
	report := &CriticalPathReport{
		ProjectID: settings.ProjectID,
		Items:     []PathItem{},
		// Project bounds come from settings, not from the path itself.
		ProjectStart: models.DateOnly(settings.AnalysisStartDate),
		ProjectEnd:   models.DateOnly(settings.AnalysisEndDate),
	}

	for i := range items {
		li := &items[i]
		if !isCriticalItem(li.IsCritical, li.FloatDays, li.EarlyStart) {
			continue
		}
		report.Items = append(report.Items, PathItem{
			Type:         EntityBudget,
			ID:           li.ID,
			Name:         li.Name,
			EarlyStart:   li.EarlyStart,
			EarlyFinish:  li.EarlyFinish,
			DurationDays: daysBetween(li.EarlyStart, li.EarlyFinish),
			FloatDays:    clampFloat(li.FloatDays),
		})
	}

	for i := range milestones {
		ms := &milestones[i]
		if ms.Status == models.StatusCancelled {
			continue
		}
		if !isCriticalItem(ms.IsCritical, ms.FloatDays, ms.EarlyDate) {
			continue
		}
		report.Items = append(report.Items, PathItem{
			Type:        EntityMilestone,
			ID:          ms.ID,
			Name:        ms.Name,
			EarlyStart:  ms.EarlyDate,
			EarlyFinish: ms.EarlyDate,
			// Milestones are instantaneous: duration 0
			FloatDays: clampFloat(ms.FloatDays),
		})
	}

	// Chronological order by early start, missing dates last. The sort must
	// be stable so ties keep insertion order and repeated calls reproduce
	// the same report.
	sort.SliceStable(report.Items, func(a, b int) bool {
		ia, ib := report.Items[a], report.Items[b]
		if ia.EarlyStart == nil {
			return false
		}
		if ib.EarlyStart == nil {
			return true
		}
		return models.DateOnly(*ia.EarlyStart).Before(models.DateOnly(*ib.EarlyStart))
	})

	for _, item := range report.Items {
		report.CriticalPathLength += item.DurationDays
	}
	return report
}

// isCriticalItem applies the inclusion policy: flagged critical, or zero
// float with a known early date.
func isCriticalItem(flagged bool, floatDays int, earlyStart *time.Time) bool {
	if flagged {
		return true
	}
	return floatDays == 0 && earlyStart != nil
}

// daysBetween returns the whole-day span between two dates, time-of-day
// truncated, floored at zero. Either side missing defaults to zero.
func daysBetween(start, finish *time.Time) int {
	if start == nil || finish == nil {
		return 0
	}
	days := int(models.DateOnly(*finish).Sub(models.DateOnly(*start)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func clampFloat(days int) int {
	if days < 0 {
		return 0
	}
	return days
}
