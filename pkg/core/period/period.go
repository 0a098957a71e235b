package period

import (
	"time"

	"proforma_engine/pkg/models"
)

// BuildPeriods generates the contiguous, non-overlapping sequence of calendar
// periods covering [startDate, endDate]. Boundaries always round outward to
// full period units: the first period starts at the unit boundary containing
// startDate, and the last period runs to the end of the unit containing
// endDate. Sequences are 1-based.
//
// The result is deterministic for identical inputs and is the single time
// axis every other component indexes into.
func BuildPeriods(startDate, endDate time.Time, periodType models.PeriodType) ([]models.Period, error) {
	start := models.DateOnly(startDate)
	end := models.DateOnly(endDate)

	if start.After(end) {
		return nil, &models.InvalidRangeError{Start: start, End: end}
	}
	if !periodType.Valid() {
		return nil, &models.InvalidParameterError{Field: "period_type", Reason: "must be month, quarter or year"}
	}

	cursor := alignToUnit(start, periodType)
	periods := make([]models.Period, 0, 12)

	for seq := 1; ; seq++ {
		next := advance(cursor, periodType)
		periods = append(periods, models.Period{
			Sequence:   seq,
			StartDate:  cursor,
			EndDate:    next.AddDate(0, 0, -1),
			PeriodType: periodType,
		})
		if !next.After(end) {
			cursor = next
			continue
		}
		return periods, nil
	}
}

// alignToUnit snaps a date down to the start of its containing period unit.
func alignToUnit(d time.Time, periodType models.PeriodType) time.Time {
	switch periodType {
	case models.PeriodMonth:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	case models.PeriodQuarter:
		quarterStart := time.Month(((int(d.Month())-1)/3)*3 + 1)
		return time.Date(d.Year(), quarterStart, 1, 0, 0, 0, 0, time.UTC)
	default: // year
		return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
}

// advance moves a unit-aligned date forward by exactly one period unit.
func advance(d time.Time, periodType models.PeriodType) time.Time {
	switch periodType {
	case models.PeriodMonth:
		return d.AddDate(0, 1, 0)
	case models.PeriodQuarter:
		return d.AddDate(0, 3, 0)
	default:
		return d.AddDate(1, 0, 0)
	}
}
