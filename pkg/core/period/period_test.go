package period

import (
	"errors"
	"testing"
	"time"

	"proforma_engine/pkg/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthlyGrid(t *testing.T) {
	// Mid-month boundaries must round outward to full months:
	// Jan 15 .. Mar 10 => Jan, Feb, Mar (3 periods)
	periods, err := BuildPeriods(date(2025, time.January, 15), date(2025, time.March, 10), models.PeriodMonth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(periods) != 3 {
		t.Fatalf("expected 3 periods, got %d", len(periods))
	}
	if !periods[0].StartDate.Equal(date(2025, time.January, 1)) {
		t.Errorf("first period should start Jan 1, got %v", periods[0].StartDate)
	}
	if !periods[2].EndDate.Equal(date(2025, time.March, 31)) {
		t.Errorf("last period should end Mar 31, got %v", periods[2].EndDate)
	}
	if periods[0].Sequence != 1 || periods[2].Sequence != 3 {
		t.Errorf("sequences must be 1-based and monotonic")
	}
}

func TestQuarterlyAlignment(t *testing.T) {
	// Aug 20 sits in Q3 (Jul-Sep); window ending Feb 2 next year spans Q3, Q4, Q1.
	periods, err := BuildPeriods(date(2024, time.August, 20), date(2025, time.February, 2), models.PeriodQuarter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(periods) != 3 {
		t.Fatalf("expected 3 quarters, got %d", len(periods))
	}
	if !periods[0].StartDate.Equal(date(2024, time.July, 1)) {
		t.Errorf("Q3 should start Jul 1, got %v", periods[0].StartDate)
	}
	if !periods[2].EndDate.Equal(date(2025, time.March, 31)) {
		t.Errorf("final quarter should end Mar 31, got %v", periods[2].EndDate)
	}
}

func TestYearlyGrid(t *testing.T) {
	periods, err := BuildPeriods(date(2024, time.June, 1), date(2026, time.January, 15), models.PeriodYear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(periods) != 3 {
		t.Fatalf("expected 3 years, got %d", len(periods))
	}
	if !periods[0].StartDate.Equal(date(2024, time.January, 1)) || !periods[2].EndDate.Equal(date(2026, time.December, 31)) {
		t.Errorf("year boundaries wrong: %v .. %v", periods[0].StartDate, periods[2].EndDate)
	}
}

func TestContiguity(t *testing.T) {
	// endDate[i] + 1 day == startDate[i+1] for every consecutive pair,
	// and the final period fully contains the requested endDate.
	end := date(2027, time.November, 23)
	periods, err := BuildPeriods(date(2025, time.February, 7), end, models.PeriodMonth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < len(periods)-1; i++ {
		if !periods[i].EndDate.AddDate(0, 0, 1).Equal(periods[i+1].StartDate) {
			t.Errorf("gap between period %d and %d", periods[i].Sequence, periods[i+1].Sequence)
		}
	}
	last := periods[len(periods)-1]
	if last.EndDate.Before(end) {
		t.Errorf("final period must contain the requested end date")
	}
}

func TestSingleDayWindow(t *testing.T) {
	periods, err := BuildPeriods(date(2025, time.May, 5), date(2025, time.May, 5), models.PeriodMonth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(periods) != 1 {
		t.Fatalf("expected a single period, got %d", len(periods))
	}
}

func TestInvertedRange(t *testing.T) {
	_, err := BuildPeriods(date(2025, time.June, 1), date(2025, time.January, 1), models.PeriodMonth)
	var rangeErr *models.InvalidRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected InvalidRangeError, got %v", err)
	}
}

func TestUnknownPeriodType(t *testing.T) {
	_, err := BuildPeriods(date(2025, time.January, 1), date(2025, time.June, 1), models.PeriodType("week"))
	var paramErr *models.InvalidParameterError
	if !errors.As(err, &paramErr) {
		t.Fatalf("expected InvalidParameterError, got %v", err)
	}
	if paramErr.Field != "period_type" {
		t.Errorf("error should name period_type, got %q", paramErr.Field)
	}
}
