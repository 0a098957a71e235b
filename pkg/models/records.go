package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PeriodType selects the calendar granularity of the analysis grid.
type PeriodType string

const (
	PeriodMonth   PeriodType = "month"
	PeriodQuarter PeriodType = "quarter"
	PeriodYear    PeriodType = "year"
)

// Valid reports whether the period type is one of the supported granularities.
func (p PeriodType) Valid() bool {
	return p == PeriodMonth || p == PeriodQuarter || p == PeriodYear
}

// CurveProfile selects the distribution shape used to spread a lump amount
// across its duration.
type CurveProfile string

const (
	CurveLinear    CurveProfile = "linear"
	CurveS         CurveProfile = "S"  // symmetric sigmoid
	CurveFrontLoad CurveProfile = "S1" // majority lands in the first half
	CurveBackLoad  CurveProfile = "S2" // majority lands in the second half
)

// Valid reports whether the profile is a known curve variant.
func (c CurveProfile) Valid() bool {
	switch c {
	case CurveLinear, CurveS, CurveFrontLoad, CurveBackLoad:
		return true
	}
	return false
}

// MilestoneStatus mirrors the externally governed milestone lifecycle. The
// engine only reads it; transitions happen in the owning system.
type MilestoneStatus string

const (
	StatusNotStarted MilestoneStatus = "not_started"
	StatusInProgress MilestoneStatus = "in_progress"
	StatusCompleted  MilestoneStatus = "completed"
	StatusCancelled  MilestoneStatus = "cancelled"
)

// CategoryKind classifies a section for inflow/outflow aggregation.
type CategoryKind string

const (
	KindRevenue   CategoryKind = "revenue"
	KindCost      CategoryKind = "cost"
	KindFinancing CategoryKind = "financing"
)

// Period is one bucket of the analysis grid. Sequence is 1-based and
// monotonic; consecutive periods are contiguous and never overlap.
type Period struct {
	Sequence   int        `json:"sequence"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	PeriodType PeriodType `json:"period_type"`
}

// LineItemRecord is a budget or actual fact as persisted by the calling
// system. Amount is the lump total to be spread; the early/late date fields
// and FloatDays are pre-computed upstream and only consumed here.
type LineItemRecord struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	Quantity     decimal.Decimal `json:"quantity"`
	Rate         decimal.Decimal `json:"rate"`
	StartPeriod  int             `json:"start_period"`
	Duration     int             `json:"duration"` // whole periods, >= 1
	CurveProfile CurveProfile    `json:"curve_profile"`
	Steepness    int             `json:"steepness"` // clamped to [0, 100]
	CategoryID   uuid.UUID       `json:"category_id"`
	IsCritical   bool            `json:"is_critical"`
	EarlyStart   *time.Time      `json:"early_start,omitempty"`
	EarlyFinish  *time.Time      `json:"early_finish,omitempty"`
	LateStart    *time.Time      `json:"late_start,omitempty"`
	LateFinish   *time.Time      `json:"late_finish,omitempty"`
	FloatDays    int             `json:"float_days"`
}

// MilestoneRecord is a schedule milestone as persisted upstream.
type MilestoneRecord struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	EarlyDate  *time.Time      `json:"early_date,omitempty"`
	LateDate   *time.Time      `json:"late_date,omitempty"`
	FloatDays  int             `json:"float_days"`
	IsCritical bool            `json:"is_critical"`
	Status     MilestoneStatus `json:"status"`
}

// Category names a cash flow section and classifies it as revenue, cost or
// financing.
type Category struct {
	ID   uuid.UUID    `json:"id"`
	Name string       `json:"name"`
	Kind CategoryKind `json:"kind"`
}

// ProjectSettings holds the project-level analysis window and defaults.
type ProjectSettings struct {
	ProjectID         uuid.UUID  `json:"project_id"`
	Name              string     `json:"name"`
	AnalysisStartDate time.Time  `json:"analysis_start_date"`
	AnalysisEndDate   time.Time  `json:"analysis_end_date"`
	PeriodType        PeriodType `json:"period_type"`
	DiscountRate      *float64   `json:"discount_rate,omitempty"`
}

// reconcileTolerance is one cent: quantity * rate must land within this of
// the stated amount when both drivers are present.
var reconcileTolerance = decimal.NewFromFloat(0.01)

// DateOnly truncates a timestamp to a UTC calendar date. Time-of-day has no
// significance for period alignment or duration math.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Validate checks a line item before it enters the computation core. It
// returns an InvalidParameterError naming the offending field so callers can
// surface the message verbatim.
func (li *LineItemRecord) Validate() error {
	if li.Duration < 1 {
		return &InvalidParameterError{Field: "duration", Reason: "must be at least 1 period"}
	}
	if li.StartPeriod < 1 {
		return &InvalidParameterError{Field: "start_period", Reason: "period sequences are 1-based"}
	}
	if !li.CurveProfile.Valid() {
		return &InvalidParameterError{Field: "curve_profile", Reason: "unknown profile " + string(li.CurveProfile)}
	}
	// quantity * rate must reconcile to amount when both drivers are present
	if !li.Quantity.IsZero() && !li.Rate.IsZero() {
		derived := li.Quantity.Mul(li.Rate)
		if derived.Sub(li.Amount).Abs().GreaterThan(reconcileTolerance) {
			return &InvalidParameterError{Field: "amount", Reason: "quantity * rate does not reconcile to amount"}
		}
	}
	return nil
}

// ClampedSteepness returns the steepness bounded to [0, 100]. Out-of-range
// values are clamped rather than rejected.
func (li *LineItemRecord) ClampedSteepness() int {
	return ClampSteepness(li.Steepness)
}

// ClampSteepness bounds a steepness parameter to [0, 100].
func ClampSteepness(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
