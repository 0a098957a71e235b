package allocation

import (
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"proforma_engine/pkg/models"
)

// Result is one (item, period) cell of a spread: the portion of an item's
// lump amount landing in a single period.
type Result struct {
	FactID         uuid.UUID       `json:"fact_id"`
	PeriodSequence int             `json:"period_sequence"`
	Amount         decimal.Decimal `json:"amount"`
}

// Allocate spreads totalAmount across duration consecutive periods starting
// at startPeriod, shaped by the curve profile and steepness. The returned
// amounts sum to totalAmount exactly: per-period values are rounded to the
// cent and the final period absorbs the rounding residual.
//
// A duration of 1 places the full amount in the start period regardless of
// profile. Negative totals (credits, refunds) spread proportionally with the
// sign preserved.
func Allocate(totalAmount decimal.Decimal, startPeriod, duration int, profile models.CurveProfile, steepness int) ([]Result, error) {
	if duration < 1 {
		return nil, &models.InvalidParameterError{Field: "duration", Reason: "must be at least 1 period"}
	}
	if !profile.Valid() {
		return nil, &models.InvalidParameterError{Field: "curve_profile", Reason: "unknown profile " + string(profile)}
	}

	if duration == 1 {
		// The full amount lands unrounded, matching the multi-period path
		// whose final target is the exact total.
		return []Result{{PeriodSequence: startPeriod, Amount: totalAmount}}, nil
	}

	weights := periodWeights(duration, profile, models.ClampSteepness(steepness))

	// Cumulative rounding: each period's amount is the step between rounded
	// running targets, so rounding noise never stacks up and the sign of the
	// total carries through to every cell. The final target is the total
	// itself, which makes the last period the residual-correction step.
	results := make([]Result, 0, duration)
	cumWeight := 0.0
	prev := decimal.Zero
	for i := 0; i < duration; i++ {
		var target decimal.Decimal
		if i == duration-1 {
			target = totalAmount
		} else {
			cumWeight += weights[i]
			target = totalAmount.Mul(decimal.NewFromFloat(cumWeight)).Round(2)
		}
		results = append(results, Result{PeriodSequence: startPeriod + i, Amount: target.Sub(prev)})
		prev = target
	}
	return results, nil
}

// ForLineItem validates a line item and spreads its amount, stamping each
// result with the item's ID.
func ForLineItem(li *models.LineItemRecord) ([]Result, error) {
	if err := li.Validate(); err != nil {
		return nil, err
	}
	results, err := Allocate(li.Amount, li.StartPeriod, li.Duration, li.CurveProfile, li.ClampedSteepness())
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].FactID = li.ID
	}
	return results, nil
}

// periodWeights computes normalized per-period weights (summing to 1) for a
// duration of at least 2.
func periodWeights(duration int, profile models.CurveProfile, steepness int) []float64 {
	weights := make([]float64, duration)

	if profile == models.CurveLinear {
		equal := 1.0 / float64(duration)
		for i := range weights {
			weights[i] = equal
		}
		return weights
	}

	// Sigmoid family: each period's weight is the mass of a logistic CDF
	// between its normalized bounds. The midpoint shifts for front- and
	// back-loaded variants; steepness sharpens the transition.
	var midpoint float64
	switch profile {
	case models.CurveFrontLoad:
		midpoint = 0.25
	case models.CurveBackLoad:
		midpoint = 0.75
	default:
		midpoint = 0.5
	}
	k := 2.0 + 0.16*float64(steepness)

	cdf := func(x float64) float64 {
		return 1.0 / (1.0 + math.Exp(-k*(x-midpoint)))
	}

	lo := cdf(0)
	span := cdf(1) - lo
	for i := 0; i < duration; i++ {
		a := float64(i) / float64(duration)
		b := float64(i+1) / float64(duration)
		weights[i] = (cdf(b) - cdf(a)) / span
	}
	return weights
}
