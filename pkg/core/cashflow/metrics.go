package cashflow

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	irrMaxIterations = 200
	irrTolerance     = 1e-7
	irrBracketLow    = -0.9999
	irrBracketHigh   = 10.0
)

// NetPresentValue discounts a net cash flow series at the given rate. The
// first flow is discounted by (1+r)^0, matching period sequence p with
// exponent p-1. Division stays in decimal so currency precision survives the
// discounting.
func NetPresentValue(flows []decimal.Decimal, rate float64) decimal.Decimal {
	base := decimal.NewFromFloat(1.0 + rate)
	npv := decimal.Zero
	for i, flow := range flows {
		factor := base.Pow(decimal.NewFromInt(int64(i)))
		npv = npv.Add(flow.DivRound(factor, 8))
	}
	return npv
}

// InternalRateOfReturn solves NPV(r) = 0 over the flow series by bisection
// with a capped iteration count. It returns nil when the series has no sign
// change (all inflows or all outflows) or the bracket does not straddle a
// root — such a project has no IRR, which is not an error.
func InternalRateOfReturn(flows []decimal.Decimal) *float64 {
	series := make([]float64, len(flows))
	hasPositive, hasNegative := false, false
	for i, flow := range flows {
		f, _ := flow.Float64()
		series[i] = f
		if f > 0 {
			hasPositive = true
		}
		if f < 0 {
			hasNegative = true
		}
	}
	if !hasPositive || !hasNegative {
		return nil
	}

	npvAt := func(rate float64) float64 {
		total := 0.0
		for i, f := range series {
			total += f / math.Pow(1.0+rate, float64(i))
		}
		return total
	}

	lo, hi := irrBracketLow, irrBracketHigh
	fLo, fHi := npvAt(lo), npvAt(hi)
	if fLo*fHi > 0 {
		return nil
	}

	for i := 0; i < irrMaxIterations; i++ {
		mid := (lo + hi) / 2
		fMid := npvAt(mid)
		if math.Abs(fMid) < irrTolerance || (hi-lo)/2 < irrTolerance {
			return &mid
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo = mid
			fLo = fMid
		}
	}
	mid := (lo + hi) / 2
	return &mid
}
