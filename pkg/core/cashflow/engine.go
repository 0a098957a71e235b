package cashflow

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"proforma_engine/pkg/core/allocation"
	"proforma_engine/pkg/core/period"
	"proforma_engine/pkg/models"
)

// Engine synthesizes period-by-period cash flow statements. It is stateless:
// every generation is a pure function of the loaded records, so one Engine
// may serve concurrent callers without coordination.
type Engine struct {
	source DataSource
}

// NewEngine creates an engine over a data collaborator.
func NewEngine(source DataSource) *Engine {
	return &Engine{source: source}
}

// GenerateCashFlow resolves the project's analysis window, builds the period
// grid, spreads every line item through the S-curve allocator, groups the
// spreads into sections and computes the summary metrics.
//
// Validation failures surface before any computation begins; the engine
// never returns a partial result alongside an error. Allocation cells
// falling outside a start/end period override are dropped from the window.
func (e *Engine) GenerateCashFlow(ctx context.Context, opts Options) (*CashFlow, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	settings, err := e.source.ProjectSettings(ctx, opts.ProjectID)
	if err != nil || settings == nil {
		return nil, &models.ProjectNotFoundError{ProjectID: opts.ProjectID.String()}
	}
	if settings.AnalysisStartDate.IsZero() || settings.AnalysisEndDate.IsZero() {
		return nil, &models.ProjectNotFoundError{ProjectID: opts.ProjectID.String()}
	}

	periodType := settings.PeriodType
	if opts.PeriodType != "" {
		periodType = opts.PeriodType
	}

	grid, err := period.BuildPeriods(settings.AnalysisStartDate, settings.AnalysisEndDate, periodType)
	if err != nil {
		return nil, err
	}

	firstSeq, lastSeq := 1, len(grid)
	if opts.StartPeriod > 0 {
		if opts.StartPeriod > len(grid) {
			return nil, &models.InvalidParameterError{Field: "start_period", Reason: "beyond the analysis window"}
		}
		firstSeq = opts.StartPeriod
	}
	if opts.EndPeriod > 0 {
		if opts.EndPeriod > len(grid) {
			lastSeq = len(grid)
		} else {
			lastSeq = opts.EndPeriod
		}
	}
	window := grid[firstSeq-1 : lastSeq]

	categories, err := e.source.Categories(ctx, opts.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}
	catByID := make(map[uuid.UUID]models.Category, len(categories))
	for _, c := range categories {
		catByID[c.ID] = c
	}

	items, err := e.source.LineItems(ctx, Scope{
		ProjectID:        opts.ProjectID,
		ContainerFilter:  opts.ContainerFilter,
		ScenarioID:       opts.ScenarioID,
		IncludeFinancing: opts.IncludeFinancing,
	})
	if err != nil {
		return nil, fmt.Errorf("loading line items: %w", err)
	}

	sections := make(map[string]*Section)
	for i := range items {
		li := &items[i]
		cat, ok := catByID[li.CategoryID]
		if !ok {
			cat = models.Category{Name: "Uncategorized", Kind: models.KindCost}
		}
		if cat.Kind == models.KindFinancing && !opts.IncludeFinancing {
			continue
		}

		cells, err := allocation.ForLineItem(li)
		if err != nil {
			return nil, err
		}

		section, ok := sections[cat.Name]
		if !ok {
			section = &Section{
				Name:         cat.Name,
				Kind:         cat.Kind,
				PeriodTotals: zeroTotals(len(window)),
			}
			sections[cat.Name] = section
		}
		section.LineItems = append(section.LineItems, *li)

		for _, cell := range cells {
			idx := cell.PeriodSequence - firstSeq
			if idx < 0 || idx >= len(window) {
				continue
			}
			section.PeriodTotals[idx] = section.PeriodTotals[idx].Add(cell.Amount)
		}
	}

	ordered := orderSections(sections)
	net := netSeries(ordered, len(window))
	summary := summarize(ordered, net, opts.DiscountRate)

	return &CashFlow{
		ProjectID:    opts.ProjectID,
		GeneratedAt:  time.Now().UTC(),
		Periods:      window,
		Sections:     ordered,
		NetByPeriod:  net,
		Summary:      summary,
		TotalPeriods: len(window),
		StartDate:    window[0].StartDate,
		EndDate:      window[len(window)-1].EndDate,
	}, nil
}

func validateOptions(opts Options) error {
	if opts.DiscountRate != nil {
		if math.IsNaN(*opts.DiscountRate) || math.IsInf(*opts.DiscountRate, 0) {
			return &models.InvalidParameterError{Field: "discount_rate", Reason: "must be a finite number"}
		}
		// A rate of -100% or below makes the discount factor zero or
		// negative, which has no economic meaning and would divide by zero.
		if *opts.DiscountRate <= -1.0 {
			return &models.InvalidParameterError{Field: "discount_rate", Reason: "must be greater than -1"}
		}
	}
	if opts.StartPeriod < 0 {
		return &models.InvalidParameterError{Field: "start_period", Reason: "must not be negative"}
	}
	if opts.EndPeriod < 0 {
		return &models.InvalidParameterError{Field: "end_period", Reason: "must not be negative"}
	}
	if opts.StartPeriod > 0 && opts.EndPeriod > 0 && opts.EndPeriod < opts.StartPeriod {
		return &models.InvalidParameterError{Field: "end_period", Reason: "must not precede start_period"}
	}
	return nil
}

func zeroTotals(n int) []decimal.Decimal {
	totals := make([]decimal.Decimal, n)
	for i := range totals {
		totals[i] = decimal.Zero
	}
	return totals
}

// orderSections fixes a deterministic presentation order: revenue, cost,
// financing, alphabetical within each kind.
func orderSections(byName map[string]*Section) []Section {
	rank := map[models.CategoryKind]int{
		models.KindRevenue:   0,
		models.KindCost:      1,
		models.KindFinancing: 2,
	}
	ordered := make([]Section, 0, len(byName))
	for _, s := range byName {
		ordered = append(ordered, *s)
	}
	sort.Slice(ordered, func(a, b int) bool {
		if rank[ordered[a].Kind] != rank[ordered[b].Kind] {
			return rank[ordered[a].Kind] < rank[ordered[b].Kind]
		}
		return ordered[a].Name < ordered[b].Name
	})
	return ordered
}

// netSeries computes net[p] = inflow[p] - outflow[p]. Cost amounts are
// stored positive and subtracted; financing amounts are signed (draws
// positive, repayments negative) and added as-is.
func netSeries(sections []Section, periods int) []decimal.Decimal {
	net := zeroTotals(periods)
	for _, s := range sections {
		for i, amt := range s.PeriodTotals {
			switch s.Kind {
			case models.KindRevenue, models.KindFinancing:
				net[i] = net[i].Add(amt)
			case models.KindCost:
				net[i] = net[i].Sub(amt)
			}
		}
	}
	return net
}

func summarize(sections []Section, net []decimal.Decimal, discountRate *float64) Summary {
	summary := Summary{
		TotalInflow:  decimal.Zero,
		TotalOutflow: decimal.Zero,
		NetCashFlow:  decimal.Zero,
		PeriodCount:  len(net),
	}
	for _, s := range sections {
		for _, amt := range s.PeriodTotals {
			switch s.Kind {
			case models.KindRevenue:
				summary.TotalInflow = summary.TotalInflow.Add(amt)
			case models.KindCost:
				summary.TotalOutflow = summary.TotalOutflow.Add(amt)
			}
		}
	}
	for _, n := range net {
		summary.NetCashFlow = summary.NetCashFlow.Add(n)
	}

	if discountRate != nil {
		npv := NetPresentValue(net, *discountRate)
		summary.NPV = &npv
		summary.IRR = InternalRateOfReturn(net)
	}
	return summary
}
