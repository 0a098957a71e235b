package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hjson/hjson-go/v4"
	"github.com/shopspring/decimal"

	"proforma_engine/pkg/core/cashflow"
	"proforma_engine/pkg/core/format"
	"proforma_engine/pkg/core/schedule"
	"proforma_engine/pkg/models"
)

// Scenario is the lenient on-disk project description consumed by the demo
// runner. hjson keeps the files comment-friendly for analysts.
type Scenario struct {
	Project struct {
		Name          string   `json:"name"`
		AnalysisStart string   `json:"analysis_start"`
		AnalysisEnd   string   `json:"analysis_end"`
		PeriodType    string   `json:"period_type"`
		DiscountRate  *float64 `json:"discount_rate"`
	} `json:"project"`
	Categories []struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
	} `json:"categories"`
	LineItems []struct {
		Name         string  `json:"name"`
		Category     string  `json:"category"`
		Amount       float64 `json:"amount"`
		Quantity     float64 `json:"quantity"`
		Rate         float64 `json:"rate"`
		StartPeriod  int     `json:"start_period"`
		Duration     int     `json:"duration"`
		CurveProfile string  `json:"curve_profile"`
		Steepness    int     `json:"steepness"`
		IsCritical   bool    `json:"is_critical"`
		EarlyStart   string  `json:"early_start"`
		EarlyFinish  string  `json:"early_finish"`
		FloatDays    int     `json:"float_days"`
	} `json:"line_items"`
	Milestones []struct {
		Name       string `json:"name"`
		EarlyDate  string `json:"early_date"`
		LateDate   string `json:"late_date"`
		FloatDays  int    `json:"float_days"`
		IsCritical bool   `json:"is_critical"`
		Status     string `json:"status"`
	} `json:"milestones"`
}

// memorySource adapts a parsed scenario to the engine's DataSource.
type memorySource struct {
	settings   *models.ProjectSettings
	categories []models.Category
	items      []models.LineItemRecord
	milestones []models.MilestoneRecord
}

func (m *memorySource) ProjectSettings(_ context.Context, _ uuid.UUID) (*models.ProjectSettings, error) {
	return m.settings, nil
}
func (m *memorySource) Categories(_ context.Context, _ uuid.UUID) ([]models.Category, error) {
	return m.categories, nil
}
func (m *memorySource) LineItems(_ context.Context, _ cashflow.Scope) ([]models.LineItemRecord, error) {
	return m.items, nil
}
func (m *memorySource) Milestones(_ context.Context, _ uuid.UUID) ([]models.MilestoneRecord, error) {
	return m.milestones, nil
}

func main() {
	path := "scenarios/sample.hjson"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	source, discountRate, err := loadScenario(path)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("[PROFORMA] Loaded scenario %q (%s)\n", source.settings.Name, path)

	ctx := context.Background()
	engine := cashflow.NewEngine(source)
	cf, err := engine.GenerateCashFlow(ctx, cashflow.Options{
		ProjectID:        source.settings.ProjectID,
		IncludeFinancing: true,
		DiscountRate:     discountRate,
	})
	if err != nil {
		fmt.Printf("[FATAL] Cash flow generation failed: %v\n", err)
		os.Exit(1)
	}

	printCashFlow(cf)

	report := schedule.ComputeCriticalPath(source.settings, source.items, source.milestones)
	printCriticalPath(report)
}

func loadScenario(path string) (*memorySource, *float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading scenario: %w", err)
	}
	var sc Scenario
	if err := hjson.Unmarshal(data, &sc); err != nil {
		return nil, nil, fmt.Errorf("parsing scenario: %w", err)
	}

	start, err := parseDate(sc.Project.AnalysisStart)
	if err != nil {
		return nil, nil, fmt.Errorf("project analysis_start: %w", err)
	}
	end, err := parseDate(sc.Project.AnalysisEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("project analysis_end: %w", err)
	}

	source := &memorySource{
		settings: &models.ProjectSettings{
			ProjectID:         uuid.New(),
			Name:              sc.Project.Name,
			AnalysisStartDate: *start,
			AnalysisEndDate:   *end,
			PeriodType:        models.PeriodType(sc.Project.PeriodType),
			DiscountRate:      sc.Project.DiscountRate,
		},
	}

	catByName := make(map[string]models.Category)
	for _, c := range sc.Categories {
		cat := models.Category{ID: uuid.New(), Name: c.Name, Kind: models.CategoryKind(c.Kind)}
		catByName[c.Name] = cat
		source.categories = append(source.categories, cat)
	}

	for _, li := range sc.LineItems {
		amount, err := finiteDecimal(li.Amount, "amount")
		if err != nil {
			return nil, nil, fmt.Errorf("line item %q: %w", li.Name, err)
		}
		quantity, _ := finiteDecimal(li.Quantity, "quantity")
		rate, _ := finiteDecimal(li.Rate, "rate")
		cat, ok := catByName[li.Category]
		if !ok {
			return nil, nil, fmt.Errorf("line item %q references unknown category %q", li.Name, li.Category)
		}
		earlyStart, _ := parseDate(li.EarlyStart)
		earlyFinish, _ := parseDate(li.EarlyFinish)
		source.items = append(source.items, models.LineItemRecord{
			ID:           uuid.New(),
			Name:         li.Name,
			Amount:       amount,
			Quantity:     quantity,
			Rate:         rate,
			StartPeriod:  li.StartPeriod,
			Duration:     li.Duration,
			CurveProfile: models.CurveProfile(li.CurveProfile),
			Steepness:    li.Steepness,
			CategoryID:   cat.ID,
			IsCritical:   li.IsCritical,
			EarlyStart:   earlyStart,
			EarlyFinish:  earlyFinish,
			FloatDays:    li.FloatDays,
		})
	}

	for _, ms := range sc.Milestones {
		early, _ := parseDate(ms.EarlyDate)
		late, _ := parseDate(ms.LateDate)
		status := models.MilestoneStatus(ms.Status)
		if status == "" {
			status = models.StatusNotStarted
		}
		source.milestones = append(source.milestones, models.MilestoneRecord{
			ID:         uuid.New(),
			Name:       ms.Name,
			EarlyDate:  early,
			LateDate:   late,
			FloatDays:  ms.FloatDays,
			IsCritical: ms.IsCritical,
			Status:     status,
		})
	}

	return source, sc.Project.DiscountRate, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	d := models.DateOnly(t)
	return &d, nil
}

// finiteDecimal guards the float-to-decimal boundary: NaN and infinities are
// rejected before they can enter the computation core.
func finiteDecimal(f float64, field string) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, &models.InvalidParameterError{Field: field, Reason: "must be a finite number"}
	}
	return decimal.NewFromFloat(f), nil
}

func printCashFlow(cf *cashflow.CashFlow) {
	labels := format.NewLabelCache()

	fmt.Println("\n=== CASH FLOW ===")
	header := make([]string, 0, len(cf.Periods)+1)
	header = append(header, pad("Section", 24))
	for _, p := range cf.Periods {
		header = append(header, pad(labels.Label(p), 12))
	}
	fmt.Println(strings.Join(header, " "))

	for _, section := range cf.Sections {
		row := []string{pad(section.Name+" ("+string(section.Kind)+")", 24)}
		for _, amt := range section.PeriodTotals {
			row = append(row, pad(amt.StringFixed(2), 12))
		}
		fmt.Println(strings.Join(row, " "))
	}
	netRow := []string{pad("Net", 24)}
	for _, n := range cf.NetByPeriod {
		netRow = append(netRow, pad(n.StringFixed(2), 12))
	}
	fmt.Println(strings.Join(netRow, " "))

	fmt.Println("\n=== SUMMARY ===")
	fmt.Printf("Periods:      %d (%s .. %s)\n", cf.TotalPeriods,
		cf.StartDate.Format("2006-01-02"), cf.EndDate.Format("2006-01-02"))
	fmt.Printf("Total inflow: %s\n", cf.Summary.TotalInflow.StringFixed(2))
	fmt.Printf("Total outflow: %s\n", cf.Summary.TotalOutflow.StringFixed(2))
	fmt.Printf("Net cash flow: %s\n", cf.Summary.NetCashFlow.StringFixed(2))
	if cf.Summary.NPV != nil {
		fmt.Printf("NPV:          %s\n", cf.Summary.NPV.StringFixed(2))
	}
	if cf.Summary.IRR != nil {
		fmt.Printf("IRR:          %.2f%%\n", *cf.Summary.IRR*100)
	} else {
		fmt.Println("IRR:          n/a (no sign change in flows)")
	}
}

func printCriticalPath(report *schedule.CriticalPathReport) {
	fmt.Println("\n=== CRITICAL PATH ===")
	if len(report.Items) == 0 {
		fmt.Println("No critical entities.")
		return
	}
	for _, item := range report.Items {
		start := "-"
		if item.EarlyStart != nil {
			start = item.EarlyStart.Format("2006-01-02")
		}
		fmt.Printf("%-10s %-28s start=%s duration=%dd float=%dd\n",
			item.Type, item.Name, start, item.DurationDays, item.FloatDays)
	}
	fmt.Printf("Path length: %d days\n", report.CriticalPathLength)
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}
