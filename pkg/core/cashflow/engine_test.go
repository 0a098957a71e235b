package cashflow

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"proforma_engine/pkg/models"
)

// fakeSource is an in-memory DataSource standing in for the persistence
// layer the engine deliberately does not own.
type fakeSource struct {
	settings   *models.ProjectSettings
	categories []models.Category
	items      []models.LineItemRecord
	milestones []models.MilestoneRecord
}

func (f *fakeSource) ProjectSettings(_ context.Context, id uuid.UUID) (*models.ProjectSettings, error) {
	if f.settings == nil || f.settings.ProjectID != id {
		return nil, errors.New("no such project")
	}
	return f.settings, nil
}

func (f *fakeSource) Categories(_ context.Context, _ uuid.UUID) ([]models.Category, error) {
	return f.categories, nil
}

func (f *fakeSource) LineItems(_ context.Context, scope Scope) ([]models.LineItemRecord, error) {
	return f.items, nil
}

func (f *fakeSource) Milestones(_ context.Context, _ uuid.UUID) ([]models.MilestoneRecord, error) {
	return f.milestones, nil
}

var (
	salesCat    = models.Category{ID: uuid.New(), Name: "Unit Sales", Kind: models.KindRevenue}
	hardCostCat = models.Category{ID: uuid.New(), Name: "Hard Costs", Kind: models.KindCost}
	loanCat     = models.Category{ID: uuid.New(), Name: "Construction Loan", Kind: models.KindFinancing}
)

func item(cat models.Category, amount string, start, duration int) models.LineItemRecord {
	return models.LineItemRecord{
		ID:           uuid.New(),
		Amount:       decimal.RequireFromString(amount),
		StartPeriod:  start,
		Duration:     duration,
		CurveProfile: models.CurveLinear,
		CategoryID:   cat.ID,
	}
}

func newFake() *fakeSource {
	projectID := uuid.New()
	return &fakeSource{
		settings: &models.ProjectSettings{
			ProjectID:         projectID,
			Name:              "Harbor Point",
			AnalysisStartDate: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
			AnalysisEndDate:   time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
			PeriodType:        models.PeriodMonth,
		},
		categories: []models.Category{salesCat, hardCostCat, loanCat},
	}
}

func TestEndToEndNPVAndIRR(t *testing.T) {
	// Net flows by month: [-100, 50, 70].
	fake := newFake()
	fake.items = []models.LineItemRecord{
		item(hardCostCat, "100", 1, 1),
		item(salesCat, "50", 2, 1),
		item(salesCat, "70", 3, 1),
	}

	rate := 0.10
	engine := NewEngine(fake)
	cf, err := engine.GenerateCashFlow(context.Background(), Options{
		ProjectID:    fake.settings.ProjectID,
		DiscountRate: &rate,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cf.TotalPeriods != 3 {
		t.Fatalf("expected 3 monthly periods, got %d", cf.TotalPeriods)
	}
	wantNet := []string{"-100", "50", "70"}
	for i, want := range wantNet {
		if !cf.NetByPeriod[i].Equal(decimal.RequireFromString(want)) {
			t.Errorf("net[%d] = %s, want %s", i, cf.NetByPeriod[i], want)
		}
	}
	if !cf.Summary.TotalInflow.Equal(decimal.NewFromInt(120)) {
		t.Errorf("total inflow should be 120, got %s", cf.Summary.TotalInflow)
	}
	if !cf.Summary.TotalOutflow.Equal(decimal.NewFromInt(100)) {
		t.Errorf("total outflow should be 100, got %s", cf.Summary.TotalOutflow)
	}
	if !cf.Summary.NetCashFlow.Equal(decimal.NewFromInt(20)) {
		t.Errorf("net cash flow should be 20, got %s", cf.Summary.NetCashFlow)
	}
	if cf.Summary.NPV == nil {
		t.Fatal("NPV must be computed when a discount rate is supplied")
	}
	npv, _ := cf.Summary.NPV.Float64()
	if math.Abs(npv-2.3058) > 0.001 {
		t.Errorf("expected NPV ~2.31, got %f", npv)
	}
	if cf.Summary.IRR == nil {
		t.Fatal("IRR should solve for a sign-changing series")
	}
	if math.Abs(*cf.Summary.IRR-0.123) > 0.002 {
		t.Errorf("expected IRR ~12.3%%, got %f", *cf.Summary.IRR)
	}
}

func TestSectionGroupingAndOrder(t *testing.T) {
	fake := newFake()
	fake.items = []models.LineItemRecord{
		item(hardCostCat, "300", 1, 3),
		item(salesCat, "600", 1, 3),
		item(hardCostCat, "90", 2, 2),
	}

	cf, err := NewEngine(fake).GenerateCashFlow(context.Background(), Options{ProjectID: fake.settings.ProjectID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cf.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(cf.Sections))
	}
	// Revenue sections order before cost sections.
	if cf.Sections[0].Name != "Unit Sales" || cf.Sections[1].Name != "Hard Costs" {
		t.Errorf("section order wrong: %s, %s", cf.Sections[0].Name, cf.Sections[1].Name)
	}
	if len(cf.Sections[1].LineItems) != 2 {
		t.Errorf("both cost items should share the Hard Costs section")
	}
	// Hard Costs month 2: 100 (from 300/3) + 45 (from 90/2) = 145.
	if !cf.Sections[1].PeriodTotals[1].Equal(decimal.NewFromInt(145)) {
		t.Errorf("hard cost month 2 should be 145, got %s", cf.Sections[1].PeriodTotals[1])
	}
	// Conservation across the window: 300 + 90 in total.
	total := decimal.Zero
	for _, amt := range cf.Sections[1].PeriodTotals {
		total = total.Add(amt)
	}
	if !total.Equal(decimal.NewFromInt(390)) {
		t.Errorf("section totals must conserve item amounts, got %s", total)
	}
}

func TestFinancingToggle(t *testing.T) {
	fake := newFake()
	fake.items = []models.LineItemRecord{
		item(loanCat, "500", 1, 1),
		item(hardCostCat, "200", 1, 1),
	}

	engine := NewEngine(fake)
	without, err := engine.GenerateCashFlow(context.Background(), Options{ProjectID: fake.settings.ProjectID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(without.Sections) != 1 {
		t.Errorf("financing excluded by default, expected 1 section, got %d", len(without.Sections))
	}

	with, err := engine.GenerateCashFlow(context.Background(), Options{ProjectID: fake.settings.ProjectID, IncludeFinancing: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(with.Sections) != 2 {
		t.Fatalf("expected financing section when included, got %d sections", len(with.Sections))
	}
	// Loan draw of 500 against 200 of cost: net month 1 is +300.
	if !with.NetByPeriod[0].Equal(decimal.NewFromInt(300)) {
		t.Errorf("financing draws add to net, expected 300, got %s", with.NetByPeriod[0])
	}
	// Financing never counts as operating inflow.
	if !with.Summary.TotalInflow.Equal(decimal.Zero) {
		t.Errorf("financing must not inflate total inflow, got %s", with.Summary.TotalInflow)
	}
}

func TestWindowOverride(t *testing.T) {
	fake := newFake()
	fake.items = []models.LineItemRecord{
		item(salesCat, "300", 1, 3),
	}

	cf, err := NewEngine(fake).GenerateCashFlow(context.Background(), Options{
		ProjectID:   fake.settings.ProjectID,
		StartPeriod: 2,
		EndPeriod:   3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cf.TotalPeriods != 2 {
		t.Fatalf("override window should span 2 periods, got %d", cf.TotalPeriods)
	}
	if cf.Periods[0].Sequence != 2 {
		t.Errorf("window must keep grid sequences, first is %d", cf.Periods[0].Sequence)
	}
	// Month 1's 100 falls outside the window; months 2 and 3 remain.
	if !cf.Summary.TotalInflow.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected 200 inside the window, got %s", cf.Summary.TotalInflow)
	}
}

func TestUnknownProject(t *testing.T) {
	fake := newFake()
	_, err := NewEngine(fake).GenerateCashFlow(context.Background(), Options{ProjectID: uuid.New()})
	var notFound *models.ProjectNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ProjectNotFoundError, got %v", err)
	}
}

func TestInvalidDiscountRate(t *testing.T) {
	fake := newFake()
	bad := math.NaN()
	_, err := NewEngine(fake).GenerateCashFlow(context.Background(), Options{
		ProjectID:    fake.settings.ProjectID,
		DiscountRate: &bad,
	})
	var paramErr *models.InvalidParameterError
	if !errors.As(err, &paramErr) || paramErr.Field != "discount_rate" {
		t.Fatalf("expected InvalidParameterError on discount_rate, got %v", err)
	}
}

func TestDiscountRateAtNegativeOneRejected(t *testing.T) {
	// A -100% rate would zero the discount factor and divide by zero in
	// NPV; it must be rejected at validation, before any computation.
	fake := newFake()
	fake.items = []models.LineItemRecord{item(salesCat, "100", 1, 2)}
	for _, rate := range []float64{-1.0, -1.5} {
		r := rate
		_, err := NewEngine(fake).GenerateCashFlow(context.Background(), Options{
			ProjectID:    fake.settings.ProjectID,
			DiscountRate: &r,
		})
		var paramErr *models.InvalidParameterError
		if !errors.As(err, &paramErr) || paramErr.Field != "discount_rate" {
			t.Fatalf("rate %v: expected InvalidParameterError on discount_rate, got %v", rate, err)
		}
	}
	// Deeply negative rates above -1 remain legal.
	r := -0.5
	if _, err := NewEngine(fake).GenerateCashFlow(context.Background(), Options{
		ProjectID:    fake.settings.ProjectID,
		DiscountRate: &r,
	}); err != nil {
		t.Fatalf("rate -0.5 should be accepted, got %v", err)
	}
}

func TestInvertedWindowOverride(t *testing.T) {
	fake := newFake()
	_, err := NewEngine(fake).GenerateCashFlow(context.Background(), Options{
		ProjectID:   fake.settings.ProjectID,
		StartPeriod: 3,
		EndPeriod:   1,
	})
	var paramErr *models.InvalidParameterError
	if !errors.As(err, &paramErr) || paramErr.Field != "end_period" {
		t.Fatalf("expected InvalidParameterError on end_period, got %v", err)
	}
}

func TestNoDiscountRateLeavesMetricsNil(t *testing.T) {
	fake := newFake()
	fake.items = []models.LineItemRecord{item(salesCat, "100", 1, 2)}
	cf, err := NewEngine(fake).GenerateCashFlow(context.Background(), Options{ProjectID: fake.settings.ProjectID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cf.Summary.NPV != nil || cf.Summary.IRR != nil {
		t.Errorf("NPV/IRR must stay nil without a discount rate")
	}
}
