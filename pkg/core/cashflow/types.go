package cashflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"proforma_engine/pkg/models"
)

// Options parameterizes one cash flow generation.
type Options struct {
	ProjectID        uuid.UUID         `json:"project_id"`
	PeriodType       models.PeriodType `json:"period_type,omitempty"` // empty: use project settings
	IncludeFinancing bool              `json:"include_financing"`
	DiscountRate     *float64          `json:"discount_rate,omitempty"`
	StartPeriod      int               `json:"start_period,omitempty"` // 0: full window
	EndPeriod        int               `json:"end_period,omitempty"`   // 0: full window
	ContainerFilter  string            `json:"container_filter,omitempty"`
	ScenarioID       *uuid.UUID        `json:"scenario_id,omitempty"`
}

// Scope narrows a line item load to a project, container and scenario.
type Scope struct {
	ProjectID        uuid.UUID
	ContainerFilter  string
	ScenarioID       *uuid.UUID
	IncludeFinancing bool
}

// DataSource is the external data collaborator. The engine never persists or
// caches anything itself; it consumes already-fetched records and stays a
// pure function of them.
type DataSource interface {
	ProjectSettings(ctx context.Context, projectID uuid.UUID) (*models.ProjectSettings, error)
	Categories(ctx context.Context, projectID uuid.UUID) ([]models.Category, error)
	LineItems(ctx context.Context, scope Scope) ([]models.LineItemRecord, error)
	Milestones(ctx context.Context, projectID uuid.UUID) ([]models.MilestoneRecord, error)
}

// Section groups line items sharing a category, with one running total per
// period of the grid. PeriodTotals[i] belongs to Periods[i] of the owning
// CashFlow.
type Section struct {
	Name         string                  `json:"name"`
	Kind         models.CategoryKind     `json:"kind"`
	LineItems    []models.LineItemRecord `json:"line_items"`
	PeriodTotals []decimal.Decimal       `json:"period_totals"`
}

// Summary carries the aggregate return metrics. NPV and IRR are nil when not
// computable (no discount rate supplied, or no sign change in the flows) —
// an un-IRR-able project is a legitimate state, not an error.
type Summary struct {
	TotalInflow  decimal.Decimal  `json:"total_inflow"`
	TotalOutflow decimal.Decimal  `json:"total_outflow"`
	NetCashFlow  decimal.Decimal  `json:"net_cash_flow"`
	NPV          *decimal.Decimal `json:"npv,omitempty"`
	IRR          *float64         `json:"irr,omitempty"`
	PeriodCount  int              `json:"period_count"`
}

// CashFlow is the full result of a generation: the period axis, per-section
// spreads, net series and summary. Every field is an immutable snapshot.
type CashFlow struct {
	ProjectID    uuid.UUID         `json:"project_id"`
	GeneratedAt  time.Time         `json:"generated_at"`
	Periods      []models.Period   `json:"periods"`
	Sections     []Section         `json:"sections"`
	NetByPeriod  []decimal.Decimal `json:"net_by_period"`
	Summary      Summary           `json:"summary"`
	TotalPeriods int               `json:"total_periods"`
	StartDate    time.Time         `json:"start_date"`
	EndDate      time.Time         `json:"end_date"`
}
