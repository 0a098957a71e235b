package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"proforma_engine/pkg/core/cashflow"
	"proforma_engine/pkg/models"
)

// ProjectRepo loads project financial and schedule records. It implements
// cashflow.DataSource; the engine consumes the returned records and never
// writes back.
//
// Schema assumption (managed by migrations elsewhere):
//
//	CREATE TABLE projects (
//	  id UUID PRIMARY KEY,
//	  name TEXT NOT NULL,
//	  analysis_start DATE NOT NULL,
//	  analysis_end DATE NOT NULL,
//	  period_type TEXT NOT NULL,
//	  discount_rate DOUBLE PRECISION
//	);
//	CREATE TABLE categories (
//	  id UUID PRIMARY KEY,
//	  project_id UUID REFERENCES projects(id),
//	  name TEXT NOT NULL,
//	  kind TEXT NOT NULL  -- revenue | cost | financing
//	);
//	CREATE TABLE line_items (
//	  id UUID PRIMARY KEY,
//	  project_id UUID REFERENCES projects(id),
//	  container TEXT,
//	  scenario_id UUID,
//	  name TEXT NOT NULL,
//	  amount NUMERIC(18,2) NOT NULL,
//	  quantity NUMERIC(18,4),
//	  rate NUMERIC(18,4),
//	  start_period INT NOT NULL,
//	  duration INT NOT NULL,
//	  curve_profile TEXT NOT NULL,
//	  steepness INT NOT NULL,
//	  category_id UUID REFERENCES categories(id),
//	  is_critical BOOLEAN NOT NULL DEFAULT FALSE,
//	  early_start DATE, early_finish DATE,
//	  late_start DATE, late_finish DATE,
//	  float_days INT NOT NULL DEFAULT 0
//	);
//	CREATE TABLE milestones (
//	  id UUID PRIMARY KEY,
//	  project_id UUID REFERENCES projects(id),
//	  name TEXT NOT NULL,
//	  early_date DATE, late_date DATE,
//	  float_days INT NOT NULL DEFAULT 0,
//	  is_critical BOOLEAN NOT NULL DEFAULT FALSE,
//	  status TEXT NOT NULL DEFAULT 'not_started'
//	);
type ProjectRepo struct {
	db *DB
}

// NewProjectRepo creates a repository over an initialized DB handle.
func NewProjectRepo(db *DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// ProjectSettings loads the analysis window and defaults for a project.
func (r *ProjectRepo) ProjectSettings(ctx context.Context, projectID uuid.UUID) (*models.ProjectSettings, error) {
	query := `
		SELECT id, name, analysis_start, analysis_end, period_type, discount_rate
		FROM projects WHERE id = $1`

	var s models.ProjectSettings
	var periodType string
	err := r.db.Pool().QueryRow(ctx, query, projectID).Scan(
		&s.ProjectID, &s.Name, &s.AnalysisStartDate, &s.AnalysisEndDate, &periodType, &s.DiscountRate,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &models.ProjectNotFoundError{ProjectID: projectID.String()}
		}
		return nil, fmt.Errorf("failed to load project settings: %w", err)
	}
	s.PeriodType = models.PeriodType(periodType)
	return &s, nil
}

// Categories loads the section categories of a project.
func (r *ProjectRepo) Categories(ctx context.Context, projectID uuid.UUID) ([]models.Category, error) {
	query := `SELECT id, name, kind FROM categories WHERE project_id = $1 ORDER BY name`

	rows, err := r.db.Pool().Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		var kind string
		if err := rows.Scan(&c.ID, &c.Name, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.Kind = models.CategoryKind(kind)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// LineItems loads budget/actual facts for a scope. Financing items are
// filtered out at the query level when the scope excludes them; container
// and scenario filters narrow further when set.
func (r *ProjectRepo) LineItems(ctx context.Context, scope cashflow.Scope) ([]models.LineItemRecord, error) {
	query := `
		SELECT li.id, li.name, li.amount, COALESCE(li.quantity, 0), COALESCE(li.rate, 0),
		       li.start_period, li.duration, li.curve_profile, li.steepness,
		       li.category_id, li.is_critical,
		       li.early_start, li.early_finish, li.late_start, li.late_finish,
		       li.float_days
		FROM line_items li
		JOIN categories c ON c.id = li.category_id
		WHERE li.project_id = $1
		  AND ($2 OR c.kind <> 'financing')
		  AND ($3 = '' OR li.container = $3)
		  AND ($4::uuid IS NULL OR li.scenario_id = $4)
		ORDER BY li.start_period, li.name`

	var scenario interface{}
	if scope.ScenarioID != nil {
		scenario = *scope.ScenarioID
	}
	rows, err := r.db.Pool().Query(ctx, query, scope.ProjectID, scope.IncludeFinancing, scope.ContainerFilter, scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}
	defer rows.Close()

	var items []models.LineItemRecord
	for rows.Next() {
		var li models.LineItemRecord
		var profile string
		var amount, quantity, rate decimal.Decimal
		var earlyStart, earlyFinish, lateStart, lateFinish *time.Time
		if err := rows.Scan(
			&li.ID, &li.Name, &amount, &quantity, &rate,
			&li.StartPeriod, &li.Duration, &profile, &li.Steepness,
			&li.CategoryID, &li.IsCritical,
			&earlyStart, &earlyFinish, &lateStart, &lateFinish,
			&li.FloatDays,
		); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		li.Amount = amount
		li.Quantity = quantity
		li.Rate = rate
		li.CurveProfile = models.CurveProfile(profile)
		li.EarlyStart = normalizeDate(earlyStart)
		li.EarlyFinish = normalizeDate(earlyFinish)
		li.LateStart = normalizeDate(lateStart)
		li.LateFinish = normalizeDate(lateFinish)
		items = append(items, li)
	}
	return items, rows.Err()
}

// Milestones loads the milestones of a project.
func (r *ProjectRepo) Milestones(ctx context.Context, projectID uuid.UUID) ([]models.MilestoneRecord, error) {
	query := `
		SELECT id, name, early_date, late_date, float_days, is_critical, status
		FROM milestones WHERE project_id = $1 ORDER BY early_date NULLS LAST, name`

	rows, err := r.db.Pool().Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load milestones: %w", err)
	}
	defer rows.Close()

	var milestones []models.MilestoneRecord
	for rows.Next() {
		var ms models.MilestoneRecord
		var status string
		var early, late *time.Time
		if err := rows.Scan(&ms.ID, &ms.Name, &early, &late, &ms.FloatDays, &ms.IsCritical, &status); err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		ms.EarlyDate = normalizeDate(early)
		ms.LateDate = normalizeDate(late)
		ms.Status = models.MilestoneStatus(status)
		milestones = append(milestones, ms)
	}
	return milestones, rows.Err()
}

// normalizeDate truncates a nullable timestamp to a UTC calendar date.
func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := models.DateOnly(*t)
	return &d
}
