package schedule

import (
	"time"

	"github.com/google/uuid"
)

// EntityType distinguishes the two schedulable record kinds in a report row.
type EntityType string

const (
	EntityBudget    EntityType = "budget"
	EntityMilestone EntityType = "milestone"
)

// PathItem is one row of a critical path report, normalized from either a
// budget item or a milestone.
type PathItem struct {
	Type         EntityType `json:"type"`
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	EarlyStart   *time.Time `json:"early_start,omitempty"`
	EarlyFinish  *time.Time `json:"early_finish,omitempty"`
	DurationDays int        `json:"duration_days"`
	FloatDays    int        `json:"float_days"`
}

// CriticalPathReport is the ordered schedule-health view of a project.
//
// CriticalPathLength is the sum of included entity durations. With no
// dependency edges available this equals the true path length only when the
// critical items form a single chain.
type CriticalPathReport struct {
	ProjectID          uuid.UUID  `json:"project_id"`
	Items              []PathItem `json:"items"`
	CriticalPathLength int        `json:"critical_path_length"`
	ProjectStart       time.Time  `json:"project_start"`
	ProjectEnd         time.Time  `json:"project_end"`
}
