package format

import (
	"fmt"
	"sync"

	"proforma_engine/pkg/models"
)

// LabelCache memoizes display labels for periods. It replaces the old
// process-wide format cache with an explicit handle: callers construct one,
// pass it where labels are rendered, and call Invalidate when display
// settings change. Safe for concurrent use, so one cache may serve every
// request goroutine of a handler.
type LabelCache struct {
	mu     sync.RWMutex
	labels map[string]string
}

// NewLabelCache creates an empty cache.
func NewLabelCache() *LabelCache {
	return &LabelCache{labels: make(map[string]string)}
}

// Label renders a human-readable label for a period: "Jan 2025" for months,
// "Q1 2025" for quarters, "2025" for years.
func (c *LabelCache) Label(p models.Period) string {
	key := string(p.PeriodType) + p.StartDate.Format("2006-01-02")
	c.mu.RLock()
	label, ok := c.labels[key]
	c.mu.RUnlock()
	if ok {
		return label
	}

	switch p.PeriodType {
	case models.PeriodMonth:
		label = p.StartDate.Format("Jan 2006")
	case models.PeriodQuarter:
		quarter := (int(p.StartDate.Month())-1)/3 + 1
		label = fmt.Sprintf("Q%d %d", quarter, p.StartDate.Year())
	default:
		label = p.StartDate.Format("2006")
	}

	c.mu.Lock()
	c.labels[key] = label
	c.mu.Unlock()
	return label
}

// Invalidate drops every cached label. Call after display settings change.
func (c *LabelCache) Invalidate() {
	c.mu.Lock()
	c.labels = make(map[string]string)
	c.mu.Unlock()
}

// Size reports the number of cached labels.
func (c *LabelCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.labels)
}
