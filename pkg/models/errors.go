package models

import (
	"fmt"
	"time"
)

// InvalidRangeError reports a malformed date window (start after end).
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: start %s is after end %s",
		e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

// InvalidParameterError reports an out-of-domain input. Field names the
// offending parameter so the message can be surfaced to end users as-is.
type InvalidParameterError struct {
	Field  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Reason)
}

// ProjectNotFoundError reports an unresolvable project or analysis window.
// Callers treat it as a 404-equivalent condition.
type ProjectNotFoundError struct {
	ProjectID string
}

func (e *ProjectNotFoundError) Error() string {
	return fmt.Sprintf("project not found: %s", e.ProjectID)
}
