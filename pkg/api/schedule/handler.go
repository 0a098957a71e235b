package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	core "proforma_engine/pkg/core/cashflow"
	"proforma_engine/pkg/core/schedule"
	"proforma_engine/pkg/models"
)

// Handler serves critical path reports over HTTP.
type Handler struct {
	source core.DataSource
}

// NewHandler wires a handler to a data source.
func NewHandler(source core.DataSource) *Handler {
	return &Handler{source: source}
}

type criticalPathRequest struct {
	ProjectID uuid.UUID `json:"project_id"`
}

// HandleCriticalPath handles POST /api/schedule/critical-path.
func (h *Handler) HandleCriticalPath(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req criticalPathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fmt.Printf("[SCHEDULE] Critical path request: project=%s\n", req.ProjectID)

	ctx := r.Context()
	settings, err := h.source.ProjectSettings(ctx, req.ProjectID)
	if err != nil || settings == nil {
		http.Error(w, fmt.Sprintf("project not found: %s", req.ProjectID), http.StatusNotFound)
		return
	}

	// The scheduler consumes the same line item records as the cash flow
	// engine; no separate load path exists.
	items, err := h.source.LineItems(ctx, core.Scope{ProjectID: req.ProjectID, IncludeFinancing: true})
	if err != nil {
		writeLoadError(w, err)
		return
	}
	milestones, err := h.source.Milestones(ctx, req.ProjectID)
	if err != nil {
		writeLoadError(w, err)
		return
	}

	report := schedule.ComputeCriticalPath(settings, items, milestones)
	fmt.Printf("[SCHEDULE] %d critical entities, path length %d days\n",
		len(report.Items), report.CriticalPathLength)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func writeLoadError(w http.ResponseWriter, err error) {
	var notFound *models.ProjectNotFoundError
	if errors.As(err, &notFound) {
		http.Error(w, notFound.Error(), http.StatusNotFound)
		return
	}
	fmt.Printf("[ERROR] Schedule data load failed: %v\n", err)
	http.Error(w, "schedule data load failed", http.StatusInternalServerError)
}
