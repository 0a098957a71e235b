package cashflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	core "proforma_engine/pkg/core/cashflow"
	"proforma_engine/pkg/core/format"
	"proforma_engine/pkg/models"
)

// Handler serves cash flow generation over HTTP. It owns no computation:
// requests are decoded, handed to the engine, and the result encoded back.
type Handler struct {
	engine *core.Engine
	labels *format.LabelCache
}

// NewHandler wires a handler to a data source.
func NewHandler(source core.DataSource) *Handler {
	return &Handler{
		engine: core.NewEngine(source),
		labels: format.NewLabelCache(),
	}
}

// GenerateResponse decorates the engine result with display labels for the
// period axis.
type GenerateResponse struct {
	*core.CashFlow
	PeriodLabels []string `json:"period_labels"`
}

// HandleGenerate handles POST /api/cashflow/generate.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var opts core.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fmt.Printf("[CASHFLOW] Generate request: project=%s period_type=%s financing=%v\n",
		opts.ProjectID, opts.PeriodType, opts.IncludeFinancing)

	result, err := h.engine.GenerateCashFlow(r.Context(), opts)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	labels := make([]string, len(result.Periods))
	for i, p := range result.Periods {
		labels[i] = h.labels.Label(p)
	}
	fmt.Printf("[CASHFLOW] Generated %d periods, %d sections for %s\n",
		result.TotalPeriods, len(result.Sections), opts.ProjectID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GenerateResponse{CashFlow: result, PeriodLabels: labels})
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
// Parameter messages go to the client verbatim; they name the field.
func writeEngineError(w http.ResponseWriter, err error) {
	var notFound *models.ProjectNotFoundError
	if errors.As(err, &notFound) {
		http.Error(w, notFound.Error(), http.StatusNotFound)
		return
	}
	var paramErr *models.InvalidParameterError
	if errors.As(err, &paramErr) {
		http.Error(w, paramErr.Error(), http.StatusBadRequest)
		return
	}
	var rangeErr *models.InvalidRangeError
	if errors.As(err, &rangeErr) {
		http.Error(w, rangeErr.Error(), http.StatusBadRequest)
		return
	}
	fmt.Printf("[ERROR] Cash flow generation failed: %v\n", err)
	http.Error(w, "cash flow generation failed", http.StatusInternalServerError)
}
