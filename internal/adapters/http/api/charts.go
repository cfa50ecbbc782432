package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Chart size bounds accepted from query parameters.
const (
	MinChartSize = 200
	MaxChartSize = 2400
)

// ChartDependencies defines the chart render.
type ChartDependencies interface {
	ChartPNG(ctx context.Context, class, roll, subject string, width, height int) ([]byte, error)
}

// ChartHandler serves rendered progress charts.
type ChartHandler struct {
	deps ChartDependencies
}

// NewChartHandler creates a new chart handler.
func NewChartHandler(deps ChartDependencies) *ChartHandler {
	return &ChartHandler{deps: deps}
}

// HandleChart handles GET /charts/{class}/{roll}/{subject}.png?w=&h= requests.
func (h *ChartHandler) HandleChart(w http.ResponseWriter, r *http.Request) {
	subject, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok || subject == "" {
		writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
		return
	}
	width, err := sizeParam(r, "w")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	height, err := sizeParam(r, "h")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	data, err := h.deps.ChartPNG(r.Context(), r.PathValue("class"), r.PathValue("roll"), subject, width, height)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// sizeParam reads an optional pixel size, clamped to the accepted bounds.
// A missing parameter yields 0 so the configured default applies.
func sizeParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return min(max(v, MinChartSize), MaxChartSize), nil
}
