// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/reportcard/internal/app"
	"github.com/okian/reportcard/internal/adapters/sheets"
	"github.com/okian/reportcard/internal/domain/report"
	"github.com/okian/reportcard/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Classes(ctx context.Context) []string
	Students(ctx context.Context, class string) ([]report.Student, error)
	Report(ctx context.Context, class, roll string) (*report.Report, error)

	// ChartPNG renders one subject chart; non-positive sizes use the default.
	ChartPNG(ctx context.Context, class, roll, subject string, width, height int) ([]byte, error)
	ChartSize() (int, int)

	// RequestRefresh queues a background reload of a class sheet.
	RequestRefresh(ctx context.Context, class string) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	classesHandler *ClassesHandler
	reportHandler  *ReportHandler
	chartHandler   *ChartHandler
	refreshHandler *RefreshHandler
	logger         logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, l logger.Logger) *Server {
	if l == nil {
		l = logger.Nop()
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		classesHandler: NewClassesHandler(deps),
		reportHandler:  NewReportHandler(deps, l),
		chartHandler:   NewChartHandler(deps),
		refreshHandler: NewRefreshHandler(deps),
		logger:         l,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /api/classes", MetricsMiddleware(s.classesHandler.HandleClasses, "classes"))
	mux.HandleFunc("GET /api/students/{class}", MetricsMiddleware(s.classesHandler.HandleStudents, "students"))
	mux.HandleFunc("GET /api/student-report/{class}/{roll}", MetricsMiddleware(s.reportHandler.HandleReportJSON, "student_report"))
	mux.HandleFunc("POST /api/refresh/{class}", MetricsMiddleware(s.refreshHandler.HandleRefresh, "refresh"))
	mux.HandleFunc("GET /report/{class}/{roll}", MetricsMiddleware(s.reportHandler.HandleReportPage, "report_page"))
	mux.HandleFunc("GET /charts/{class}/{roll}/{file}", MetricsMiddleware(s.chartHandler.HandleChart, "chart"))
}

// Handler returns mux wrapped with the request-id middleware.
func (s *Server) Handler(mux *http.ServeMux) http.Handler {
	return RequestIDMiddleware(mux, s.logger)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Success: false, Code: code, Message: msg})
}

// classify maps domain error kinds onto a status code and a stable code string.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, sheets.ErrUnknownClass),
		errors.Is(err, report.ErrStudentNotFound),
		errors.Is(err, report.ErrInsufficientData),
		errors.Is(err, service.ErrSubjectNotFound),
		errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, sheets.ErrUpstreamStatus), errors.Is(err, sheets.ErrParse):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, service.ErrRefreshRejected), errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
