package api

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/reportcard/internal/domain/report"
	"github.com/okian/reportcard/pkg/logger"
)

// ReportDependencies defines the report read.
type ReportDependencies interface {
	Report(ctx context.Context, class, roll string) (*report.Report, error)
	ChartSize() (int, int)
}

// ReportHandler serves student reports as JSON and as an HTML page.
type ReportHandler struct {
	deps   ReportDependencies
	pages  *template.Template
	logger logger.Logger
	now    func() time.Time
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies, l logger.Logger) *ReportHandler {
	return &ReportHandler{
		deps:   deps,
		pages:  pageTemplates,
		logger: l,
		now:    time.Now,
	}
}

type reportResponse struct {
	Success bool           `json:"success"`
	Student *report.Report `json:"student"`
}

// HandleReportJSON handles GET /api/student-report/{class}/{roll} requests.
func (h *ReportHandler) HandleReportJSON(w http.ResponseWriter, r *http.Request) {
	rep, err := h.deps.Report(r.Context(), r.PathValue("class"), r.PathValue("roll"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{Success: true, Student: rep})
}

type subjectView struct {
	Name     string
	ChartURL string
	report.SubjectReport
}

type reportPage struct {
	Report      *report.Report
	Subjects    []subjectView
	GeneratedAt time.Time
	ChartWidth  int
	ChartHeight int
}

type errorPage struct {
	Message string
}

// HandleReportPage handles GET /report/{class}/{roll} requests.
func (h *ReportHandler) HandleReportPage(w http.ResponseWriter, r *http.Request) {
	class, roll := r.PathValue("class"), r.PathValue("roll")
	rep, err := h.deps.Report(r.Context(), class, roll)
	if err != nil {
		status, _ := classify(err)
		msg := "No data found for Roll Number " + roll + " in Class " + class
		if status != http.StatusNotFound {
			msg = "Error: " + err.Error()
		}
		h.render(r.Context(), w, status, "error.html", errorPage{Message: msg})
		return
	}

	width, height := h.deps.ChartSize()
	page := reportPage{
		Report:      rep,
		GeneratedAt: h.now(),
		ChartWidth:  width,
		ChartHeight: height,
	}
	for _, name := range rep.SubjectNames() {
		page.Subjects = append(page.Subjects, subjectView{
			Name:          name,
			ChartURL:      chartURL(class, roll, name),
			SubjectReport: rep.Subjects[name],
		})
	}
	h.render(r.Context(), w, http.StatusOK, "report.html", page)
}

func (h *ReportHandler) render(ctx context.Context, w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error(ctx, "template render failed", logger.String("template", name), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func chartURL(class, roll, subject string) string {
	return "/charts/" + url.PathEscape(class) + "/" + url.PathEscape(roll) + "/" + url.PathEscape(subject) + ".png"
}
