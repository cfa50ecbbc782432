package api

import (
	"context"
	"net/http"

	"github.com/okian/reportcard/internal/domain/report"
)

// ClassesDependencies defines the roster reads.
type ClassesDependencies interface {
	Classes(ctx context.Context) []string
	Students(ctx context.Context, class string) ([]report.Student, error)
}

// ClassesHandler serves class and student listings.
type ClassesHandler struct {
	deps ClassesDependencies
}

// NewClassesHandler creates a new classes handler.
func NewClassesHandler(deps ClassesDependencies) *ClassesHandler {
	return &ClassesHandler{deps: deps}
}

type classesResponse struct {
	Success bool     `json:"success"`
	Classes []string `json:"classes"`
}

type studentsResponse struct {
	Success  bool             `json:"success"`
	Students []report.Student `json:"students"`
}

// HandleClasses handles GET /api/classes requests.
func (h *ClassesHandler) HandleClasses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, classesResponse{Success: true, Classes: h.deps.Classes(r.Context())})
}

// HandleStudents handles GET /api/students/{class} requests.
func (h *ClassesHandler) HandleStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.deps.Students(r.Context(), r.PathValue("class"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, studentsResponse{Success: true, Students: students})
}
