package api

import (
	"context"
	"net/http"
)

// RefreshDependencies defines the background reload trigger.
type RefreshDependencies interface {
	RequestRefresh(ctx context.Context, class string) error
}

// RefreshHandler queues sheet reloads.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

type ackResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// HandleRefresh handles POST /api/refresh/{class} requests.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.RequestRefresh(r.Context(), r.PathValue("class")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Success: true, Status: "queued"})
}
