package handlers

import (
	"net/http"

	"github.com/y0lz/backend-json/internal/logx"
)

// Handlers serves the liveness endpoints and the JSON 404.
type Handlers struct {
	Logger  logx.Logger
	storage storageAdmin
}

// New creates Handlers. st may be nil, then /ping omits the policy.
func New(logger logx.Logger, st storageAdmin) *Handlers {
	return &Handlers{Logger: logger, storage: st}
}

type pingResponse struct {
	Message string `json:"message"`
	Policy  string `json:"policy,omitempty"`
}

// Ping answers GET /ping with "pong" and the active storage policy.
// It never touches a backend, readiness lives under /api/storage.
func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	resp := pingResponse{Message: "pong"}
	if h.storage != nil {
		resp.Policy = string(h.storage.Policy())
	}
	writeJSON(h.Logger, w, r, http.StatusOK, resp)
}

// HealthcheckHead handles HEAD /healthcheck.
func (h *Handlers) HealthcheckHead(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// NotFound returns a JSON 404 for unknown routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(h.Logger, w, r, http.StatusNotFound, "route not found")
}
