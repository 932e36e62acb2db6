package handlers

import (
	"net/http"

	"github.com/y0lz/backend-json/internal/logx"
)

// LifecycleHandler exposes the shift and assignment operations operators run by hand.
type LifecycleHandler struct {
	usecase lifecycleUsecase
	logger  logx.Logger
}

// NewLifecycleHandler creates a new LifecycleHandler.
func NewLifecycleHandler(logger logx.Logger, uc lifecycleUsecase) *LifecycleHandler {
	return &LifecycleHandler{usecase: uc, logger: logger}
}

// OpenShift handles POST /api/shifts.
func (h *LifecycleHandler) OpenShift(w http.ResponseWriter, r *http.Request) {
	var req openShiftRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	s, err := h.usecase.OpenShift(r.Context(), req.toInput())
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, s)
}

// CloseShift handles DELETE /api/shifts/{id}.
func (h *LifecycleHandler) CloseShift(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	n, err := h.usecase.CloseShift(r.Context(), id)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, countResponse{Removed: n})
}

// SyncShifts handles POST /api/shifts/sync-people.
func (h *LifecycleHandler) SyncShifts(w http.ResponseWriter, r *http.Request) {
	n, err := h.usecase.SyncShiftsWithPeople(r.Context())
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, countResponse{Updated: n})
}

// DeletePerson handles DELETE /api/people/{id}.
func (h *LifecycleHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.usecase.DeletePerson(r.Context(), id); err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateAssignment handles POST /api/assignments.
func (h *LifecycleHandler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	a, err := h.usecase.CreateAssignment(r.Context(), req.toModel())
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, a)
}

// CancelAssignment handles POST /api/assignments/{id}/cancel.
func (h *LifecycleHandler) CancelAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	a, err := h.usecase.CancelAssignment(r.Context(), id)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, a)
}

// CompleteAssignment handles POST /api/assignments/{id}/complete.
func (h *LifecycleHandler) CompleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	a, err := h.usecase.CompleteAssignment(r.Context(), id)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, a)
}

// RemoveAssignment handles DELETE /api/assignments/{id}.
func (h *LifecycleHandler) RemoveAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.usecase.RemoveAssignment(r.Context(), id); err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
