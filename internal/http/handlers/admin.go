package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/y0lz/backend-json/internal/domain"
	"github.com/y0lz/backend-json/internal/logx"
)

// AdminHandler serves storage administration: policy, migration, reset and reporting.
type AdminHandler struct {
	storage      storageAdmin
	sync         peopleSyncer
	reset        shiftResetter
	availability availabilityQuery
	logger       logx.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	logger logx.Logger,
	st storageAdmin,
	sync peopleSyncer,
	reset shiftResetter,
	availability availabilityQuery,
) *AdminHandler {
	return &AdminHandler{storage: st, sync: sync, reset: reset, availability: availability, logger: logger}
}

// StorageInfo handles GET /api/storage.
func (h *AdminHandler) StorageInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.logger, w, r, http.StatusOK, h.storage.Info(r.Context()))
}

// SwitchPrimary handles POST /api/storage/primary.
func (h *AdminHandler) SwitchPrimary(w http.ResponseWriter, r *http.Request) {
	var req switchPrimaryRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if err := h.storage.SwitchPrimary(r.Context(), req.Policy); err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, h.storage.Info(r.Context()))
}

// SyncPeople handles POST /api/sync/people.
func (h *AdminHandler) SyncPeople(w http.ResponseWriter, r *http.Request) {
	var req syncPeopleRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	sum, err := h.sync.SyncAllPeople(r.Context(), req.Direction)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, sum)
}

// ResetShifts handles POST /api/shifts/reset.
func (h *AdminHandler) ResetShifts(w http.ResponseWriter, r *http.Request) {
	n, err := h.reset.Run(r.Context())
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, map[string]int{"removed": n})
}

// Stats handles GET /api/stats?date=YYYY-MM-DD.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date != "" && !domain.ValidDate(date) {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid date")
		return
	}
	st, err := h.storage.View().Stats(r.Context(), date)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, st)
}

// Available handles GET /api/availability/{role}?date=&branchId=.
func (h *AdminHandler) Available(w http.ResponseWriter, r *http.Request) {
	role := domain.Role(chi.URLParam(r, "role"))
	q := r.URL.Query()
	list, err := h.availability.Available(r.Context(), role, q.Get("date"), q.Get("branchId"))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, list)
}

// Settings handles GET /api/settings.
func (h *AdminHandler) Settings(w http.ResponseWriter, r *http.Request) {
	s, err := h.storage.View().GetSettings(r.Context())
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, s)
}

// UpdateSettings handles PATCH /api/settings; the body is merged into the stored document.
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var changes domain.Settings
	if ok := decodeJSON(h.logger, w, r, &changes); !ok {
		return
	}
	s, err := h.storage.View().UpdateSettings(r.Context(), changes)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, s)
}
