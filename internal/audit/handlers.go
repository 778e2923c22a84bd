package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/travel-backoffice/internal/common"
)

// Handler exposes the audit trail of a session.
type Handler struct {
	Service *Service
}

// List returns the newest entries for the session in the {id} URL parameter.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil || h.Service.Store == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "AUDIT_NOT_CONFIGURED", "audit store not configured", nil)
		return
	}
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	entries, err := h.Service.List(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_QUERY_FAILED", "unable to fetch audit entries", nil)
		return
	}
	common.Data(w, http.StatusOK, entries)
}
