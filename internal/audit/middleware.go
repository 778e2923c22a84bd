package audit

import (
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/travel-backoffice/internal/obs"
)

// HTTPRecorder records session edits after they have been handled. Reads
// and failed requests are not recorded.
type HTTPRecorder struct {
	Service *Service
	OnError func(error)
}

// Middleware wraps the session routes. The session id comes from the {id}
// URL parameter, or from the Location header when a session was just opened.
func (r HTTPRecorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.Service == nil || !r.Service.Enabled || req.Method == http.MethodGet || req.Method == http.MethodHead {
			next.ServeHTTP(w, req)
			return
		}

		recorder := obs.NewStatusRecorder(w)
		next.ServeHTTP(recorder, req)

		status := recorder.Status()
		if status >= http.StatusBadRequest {
			return
		}
		sessionID := chi.URLParam(req, "id")
		if sessionID == "" {
			if loc := strings.TrimSpace(w.Header().Get("Location")); loc != "" {
				sessionID = path.Base(loc)
			}
		}
		if sessionID == "" {
			return
		}
		if err := r.Service.Record(req.Context(), req, sessionID, "", status); err != nil && r.OnError != nil {
			r.OnError(err)
		}
	})
}
