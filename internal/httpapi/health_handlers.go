package httpapi

import (
	"net/http"

	"jobboard-engine/internal/events"
	"jobboard-engine/internal/tracker"
)

type HealthHandler struct {
	Tracker *tracker.Store
	Hub     *events.Hub
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{"ok": true}
	if h.Tracker != nil {
		out["jobs"] = h.Tracker.Len()
		out["version"] = h.Tracker.Version()
		if err := h.Tracker.Check(); err != nil {
			out["ok"] = false
			out["error"] = err.Error()
		}
	}
	if h.Hub != nil {
		out["subscribers"] = h.Hub.Subscribers()
		out["dropped_events"] = h.Hub.Dropped()
	}
	writeJSON(w, out)
}
