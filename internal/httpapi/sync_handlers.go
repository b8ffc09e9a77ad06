package httpapi

import (
	"net/http"

	"jobboard-engine/internal/poll"
)

type SyncHandler struct {
	Syncer    *poll.Syncer
	Snapshots *poll.SnapshotWriter
}

func (h SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Syncer.Status())
}

// Run refetches now. A sync already in flight is reported, not joined.
func (h SyncHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Syncer.Status().Running {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}
	if err := h.Syncer.SyncOnce(r.Context()); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "status": h.Syncer.Status()})
}

func (h SyncHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if h.Snapshots == nil {
		WriteError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "snapshot store disabled")
		return
	}
	wrote, err := h.Snapshots.SaveOnce(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "written": wrote})
}
