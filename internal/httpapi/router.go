package httpapi

import (
	"net/http"
	"time"
)

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()
	staleDays := func() int { return d.config().Analytics.StaleDays }
	now := func() time.Time { return d.now() }

	hh := HealthHandler{Tracker: d.Tracker, Hub: d.Hub}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Board and jobs
	jh := JobsHandler{Tracker: d.Tracker, DB: d.DB, Now: now, StaleDays: staleDays}
	mux.HandleFunc("/board", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.Board,
	}))
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  jh.List,
		http.MethodPost: jh.Create,
	}))
	mux.HandleFunc("/jobs/", jh.ByPath) // /jobs/{id}, /jobs/{id}/move

	ih := ImportHandler{Importer: d.Importer, DB: d.DB}
	mux.HandleFunc("/jobs/import", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ih.Import,
	}))

	// Projections
	vh := ViewsHandler{Tracker: d.Tracker, Now: now, StaleDays: staleDays}
	mux.HandleFunc("/dashboard", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: vh.Dashboard,
	}))
	mux.HandleFunc("/timeline", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: vh.Timeline,
	}))

	// Sync
	sy := SyncHandler{Syncer: d.Syncer, Snapshots: d.Snapshots}
	mux.HandleFunc("/sync", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sy.Run,
	}))
	mux.HandleFunc("/sync/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sy.Status,
	}))
	mux.HandleFunc("/snapshot", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sy.Snapshot,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Session
	if d.Sessions != nil {
		sh := SessionHandler{Sessions: d.Sessions, Now: now}
		mux.HandleFunc("/api/session", methodMux(map[string]http.HandlerFunc{
			http.MethodGet:    sh.Get,
			http.MethodPost:   sh.Set,
			http.MethodDelete: sh.Delete,
		}))
	}

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}

// Handler wraps the mux in the standard middleware chain.
func Handler(mux http.Handler) http.Handler {
	return Chain(mux, RequestID, Recover, AccessLog, Cors)
}
