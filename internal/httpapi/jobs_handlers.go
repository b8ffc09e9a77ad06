package httpapi

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"jobboard-engine/internal/analytics"
	"jobboard-engine/internal/domain"
	"jobboard-engine/internal/store"
	"jobboard-engine/internal/tracker"
)

type JobsHandler struct {
	Tracker   *tracker.Store
	DB        *sql.DB
	Now       func() time.Time
	StaleDays func() int
}

func (h JobsHandler) Board(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, boardResp{Version: h.Tracker.Version(), Columns: h.Tracker.Board()})
}

// List is the table view: optional status filter, then sort.
func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stages := h.Tracker.Stages()
	status := q.Get("status")
	if status != "" && status != "all" && !stages.Has(domain.Stage(status)) {
		writeAPIError(w, r, http.StatusBadRequest, CodeValidation, "status", "unknown stage "+status)
		return
	}

	now := h.Now()
	jobs := analytics.FilterByStatus(h.Tracker.Jobs(), status)
	jobs, err := analytics.SortJobs(jobs, q.Get("sort"), q.Get("order"), stages, now)
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, CodeValidation, "sort", err.Error())
		return
	}

	stale := h.StaleDays()
	rows := make([]tableRow, 0, len(jobs))
	for _, j := range jobs {
		changed := j.StatusChangedAt
		days := analytics.DaysSince(j.DateApplied, now)
		rows = append(rows, tableRow{
			Job:              j,
			DaysApplied:      days,
			DaysAppliedLabel: analytics.DaysLabel(days),
			DaysInStage:      analytics.DaysSince(&changed, now),
			Stale:            analytics.IsStale(j, stages, now, stale),
		})
	}
	writeJSON(w, rows)
}

func (h JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.JobInput
	if err := decodeBody(r, &in); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	job, err := h.Tracker.AddJob(r.Context(), in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	h.rememberCompany(r.Context(), job)
	WriteJSON(w, http.StatusCreated, job)
}

// ByPath dispatches /jobs/{id} and /jobs/{id}/move.
func (h JobsHandler) ByPath(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/jobs/")
	switch {
	case len(parts) == 1:
		methodMux(map[string]http.HandlerFunc{
			http.MethodGet:    func(w http.ResponseWriter, r *http.Request) { h.get(w, r, parts[0]) },
			http.MethodPatch:  func(w http.ResponseWriter, r *http.Request) { h.patch(w, r, parts[0]) },
			http.MethodDelete: func(w http.ResponseWriter, r *http.Request) { h.delete(w, r, parts[0]) },
		})(w, r)
	case len(parts) == 2 && parts[1] == "move":
		methodMux(map[string]http.HandlerFunc{
			http.MethodPost: func(w http.ResponseWriter, r *http.Request) { h.move(w, r, parts[0]) },
		})(w, r)
	default:
		WriteError(w, r, http.StatusNotFound, CodeNotFound, "no route for "+r.URL.Path)
	}
}

func (h JobsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	job, err := h.Tracker.Job(id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, job)
}

func (h JobsHandler) patch(w http.ResponseWriter, r *http.Request, id string) {
	var p domain.JobPatch
	if err := decodeBody(r, &p); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	job, err := h.Tracker.EditJob(r.Context(), id, p)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if p.Company != nil || p.URL != nil {
		h.rememberCompany(r.Context(), job)
	}
	writeJSON(w, job)
}

func (h JobsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.Tracker.DeleteJob(r.Context(), id); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

func (h JobsHandler) move(w http.ResponseWriter, r *http.Request, id string) {
	var req moveReq
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if err := h.Tracker.MoveJob(r.Context(), id, req.FromStage, req.ToStage, req.FromIndex, req.ToIndex); err != nil {
		writeErr(w, r, err)
		return
	}
	job, err := h.Tracker.Job(id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, job)
}

// rememberCompany teaches the import prefill what the user calls the
// employer behind a posting's domain.
func (h JobsHandler) rememberCompany(ctx context.Context, j domain.Job) {
	if h.DB == nil || j.URL == "" || j.Company == "" {
		return
	}
	if err := store.RememberCompany(ctx, h.DB, j.Company, j.URL); err != nil {
		log.Printf("[api] remember company failed url=%s err=%v", j.URL, err)
	}
}
