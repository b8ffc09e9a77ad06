package httpapi

import (
	"net/http"
	"time"

	"jobboard-engine/internal/analytics"
	"jobboard-engine/internal/tracker"
)

type ViewsHandler struct {
	Tracker   *tracker.Store
	Now       func() time.Time
	StaleDays func() int
}

func (h ViewsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d := analytics.Compute(h.Tracker.Jobs(), h.Tracker.Stages(), h.Now(), h.StaleDays())
	writeJSON(w, d)
}

func (h ViewsHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	groups := analytics.Timeline(h.Tracker.Jobs())
	if groups == nil {
		groups = []analytics.MonthGroup{}
	}
	writeJSON(w, timelineResp{Groups: groups})
}
