package httpapi

import (
	"jobboard-engine/internal/analytics"
	"jobboard-engine/internal/domain"
	"jobboard-engine/internal/tracker"
)

type moveReq struct {
	FromStage domain.Stage `json:"fromStage"`
	ToStage   domain.Stage `json:"toStage"`
	FromIndex int          `json:"fromIndex"`
	ToIndex   int          `json:"toIndex"`
}

type importReq struct {
	URL  string `json:"url"`
	HTML string `json:"html,omitempty"`
}

type sessionReq struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type sessionResp struct {
	SignedIn bool   `json:"signedIn"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// tableRow is a job plus the derived values the table view shows.
type tableRow struct {
	domain.Job
	DaysApplied      int    `json:"daysApplied"`
	DaysAppliedLabel string `json:"daysAppliedLabel"`
	DaysInStage      int    `json:"daysInStage"`
	Stale            bool   `json:"stale"`
}

type boardResp struct {
	Version uint64           `json:"version"`
	Columns []tracker.Column `json:"columns"`
}

type timelineResp struct {
	Groups []analytics.MonthGroup `json:"groups"`
}
