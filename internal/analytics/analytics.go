// Package analytics derives read-only statistics from a job collection.
// Nothing here mutates its input; every function is safe to call on each
// change of the collection.
package analytics

import (
	"math"
	"sort"
	"time"

	"jobboard-engine/internal/domain"
)

const day = 24 * time.Hour

// DaysSince returns whole days elapsed since t, floored at 0. A nil t
// yields 0.
func DaysSince(t *time.Time, now time.Time) int {
	if t == nil || t.IsZero() {
		return 0
	}
	d := now.Sub(*t)
	if d <= 0 {
		return 0
	}
	return int(d / day)
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }

func percent(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return round1(float64(n) / float64(of) * 100)
}

type Funnel struct {
	Total         int     `json:"total"`
	Applied       int     `json:"applied"`
	Interviewed   int     `json:"interviewed"`
	Offered       int     `json:"offered"`
	Rejected      int     `json:"rejected"`
	InterviewRate float64 `json:"interviewRate"`
	OfferRate     float64 `json:"offerRate"`
	RejectionRate float64 `json:"rejectionRate"`
}

// ComputeFunnel counts jobs by stage role. Interviewed includes offers,
// since an offer implies the interviews were passed. Rates are
// percentages of Applied with one decimal.
func ComputeFunnel(jobs []domain.Job, stages domain.StageSet) Funnel {
	f := Funnel{Total: len(jobs)}
	wish := 0
	for _, j := range jobs {
		switch stages.RoleOf(j.Status) {
		case domain.RoleWishlist:
			wish++
		case domain.RoleInterview:
			f.Interviewed++
		case domain.RoleOffered:
			f.Interviewed++
			f.Offered++
		case domain.RoleRejected:
			f.Rejected++
		}
	}
	f.Applied = f.Total - wish
	f.InterviewRate = percent(f.Interviewed, f.Applied)
	f.OfferRate = percent(f.Offered, f.Applied)
	f.RejectionRate = percent(f.Rejected, f.Applied)
	return f
}

type FunnelStep struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Steps renders the funnel as bars measured against the total.
func (f Funnel) Steps() []FunnelStep {
	return []FunnelStep{
		{Label: "All", Count: f.Total, Percent: percent(f.Total, f.Total)},
		{Label: "Applied", Count: f.Applied, Percent: percent(f.Applied, f.Total)},
		{Label: "Interviewed", Count: f.Interviewed, Percent: percent(f.Interviewed, f.Total)},
		{Label: "Offered", Count: f.Offered, Percent: percent(f.Offered, f.Total)},
	}
}

type StageCount struct {
	Stage   domain.Stage `json:"stage"`
	Label   string       `json:"label"`
	Color   string       `json:"color,omitempty"`
	Count   int          `json:"count"`
	Percent float64      `json:"percent"`
}

// StatusBreakdown reports every stage in pipeline order, empty ones
// included.
func StatusBreakdown(jobs []domain.Job, stages domain.StageSet) []StageCount {
	counts := make(map[domain.Stage]int, stages.Len())
	for _, j := range jobs {
		counts[j.Status]++
	}
	out := make([]StageCount, 0, stages.Len())
	for _, def := range stages.Defs() {
		out = append(out, StageCount{
			Stage:   def.ID,
			Label:   def.Label,
			Color:   def.Color,
			Count:   counts[def.ID],
			Percent: percent(counts[def.ID], len(jobs)),
		})
	}
	return out
}

type WorkTypeCount struct {
	WorkType domain.WorkType `json:"workType"`
	Count    int             `json:"count"`
	Percent  float64         `json:"percent"`
}

func WorkTypes(jobs []domain.Job) []WorkTypeCount {
	counts := make(map[domain.WorkType]int, len(domain.WorkTypes))
	for _, j := range jobs {
		counts[j.WorkType]++
	}
	out := make([]WorkTypeCount, 0, len(domain.WorkTypes))
	for _, wt := range domain.WorkTypes {
		out = append(out, WorkTypeCount{WorkType: wt, Count: counts[wt], Percent: percent(counts[wt], len(jobs))})
	}
	return out
}

// AveragePipelineDays averages DaysSince(dateApplied), rounded. Jobs
// without an applied date are left out.
func AveragePipelineDays(jobs []domain.Job, now time.Time) int {
	sum, n := 0, 0
	for _, j := range jobs {
		if j.DateApplied == nil {
			continue
		}
		sum += DaysSince(j.DateApplied, now)
		n++
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

type StageDays struct {
	Stage   domain.Stage `json:"stage"`
	Count   int          `json:"count"`
	AvgDays int          `json:"avgDays"`
}

// AverageDaysPerStage measures how long the jobs currently in each stage
// have been there. It is not a historical total.
func AverageDaysPerStage(jobs []domain.Job, stages domain.StageSet, now time.Time) []StageDays {
	sums := make(map[domain.Stage]int)
	counts := make(map[domain.Stage]int)
	for _, j := range jobs {
		at := j.StatusChangedAt
		sums[j.Status] += DaysSince(&at, now)
		counts[j.Status]++
	}
	out := make([]StageDays, 0, stages.Len())
	for _, id := range stages.IDs() {
		sd := StageDays{Stage: id, Count: counts[id]}
		if sd.Count > 0 {
			sd.AvgDays = int(math.Round(float64(sums[id]) / float64(sd.Count)))
		}
		out = append(out, sd)
	}
	return out
}

// IsStale reports whether j has sat in a non-terminal stage for at least
// staleDays.
func IsStale(j domain.Job, stages domain.StageSet, now time.Time, staleDays int) bool {
	if stages.RoleOf(j.Status).Terminal() {
		return false
	}
	at := j.StatusChangedAt
	return DaysSince(&at, now) >= staleDays
}

// StaleJobs returns stale jobs, longest waiting first.
func StaleJobs(jobs []domain.Job, stages domain.StageSet, now time.Time, staleDays int) []domain.Job {
	var out []domain.Job
	for _, j := range jobs {
		if IsStale(j, stages, now, staleDays) {
			out = append(out, j)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].StatusChangedAt.Before(out[b].StatusChangedAt)
	})
	return out
}

type Week struct {
	Start time.Time `json:"start"`
	Count int       `json:"count"`
}

// WeekStart is the Sunday 00:00 UTC that begins t's week.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// MostActiveWeek buckets jobs by the week of dateApplied and returns the
// fullest bucket. Ties go to the earliest week.
func MostActiveWeek(jobs []domain.Job) (Week, bool) {
	counts := make(map[time.Time]int)
	for _, j := range jobs {
		if j.DateApplied == nil {
			continue
		}
		counts[WeekStart(*j.DateApplied)]++
	}
	var best Week
	found := false
	for start, n := range counts {
		if !found || n > best.Count || (n == best.Count && start.Before(best.Start)) {
			best = Week{Start: start, Count: n}
			found = true
		}
	}
	return best, found
}

type FitStats struct {
	Count  int     `json:"count"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Avg    int     `json:"avg"`
	Median float64 `json:"median"`
}

// JobFit summarises jobFitPercentage over the jobs that have one.
func JobFit(jobs []domain.Job) (FitStats, bool) {
	var vals []int
	for _, j := range jobs {
		if j.JobFitPercentage != nil {
			vals = append(vals, *j.JobFitPercentage)
		}
	}
	if len(vals) == 0 {
		return FitStats{}, false
	}
	sort.Ints(vals)
	sum := 0
	for _, v := range vals {
		sum += v
	}
	n := len(vals)
	st := FitStats{
		Count: n,
		Min:   vals[0],
		Max:   vals[n-1],
		Avg:   int(math.Round(float64(sum) / float64(n))),
	}
	if n%2 == 1 {
		st.Median = float64(vals[n/2])
	} else {
		st.Median = float64(vals[n/2-1]+vals[n/2]) / 2
	}
	return st, true
}
