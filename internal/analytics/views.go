package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"jobboard-engine/internal/domain"
)

const NoDate = "No Date"

type MonthGroup struct {
	Label string       `json:"label"`
	Jobs  []domain.Job `json:"jobs"`
}

// Timeline groups jobs by "January 2026" of dateApplied, newest first.
// Jobs without a date form a final "No Date" group.
func Timeline(jobs []domain.Job) []MonthGroup {
	sorted := append([]domain.Job(nil), jobs...)
	sort.SliceStable(sorted, func(a, b int) bool {
		return appliedAt(sorted[a]).After(appliedAt(sorted[b]))
	})
	var out []MonthGroup
	var undated []domain.Job
	index := make(map[string]int)
	for _, j := range sorted {
		if j.DateApplied == nil {
			undated = append(undated, j)
			continue
		}
		key := j.DateApplied.UTC().Format("January 2006")
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, MonthGroup{Label: key})
		}
		out[i].Jobs = append(out[i].Jobs, j)
	}
	if len(undated) > 0 {
		out = append(out, MonthGroup{Label: NoDate, Jobs: undated})
	}
	return out
}

func appliedAt(j domain.Job) time.Time {
	if j.DateApplied == nil {
		return time.Time{}
	}
	return *j.DateApplied
}

// FilterByStatus keeps jobs in one stage. "" and "all" keep everything.
func FilterByStatus(jobs []domain.Job, status string) []domain.Job {
	if status == "" || status == "all" {
		return jobs
	}
	var out []domain.Job
	for _, j := range jobs {
		if string(j.Status) == status {
			out = append(out, j)
		}
	}
	return out
}

var SortFields = []string{"company", "position", "status", "dateApplied", "daysApplied", "daysInStage"}

// SortJobs orders a copy of jobs for the table view. Status sorts by
// pipeline position. An empty field means dateApplied, an empty order
// means desc.
func SortJobs(jobs []domain.Job, field, order string, stages domain.StageSet, now time.Time) ([]domain.Job, error) {
	if field == "" {
		field = "dateApplied"
	}
	desc := true
	switch strings.ToLower(order) {
	case "", "desc":
	case "asc":
		desc = false
	default:
		return nil, fmt.Errorf("unknown sort order %q", order)
	}

	var cmp func(a, b domain.Job) int
	switch field {
	case "company":
		cmp = func(a, b domain.Job) int { return strings.Compare(strings.ToLower(a.Company), strings.ToLower(b.Company)) }
	case "position":
		cmp = func(a, b domain.Job) int { return strings.Compare(strings.ToLower(a.Position), strings.ToLower(b.Position)) }
	case "status":
		cmp = func(a, b domain.Job) int { return stages.Position(a.Status) - stages.Position(b.Status) }
	case "dateApplied":
		cmp = func(a, b domain.Job) int { return appliedAt(a).Compare(appliedAt(b)) }
	case "daysApplied":
		cmp = func(a, b domain.Job) int { return DaysSince(a.DateApplied, now) - DaysSince(b.DateApplied, now) }
	case "daysInStage":
		cmp = func(a, b domain.Job) int {
			ta, tb := a.StatusChangedAt, b.StatusChangedAt
			return DaysSince(&ta, now) - DaysSince(&tb, now)
		}
	default:
		return nil, fmt.Errorf("unknown sort field %q", field)
	}

	out := append([]domain.Job(nil), jobs...)
	sort.SliceStable(out, func(i, k int) bool {
		c := cmp(out[i], out[k])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out, nil
}

// DaysLabel renders a day count the way cards show it.
func DaysLabel(n int) string {
	switch n {
	case 0:
		return "Today"
	case 1:
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// FormatIDR abbreviates rupiah: "Rp 15Jt", "Rp 12.5Jt", "Rp 750K".
func FormatIDR(n float64) string {
	switch {
	case n >= 1e6:
		if math.Mod(n, 1e6) == 0 {
			return fmt.Sprintf("Rp %.0fJt", n/1e6)
		}
		return fmt.Sprintf("Rp %.1fJt", n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("Rp %.0fK", n/1e3)
	}
	return fmt.Sprintf("Rp %.0f", n)
}

// FormatUSD abbreviates dollars: "$120.0K", "$950".
func FormatUSD(n float64) string {
	if n >= 1e3 {
		return fmt.Sprintf("$%.1fK", n/1e3)
	}
	return fmt.Sprintf("$%.0f", n)
}
