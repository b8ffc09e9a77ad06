package analytics

import (
	"time"

	"jobboard-engine/internal/domain"
)

const DefaultStaleDays = 14

// Dashboard bundles every projection the dashboard view renders.
type Dashboard struct {
	GeneratedAt   time.Time       `json:"generatedAt"`
	Funnel        Funnel          `json:"funnel"`
	FunnelSteps   []FunnelStep    `json:"funnelSteps"`
	Statuses      []StageCount    `json:"statuses"`
	WorkTypes     []WorkTypeCount `json:"workTypes"`
	Salaries      SalarySummary   `json:"salaries"`
	Lost          Lost            `json:"opportunityLost"`
	LostLabels    []string        `json:"opportunityLostLabels,omitempty"`
	PipelineDays  int             `json:"avgPipelineDays"`
	PipelineLabel string          `json:"avgPipelineLabel"`
	StageDays     []StageDays     `json:"avgDaysPerStage"`
	Stale         []StaleJob      `json:"staleJobs"`
	BusiestWeek   *Week           `json:"mostActiveWeek,omitempty"`
	JobFit        *FitStats       `json:"jobFit,omitempty"`
}

type StaleJob struct {
	ID       string       `json:"id"`
	Company  string       `json:"company"`
	Position string       `json:"position"`
	Status   domain.Stage `json:"status"`
	Days     int          `json:"days"`
}

// Compute builds the dashboard. staleDays <= 0 means DefaultStaleDays.
func Compute(jobs []domain.Job, stages domain.StageSet, now time.Time, staleDays int) Dashboard {
	if staleDays <= 0 {
		staleDays = DefaultStaleDays
	}
	f := ComputeFunnel(jobs, stages)
	d := Dashboard{
		GeneratedAt:  now,
		Funnel:       f,
		FunnelSteps:  f.Steps(),
		Statuses:     StatusBreakdown(jobs, stages),
		WorkTypes:    WorkTypes(jobs),
		Salaries:     Salaries(jobs),
		Lost:         OpportunityLost(jobs, stages),
		PipelineDays: AveragePipelineDays(jobs, now),
		StageDays:    AverageDaysPerStage(jobs, stages, now),
		Stale:        []StaleJob{},
	}
	d.PipelineLabel = DaysLabel(d.PipelineDays)
	if d.Lost.IDR > 0 {
		d.LostLabels = append(d.LostLabels, FormatIDR(d.Lost.IDR))
	}
	if d.Lost.USD > 0 {
		d.LostLabels = append(d.LostLabels, FormatUSD(d.Lost.USD))
	}
	for _, j := range StaleJobs(jobs, stages, now, staleDays) {
		at := j.StatusChangedAt
		d.Stale = append(d.Stale, StaleJob{
			ID:       j.ID,
			Company:  j.Company,
			Position: j.Position,
			Status:   j.Status,
			Days:     DaysSince(&at, now),
		})
	}
	if w, ok := MostActiveWeek(jobs); ok {
		d.BusiestWeek = &w
	}
	if fit, ok := JobFit(jobs); ok {
		d.JobFit = &fit
	}
	return d
}
