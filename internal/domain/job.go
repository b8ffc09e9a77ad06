package domain

import (
	"fmt"
	"strings"
	"time"
)

type WorkType string

const (
	WorkRemote WorkType = "remote"
	WorkOnsite WorkType = "onsite"
	WorkHybrid WorkType = "hybrid"
)

var WorkTypes = []WorkType{WorkRemote, WorkOnsite, WorkHybrid}

func (w WorkType) Valid() bool {
	switch w {
	case WorkRemote, WorkOnsite, WorkHybrid:
		return true
	}
	return false
}

// Job is one tracked opportunity. The JSON shape is the wire format of
// the remote job store and must round-trip unchanged.
type Job struct {
	ID                  string     `json:"id"`
	Company             string     `json:"company"`
	Position            string     `json:"position"`
	URL                 string     `json:"url"`
	Salary              string     `json:"salary"`
	Notes               string     `json:"notes"`
	Location            string     `json:"location"`
	WorkType            WorkType   `json:"workType"`
	FinalOffer          string     `json:"finalOffer"`
	Benefits            string     `json:"benefits"`
	NonMonetaryBenefits string     `json:"nonMonetaryBenefits"`
	JobFitPercentage    *int       `json:"jobFitPercentage,omitempty"`
	Status              Stage      `json:"status"`
	DateApplied         *time.Time `json:"dateApplied"`
	DateAdded           time.Time  `json:"dateAdded"`
	StatusChangedAt     time.Time  `json:"statusChangedAt"`
	History             History    `json:"history"`
}

func (j Job) Clone() Job {
	out := j
	out.History = j.History.Clone()
	if j.JobFitPercentage != nil {
		v := *j.JobFitPercentage
		out.JobFitPercentage = &v
	}
	if j.DateApplied != nil {
		v := *j.DateApplied
		out.DateApplied = &v
	}
	return out
}

// Check verifies the per-record invariants against a stage set.
func (j Job) Check(stages StageSet) error {
	if strings.TrimSpace(j.ID) == "" {
		return fmt.Errorf("job has no id")
	}
	if !stages.Has(j.Status) {
		return fmt.Errorf("job %s: unknown status %q", j.ID, j.Status)
	}
	if err := j.History.Check(); err != nil {
		return fmt.Errorf("job %s: %w", j.ID, err)
	}
	cur, _ := j.History.Current()
	if cur.Status != j.Status {
		return fmt.Errorf("job %s: open history entry is %q but status is %q", j.ID, cur.Status, j.Status)
	}
	if !cur.EnteredAt.Equal(j.StatusChangedAt) {
		return fmt.Errorf("job %s: statusChangedAt does not match open history entry", j.ID)
	}
	return nil
}

// Normalize repairs records that arrive from storage or the server with
// a broken history log so the engine's invariants hold. It reports
// whether anything changed.
func (j *Job) Normalize() bool {
	changed := false
	if j.WorkType == "" {
		j.WorkType = WorkRemote
		changed = true
	}
	if j.DateAdded.IsZero() {
		j.DateAdded = j.StatusChangedAt
		changed = true
	}
	fallback := j.StatusChangedAt
	if fallback.IsZero() {
		fallback = j.DateAdded
	}
	if j.History.Check() != nil || j.History[len(j.History)-1].Status != j.Status {
		j.History = j.History.repair(j.Status, fallback)
		changed = true
	}
	cur, _ := j.History.Current()
	if !cur.EnteredAt.Equal(j.StatusChangedAt) {
		j.StatusChangedAt = cur.EnteredAt
		changed = true
	}
	return changed
}

// JobInput is the creation payload: every Job field except the ones the
// engine assigns.
type JobInput struct {
	Company             string     `json:"company"`
	Position            string     `json:"position"`
	URL                 string     `json:"url"`
	Salary              string     `json:"salary"`
	Notes               string     `json:"notes"`
	Location            string     `json:"location"`
	WorkType            WorkType   `json:"workType"`
	FinalOffer          string     `json:"finalOffer"`
	Benefits            string     `json:"benefits"`
	NonMonetaryBenefits string     `json:"nonMonetaryBenefits"`
	JobFitPercentage    *int       `json:"jobFitPercentage,omitempty"`
	Status              Stage      `json:"status"`
	DateApplied         *time.Time `json:"dateApplied"`
}

// ValidateForCreate checks the input and fills defaults: work type
// remote, status the first pipeline stage.
func ValidateForCreate(in JobInput, stages StageSet) (JobInput, error) {
	in.Company = strings.TrimSpace(in.Company)
	if in.Company == "" {
		return in, invalid("company", "is required")
	}
	if in.WorkType == "" {
		in.WorkType = WorkRemote
	} else if !in.WorkType.Valid() {
		return in, invalid("workType", "must be remote, onsite or hybrid")
	}
	if in.Status == "" {
		in.Status = stages.Default()
	} else if !stages.Has(in.Status) {
		return in, invalid("status", "%q is not a pipeline stage", in.Status)
	}
	if err := checkFit(in.JobFitPercentage); err != nil {
		return in, err
	}
	return in, nil
}

func checkFit(p *int) error {
	if p != nil && (*p < 0 || *p > 100) {
		return invalid("jobFitPercentage", "must be between 0 and 100")
	}
	return nil
}

// NewJob builds the record for a validated input.
func NewJob(id string, in JobInput, now time.Time) Job {
	j := Job{
		ID:                  id,
		Company:             in.Company,
		Position:            in.Position,
		URL:                 in.URL,
		Salary:              in.Salary,
		Notes:               in.Notes,
		Location:            in.Location,
		WorkType:            in.WorkType,
		FinalOffer:          in.FinalOffer,
		Benefits:            in.Benefits,
		NonMonetaryBenefits: in.NonMonetaryBenefits,
		JobFitPercentage:    in.JobFitPercentage,
		Status:              in.Status,
		DateApplied:         in.DateApplied,
		DateAdded:           now,
		StatusChangedAt:     now,
		History:             StartHistory(in.Status, now),
	}
	if j.DateApplied == nil {
		applied := now
		j.DateApplied = &applied
	}
	return j.Clone()
}

// JobPatch is a partial edit. Nil fields are left alone. DateApplied
// and JobFitPercentage also accept null, which clears them.
type JobPatch struct {
	Company             *string             `json:"company,omitempty"`
	Position            *string             `json:"position,omitempty"`
	URL                 *string             `json:"url,omitempty"`
	Salary              *string             `json:"salary,omitempty"`
	Notes               *string             `json:"notes,omitempty"`
	Location            *string             `json:"location,omitempty"`
	WorkType            *WorkType           `json:"workType,omitempty"`
	FinalOffer          *string             `json:"finalOffer,omitempty"`
	Benefits            *string             `json:"benefits,omitempty"`
	NonMonetaryBenefits *string             `json:"nonMonetaryBenefits,omitempty"`
	JobFitPercentage    Optional[int]       `json:"jobFitPercentage,omitzero"`
	Status              *Stage              `json:"status,omitempty"`
	DateApplied         Optional[time.Time] `json:"dateApplied,omitzero"`
}

func (p JobPatch) Validate(stages StageSet) error {
	if p.Company != nil && strings.TrimSpace(*p.Company) == "" {
		return invalid("company", "cannot be empty")
	}
	if p.WorkType != nil && !p.WorkType.Valid() {
		return invalid("workType", "must be remote, onsite or hybrid")
	}
	if p.Status != nil && !stages.Has(*p.Status) {
		return invalid("status", "%q is not a pipeline stage", *p.Status)
	}
	return checkFit(p.JobFitPercentage.Value)
}

// Fields returns the patch without its status change.
func (p JobPatch) Fields() JobPatch {
	p.Status = nil
	return p
}

func (p JobPatch) Empty() bool {
	return p == JobPatch{}
}

// ApplyFields merges everything except Status into j.
func (p JobPatch) ApplyFields(j *Job) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	if p.Company != nil {
		j.Company = strings.TrimSpace(*p.Company)
	}
	set(&j.Position, p.Position)
	set(&j.URL, p.URL)
	set(&j.Salary, p.Salary)
	set(&j.Notes, p.Notes)
	set(&j.Location, p.Location)
	set(&j.FinalOffer, p.FinalOffer)
	set(&j.Benefits, p.Benefits)
	set(&j.NonMonetaryBenefits, p.NonMonetaryBenefits)
	if p.WorkType != nil {
		j.WorkType = *p.WorkType
	}
	p.JobFitPercentage.apply(&j.JobFitPercentage)
	p.DateApplied.apply(&j.DateApplied)
}
