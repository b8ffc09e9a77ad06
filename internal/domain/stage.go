package domain

import (
	"fmt"
	"strings"
)

// Stage is a pipeline column id such as "wishlist" or "hr_interview".
type Stage string

// Role tells analytics what a stage means in the funnel. Stage ids are
// configuration; roles are the fixed vocabulary the projections rely on.
type Role string

const (
	RoleWishlist  Role = "wishlist"
	RoleApplied   Role = "applied"
	RoleInterview Role = "interview"
	RoleOffered   Role = "offered"
	RoleRejected  Role = "rejected"
)

func (r Role) Valid() bool {
	switch r {
	case RoleWishlist, RoleApplied, RoleInterview, RoleOffered, RoleRejected:
		return true
	}
	return false
}

// Terminal reports whether jobs in this role are conventionally finished.
// The engine still lets a job move out of a terminal stage.
func (r Role) Terminal() bool {
	return r == RoleOffered || r == RoleRejected
}

type StageDef struct {
	ID    Stage  `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Color string `yaml:"color" json:"color"`
	Role  Role   `yaml:"role" json:"role"`
}

// StageSet is the ordered pipeline. The first stage is the default
// status for new jobs.
type StageSet struct {
	defs  []StageDef
	index map[Stage]int
}

func NewStageSet(defs []StageDef) (StageSet, error) {
	if len(defs) == 0 {
		return StageSet{}, fmt.Errorf("stage set is empty")
	}
	ss := StageSet{
		defs:  make([]StageDef, 0, len(defs)),
		index: make(map[Stage]int, len(defs)),
	}
	for i, d := range defs {
		d.ID = Stage(strings.TrimSpace(string(d.ID)))
		if d.ID == "" {
			return StageSet{}, fmt.Errorf("stages[%d].id is required", i)
		}
		if !d.Role.Valid() {
			return StageSet{}, fmt.Errorf("stages[%d].role %q is not one of wishlist|applied|interview|offered|rejected", i, d.Role)
		}
		if _, dup := ss.index[d.ID]; dup {
			return StageSet{}, fmt.Errorf("stages[%d].id %q is duplicated", i, d.ID)
		}
		if d.Label == "" {
			d.Label = string(d.ID)
		}
		ss.index[d.ID] = len(ss.defs)
		ss.defs = append(ss.defs, d)
	}
	return ss, nil
}

// MustStageSet panics on an invalid definition list. Only used for the
// built-in sets.
func MustStageSet(defs []StageDef) StageSet {
	ss, err := NewStageSet(defs)
	if err != nil {
		panic(err)
	}
	return ss
}

func (ss StageSet) Defs() []StageDef {
	out := make([]StageDef, len(ss.defs))
	copy(out, ss.defs)
	return out
}

func (ss StageSet) IDs() []Stage {
	out := make([]Stage, len(ss.defs))
	for i, d := range ss.defs {
		out[i] = d.ID
	}
	return out
}

func (ss StageSet) Len() int { return len(ss.defs) }

func (ss StageSet) Has(s Stage) bool {
	_, ok := ss.index[s]
	return ok
}

func (ss StageSet) Def(s Stage) (StageDef, bool) {
	i, ok := ss.index[s]
	if !ok {
		return StageDef{}, false
	}
	return ss.defs[i], true
}

func (ss StageSet) RoleOf(s Stage) Role {
	d, _ := ss.Def(s)
	return d.Role
}

// Default is the stage new jobs land in when the caller names none.
func (ss StageSet) Default() Stage {
	if len(ss.defs) == 0 {
		return ""
	}
	return ss.defs[0].ID
}

// Position returns the pipeline order of s, or -1.
func (ss StageSet) Position(s Stage) int {
	i, ok := ss.index[s]
	if !ok {
		return -1
	}
	return i
}

// DefaultStages is the seven-column board with a single rejection stage.
var DefaultStages = MustStageSet([]StageDef{
	{ID: "wishlist", Label: "Wishlist", Color: "#8b5cf6", Role: RoleWishlist},
	{ID: "applied", Label: "Applied", Color: "#3b82f6", Role: RoleApplied},
	{ID: "hr_interview", Label: "HR Interview", Color: "#06b6d4", Role: RoleInterview},
	{ID: "technical_interview", Label: "Technical Interview", Color: "#f59e0b", Role: RoleInterview},
	{ID: "additional_interview", Label: "Additional Interview", Color: "#ec4899", Role: RoleInterview},
	{ID: "offered", Label: "Offered", Color: "#10b981", Role: RoleOffered},
	{ID: "rejected", Label: "Rejected", Color: "#ef4444", Role: RoleRejected},
})

// SplitRejectionStages distinguishes who ended the process.
var SplitRejectionStages = MustStageSet([]StageDef{
	{ID: "wishlist", Label: "Wishlist", Color: "#8b5cf6", Role: RoleWishlist},
	{ID: "applied", Label: "Applied", Color: "#3b82f6", Role: RoleApplied},
	{ID: "hr_interview", Label: "HR Interview", Color: "#06b6d4", Role: RoleInterview},
	{ID: "technical_interview", Label: "Technical Interview", Color: "#f59e0b", Role: RoleInterview},
	{ID: "additional_interview", Label: "Additional Interview", Color: "#ec4899", Role: RoleInterview},
	{ID: "offered", Label: "Offered", Color: "#10b981", Role: RoleOffered},
	{ID: "rejected_company", Label: "Rejected by Company", Color: "#ef4444", Role: RoleRejected},
	{ID: "rejected_applicant", Label: "Declined by Me", Color: "#f97316", Role: RoleRejected},
})

// StageSetByName resolves the named built-in sets.
func StageSetByName(name string) (StageSet, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return DefaultStages, true
	case "split":
		return SplitRejectionStages, true
	}
	return StageSet{}, false
}
