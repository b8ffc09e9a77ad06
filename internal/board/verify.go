package board

import (
	"fmt"

	"jobboard-engine/internal/domain"
)

// Build lays jobs out in the order given, each in its status column.
// Jobs whose status has no column are returned as skipped.
func Build(stages []domain.Stage, jobs []domain.Job) (ix *Index, skipped []domain.Job) {
	ix = New(stages)
	for _, j := range jobs {
		col, ok := ix.cols[j.Status]
		if !ok {
			skipped = append(skipped, j)
			continue
		}
		if ix.IndexOf(j.Status, j.ID) >= 0 {
			continue
		}
		ix.cols[j.Status] = append(col, j.ID)
	}
	return ix, skipped
}

// Verify checks that every job sits in exactly one column, the one for
// its status, and that the columns hold nothing else.
func (ix *Index) Verify(jobs map[string]domain.Job) error {
	seen := make(map[string]domain.Stage, len(jobs))
	for _, s := range ix.order {
		for _, id := range ix.cols[s] {
			if prev, dup := seen[id]; dup {
				return fmt.Errorf("job %s listed in %q and %q", id, prev, s)
			}
			seen[id] = s
			j, ok := jobs[id]
			if !ok {
				return fmt.Errorf("column %q lists unknown job %s", s, id)
			}
			if j.Status != s {
				return fmt.Errorf("job %s has status %q but sits in %q", id, j.Status, s)
			}
		}
	}
	for id := range jobs {
		if _, ok := seen[id]; !ok {
			return fmt.Errorf("job %s is missing from the board", id)
		}
	}
	return nil
}
