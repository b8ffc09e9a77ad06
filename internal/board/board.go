// Package board keeps the per-stage ordering of job ids, separate from
// the job records, so reordering never touches a record.
package board

import (
	"errors"
	"fmt"

	"jobboard-engine/internal/domain"
)

var ErrNotInColumn = errors.New("job is not in the source column")

// Index maps each stage to an ordered list of job ids. Position 0 is the
// top of the column.
type Index struct {
	order []domain.Stage
	cols  map[domain.Stage][]string
}

func New(stages []domain.Stage) *Index {
	ix := &Index{
		order: append([]domain.Stage(nil), stages...),
		cols:  make(map[domain.Stage][]string, len(stages)),
	}
	for _, s := range stages {
		ix.cols[s] = []string{}
	}
	return ix
}

func (ix *Index) Stages() []domain.Stage {
	return append([]domain.Stage(nil), ix.order...)
}

func (ix *Index) HasStage(s domain.Stage) bool {
	_, ok := ix.cols[s]
	return ok
}

// Column returns a copy of the ids in s.
func (ix *Index) Column(s domain.Stage) []string {
	return append([]string{}, ix.cols[s]...)
}

// IndexOf returns the position of id in s, or -1.
func (ix *Index) IndexOf(s domain.Stage, id string) int {
	for i, v := range ix.cols[s] {
		if v == id {
			return i
		}
	}
	return -1
}

// Insert puts id at pos in s. pos is clamped to the column bounds. An id
// already present in s is left where it is, so a duplicated dispatch
// cannot create a second copy.
func (ix *Index) Insert(s domain.Stage, id string, pos int) {
	col, ok := ix.cols[s]
	if !ok || ix.IndexOf(s, id) >= 0 {
		return
	}
	pos = clamp(pos, len(col))
	col = append(col, "")
	copy(col[pos+1:], col[pos:])
	col[pos] = id
	ix.cols[s] = col
}

// Remove drops the first occurrence of id from s.
func (ix *Index) Remove(s domain.Stage, id string) {
	i := ix.IndexOf(s, id)
	if i < 0 {
		return
	}
	col := ix.cols[s]
	ix.cols[s] = append(col[:i:i], col[i+1:]...)
}

// Move takes id out of from and inserts it into to at toIdx. When
// from == to and fromIdx == toIdx nothing happens. fromIdx is trusted
// only if it still points at id; a stale index falls back to the id's
// real position.
func (ix *Index) Move(id string, from domain.Stage, fromIdx int, to domain.Stage, toIdx int) error {
	if from == to && fromIdx == toIdx {
		return nil
	}
	if !ix.HasStage(from) {
		return fmt.Errorf("unknown source stage %q", from)
	}
	if !ix.HasStage(to) {
		return fmt.Errorf("unknown destination stage %q", to)
	}
	src := ix.cols[from]
	if fromIdx < 0 || fromIdx >= len(src) || src[fromIdx] != id {
		fromIdx = ix.IndexOf(from, id)
		if fromIdx < 0 {
			return ErrNotInColumn
		}
	}
	ix.cols[from] = append(src[:fromIdx:fromIdx], src[fromIdx+1:]...)
	if from != to {
		// the destination must not end up holding the id twice
		ix.Remove(to, id)
	}
	dst := ix.cols[to]
	toIdx = clamp(toIdx, len(dst))
	dst = append(dst, "")
	copy(dst[toIdx+1:], dst[toIdx:])
	dst[toIdx] = id
	ix.cols[to] = dst
	return nil
}

func (ix *Index) Clone() *Index {
	out := &Index{
		order: append([]domain.Stage(nil), ix.order...),
		cols:  make(map[domain.Stage][]string, len(ix.cols)),
	}
	for s, col := range ix.cols {
		out.cols[s] = append([]string{}, col...)
	}
	return out
}

// Columns returns a copy of every column keyed by stage.
func (ix *Index) Columns() map[domain.Stage][]string {
	out := make(map[domain.Stage][]string, len(ix.cols))
	for s, col := range ix.cols {
		out[s] = append([]string{}, col...)
	}
	return out
}

// Len is the number of ids across all columns.
func (ix *Index) Len() int {
	n := 0
	for _, col := range ix.cols {
		n += len(col)
	}
	return n
}

func clamp(pos, n int) int {
	if pos < 0 {
		return 0
	}
	if pos > n {
		return n
	}
	return pos
}
