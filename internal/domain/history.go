package domain

import (
	"errors"
	"fmt"
	"time"
)

// HistoryEntry is one stay in a stage. LeftAt is nil while the job is
// still there.
type HistoryEntry struct {
	Status    Stage      `json:"status"`
	EnteredAt time.Time  `json:"enteredAt"`
	LeftAt    *time.Time `json:"leftAt"`
}

func (e HistoryEntry) Open() bool { return e.LeftAt == nil }

// History is an append-only log with exactly one open entry, the last.
type History []HistoryEntry

func StartHistory(s Stage, at time.Time) History {
	return History{{Status: s, EnteredAt: at}}
}

// Current returns the open entry.
func (h History) Current() (HistoryEntry, bool) {
	if len(h) == 0 || !h[len(h)-1].Open() {
		return HistoryEntry{}, false
	}
	return h[len(h)-1], true
}

// Transition closes the open entry at `at` and opens one for `to`. The
// receiver is not modified.
func (h History) Transition(to Stage, at time.Time) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	for i := range out {
		if out[i].Open() {
			left := at
			out[i].LeftAt = &left
		}
	}
	return append(out, HistoryEntry{Status: to, EnteredAt: at})
}

func (h History) Clone() History {
	if h == nil {
		return nil
	}
	out := make(History, len(h))
	for i, e := range h {
		out[i] = e
		if e.LeftAt != nil {
			left := *e.LeftAt
			out[i].LeftAt = &left
		}
	}
	return out
}

var errEmptyHistory = errors.New("history is empty")

// Check verifies the single-open-interval invariant.
func (h History) Check() error {
	if len(h) == 0 {
		return errEmptyHistory
	}
	var prevLeft time.Time
	for i, e := range h {
		last := i == len(h)-1
		if last && !e.Open() {
			return fmt.Errorf("history[%d] is the last entry but closed", i)
		}
		if !last && e.Open() {
			return fmt.Errorf("history[%d] is open but not last", i)
		}
		if e.LeftAt != nil {
			if e.LeftAt.Before(e.EnteredAt) {
				return fmt.Errorf("history[%d] left before it entered", i)
			}
			if e.LeftAt.Before(prevLeft) {
				return fmt.Errorf("history[%d] leftAt goes backwards", i)
			}
			prevLeft = *e.LeftAt
		}
	}
	return nil
}

// repair rebuilds a log that violates Check. Closed entries keep their
// order; stray open entries are closed when the next entry begins.
func (h History) repair(status Stage, fallback time.Time) History {
	out := h.Clone()
	for i := 0; i < len(out)-1; i++ {
		if out[i].Open() {
			left := out[i+1].EnteredAt
			out[i].LeftAt = &left
		}
	}
	if len(out) == 0 {
		return StartHistory(status, fallback)
	}
	last := out[len(out)-1]
	if !last.Open() {
		at := *last.LeftAt
		if fallback.After(at) {
			at = fallback
		}
		out = append(out, HistoryEntry{Status: status, EnteredAt: at})
	} else if last.Status != status {
		at := fallback
		if at.Before(last.EnteredAt) {
			at = last.EnteredAt
		}
		out = out.Transition(status, at)
	}
	return out
}
