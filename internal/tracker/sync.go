package tracker

import (
	"context"
	"sort"
	"time"

	"jobboard-engine/internal/board"
	"jobboard-engine/internal/domain"
	"jobboard-engine/internal/events"
	"jobboard-engine/internal/gateway"
)

// confirmCreate swaps the optimistic id for the server's once the remote
// insert lands. Edits made in the meantime are kept.
func (s *Store) confirmCreate(ctx context.Context, tmp string, in domain.JobInput, pc *pendingCreate) {
	created, err := s.gw.CreateJob(ctx, in)

	s.mu.Lock()
	if err != nil {
		// Stays registered so later edits to tmp skip their remote calls;
		// the next applied refetch drops it.
		pc.err = err
		close(pc.done)
		s.mu.Unlock()
		s.remoteFailed(ctx, "create", tmp, err)
		return
	}
	delete(s.creates, tmp)
	pc.serverID = created.ID
	local, live := s.jobs[tmp]
	_, known := s.jobs[created.ID]
	if live {
		delete(s.jobs, tmp)
		local.ID = created.ID
		if !known {
			s.jobs[created.ID] = local
		}
		pos := s.board.IndexOf(local.Status, tmp)
		s.board.Remove(local.Status, tmp)
		if !known {
			s.board.Insert(local.Status, created.ID, pos)
		}
		s.version++
	}
	s.aliases[tmp] = created.ID
	deleted := pc.deleted
	close(pc.done)
	s.mu.Unlock()

	switch {
	case live:
		s.emit(ctx, events.JobConfirmed, map[string]string{"tempId": tmp, "id": created.ID})
	case !deleted && !known:
		// A refetch raced the insert and dropped the optimistic record.
		logf("create %s landed after a refetch; refetching", created.ID)
		_ = s.Refetch(ctx)
	}
}

// remoteID waits for a pending create so follow-up calls target the
// server id. It reports false when the create failed.
func (s *Store) remoteID(ctx context.Context, id string, pc *pendingCreate) (string, bool) {
	if pc == nil {
		return id, true
	}
	select {
	case <-pc.done:
	case <-ctx.Done():
		return "", false
	}
	if pc.err != nil {
		return "", false
	}
	return pc.serverID, true
}

// remoteFailed hands auth failures to the auth collaborator, then
// reconciles with the server. The optimistic change is never rolled back
// field by field.
func (s *Store) remoteFailed(ctx context.Context, op, id string, err error) {
	auth := gateway.IsAuth(err)
	logf("remote %s failed id=%s auth=%v err=%v", op, id, auth, err)
	if auth && s.onAuthError != nil {
		s.onAuthError(err)
	}
	s.emit(ctx, events.SyncFailed, map[string]any{"op": op, "id": id, "auth": auth, "error": err.Error()})

	// The failed call may have used up ctx's deadline.
	rctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	_ = s.Refetch(rctx)
}

// Refetch replaces local state with the server's collection. When
// several refetches overlap, the one started last wins.
func (s *Store) Refetch(ctx context.Context) error {
	seq := s.fetchSeq.Add(1)
	jobs, err := s.gw.ListJobs(ctx)
	if err != nil {
		auth := gateway.IsAuth(err)
		logf("refetch failed auth=%v err=%v", auth, err)
		if auth && s.onAuthError != nil {
			s.onAuthError(err)
		}
		s.emit(ctx, events.SyncFailed, map[string]any{"op": "refetch", "auth": auth, "error": err.Error()})
		return err
	}
	applied := s.replace(seq, jobs)
	if applied {
		s.emit(ctx, events.StateReconciled, map[string]any{"count": s.Len()})
	}
	return nil
}

// replace installs a full collection unless a newer refetch already did.
// Seq 0 is a local restore and only applies before any refetch.
func (s *Store) replace(seq uint64, jobs []domain.Job) bool {
	clean := s.sanitize(jobs)
	ix, _ := board.Build(s.stages.IDs(), clean)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.appliedSeq || (seq == 0 && s.appliedSeq > 0) {
		logf("discarding stale snapshot seq=%d applied=%d", seq, s.appliedSeq)
		return false
	}
	s.appliedSeq = seq
	s.jobs = make(map[string]domain.Job, len(clean))
	for _, j := range clean {
		s.jobs[j.ID] = j
	}
	s.board = ix
	for id, pc := range s.creates {
		if pc.err != nil {
			delete(s.creates, id)
		}
	}
	s.version++
	return true
}

// sanitize drops records the engine cannot place and repairs broken
// history logs.
func (s *Store) sanitize(in []domain.Job) []domain.Job {
	seen := make(map[string]bool, len(in))
	out := make([]domain.Job, 0, len(in))
	for _, j := range in {
		if j.ID == "" || seen[j.ID] {
			logf("skipping job with empty or duplicate id=%q", j.ID)
			continue
		}
		if !s.stages.Has(j.Status) {
			logf("skipping job id=%s unknown status=%q", j.ID, j.Status)
			continue
		}
		j = j.Clone()
		if j.Normalize() {
			logf("repaired job id=%s", j.ID)
		}
		seen[j.ID] = true
		out = append(out, j)
	}
	return out
}

// Snapshot is the persisted form of the store: records plus column order.
type Snapshot struct {
	Jobs    []domain.Job              `json:"jobs"`
	Columns map[domain.Stage][]string `json:"columns"`
	SavedAt time.Time                 `json:"savedAt"`
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{Columns: s.board.Columns(), SavedAt: s.now()}
	for _, st := range s.board.Stages() {
		for _, id := range s.board.Column(st) {
			snap.Jobs = append(snap.Jobs, s.jobs[id].Clone())
		}
	}
	return snap
}

// Restore seeds the store from a saved snapshot. It is ignored once a
// refetch has applied, since the server is authoritative.
func (s *Store) Restore(snap Snapshot) bool {
	rank := make(map[string]int)
	for st, ids := range snap.Columns {
		for i, id := range ids {
			rank[string(st)+"\x00"+id] = i
		}
	}
	ordered := make([]domain.Job, len(snap.Jobs))
	copy(ordered, snap.Jobs)
	sort.SliceStable(ordered, func(a, b int) bool {
		ra, oka := rank[string(ordered[a].Status)+"\x00"+ordered[a].ID]
		rb, okb := rank[string(ordered[b].Status)+"\x00"+ordered[b].ID]
		if oka != okb {
			return oka
		}
		return ra < rb
	})
	return s.replace(0, ordered)
}
