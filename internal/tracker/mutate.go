package tracker

import (
	"context"

	"jobboard-engine/internal/domain"
	"jobboard-engine/internal/events"
)

// AddJob inserts a job at the top of its column under an optimistic id
// and creates it remotely in the background. The returned record carries
// the optimistic id; it keeps resolving after the server id arrives.
func (s *Store) AddJob(ctx context.Context, in domain.JobInput) (domain.Job, error) {
	in, err := domain.ValidateForCreate(in, s.stages)
	if err != nil {
		return domain.Job{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.Job{}, ErrClosed
	}
	id := s.newID()
	j := domain.NewJob(id, in, s.now())
	s.jobs[id] = j
	s.board.Insert(j.Status, id, 0)
	pc := &pendingCreate{done: make(chan struct{})}
	s.creates[id] = pc
	s.version++
	s.mu.Unlock()

	// The server gets the same applied date the user sees.
	in.DateApplied = j.DateApplied
	s.emit(ctx, events.JobCreated, j)
	s.spawn(func(rctx context.Context) { s.confirmCreate(rctx, id, in, pc) })
	return j.Clone(), nil
}

// EditJob merges the patch into the record. A status change appends a
// history entry and moves the job to the top of the new column.
func (s *Store) EditJob(ctx context.Context, id string, patch domain.JobPatch) (domain.Job, error) {
	if err := patch.Validate(s.stages); err != nil {
		return domain.Job{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.Job{}, ErrClosed
	}
	asked, id := id, s.resolve(id)
	cur, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return domain.Job{}, &domain.NotFoundError{ID: asked}
	}
	next := cur.Clone()
	patch.ApplyFields(&next)
	moved := patch.Status != nil && *patch.Status != cur.Status
	if moved {
		s.transition(&next, *patch.Status)
		s.board.Remove(cur.Status, id)
		s.board.Insert(next.Status, id, 0)
	}
	fields := patch.Fields()
	if !moved && fields.Empty() {
		s.mu.Unlock()
		return cur.Clone(), nil
	}
	s.jobs[id] = next
	s.version++
	pc := s.creates[id]
	s.mu.Unlock()

	s.emit(ctx, events.JobUpdated, next)
	if moved {
		s.emit(ctx, events.JobMoved, moveEvent{ID: id, From: cur.Status, To: next.Status, Index: 0})
	}
	s.spawn(func(rctx context.Context) {
		rid, ok := s.remoteID(rctx, id, pc)
		if !ok {
			return
		}
		if moved {
			top := 0
			if err := s.gw.UpdateJobStatus(rctx, rid, next.Status, &top); err != nil {
				s.remoteFailed(rctx, "update_status", rid, err)
				return
			}
		}
		if !fields.Empty() {
			if err := s.gw.UpdateJobFields(rctx, rid, fields); err != nil {
				s.remoteFailed(rctx, "update_fields", rid, err)
			}
		}
	})
	return next.Clone(), nil
}

// DeleteJob removes the record and its board slot.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	asked, id := id, s.resolve(id)
	cur, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return &domain.NotFoundError{ID: asked}
	}
	delete(s.jobs, id)
	s.board.Remove(cur.Status, id)
	pc := s.creates[id]
	if pc != nil {
		pc.deleted = true
	}
	s.version++
	s.mu.Unlock()

	s.emit(ctx, events.JobDeleted, map[string]any{"id": id, "status": cur.Status})
	s.spawn(func(rctx context.Context) {
		rid, ok := s.remoteID(rctx, id, pc)
		if !ok {
			return
		}
		if err := s.gw.DeleteJob(rctx, rid); err != nil {
			s.remoteFailed(rctx, "delete", rid, err)
		}
	})
	return nil
}

type moveEvent struct {
	ID    string       `json:"id"`
	From  domain.Stage `json:"from"`
	To    domain.Stage `json:"to"`
	Index int          `json:"index"`
}

// MoveJob is a drag-and-drop: it relocates the job to toIdx within toStage.
// fromStage must be the job's current stage. Dropping a job where it
// already is changes nothing and makes no remote call.
func (s *Store) MoveJob(ctx context.Context, id string, fromStage, toStage domain.Stage, fromIdx, toIdx int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	asked, id := id, s.resolve(id)
	cur, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return &domain.NotFoundError{ID: asked}
	}
	if fromStage == toStage && fromIdx == toIdx {
		s.mu.Unlock()
		return nil
	}
	if !s.stages.Has(toStage) {
		s.mu.Unlock()
		return &domain.ValidationError{Field: "toStage", Message: "unknown stage " + string(toStage)}
	}
	if cur.Status != fromStage {
		s.mu.Unlock()
		return &domain.ValidationError{Field: "fromStage", Message: "job is in " + string(cur.Status)}
	}
	if err := s.board.Move(id, fromStage, fromIdx, toStage, toIdx); err != nil {
		s.mu.Unlock()
		return err
	}
	next := cur
	if fromStage != toStage {
		next = cur.Clone()
		s.transition(&next, toStage)
		s.jobs[id] = next
	}
	pos := s.board.IndexOf(toStage, id)
	s.version++
	pc := s.creates[id]
	s.mu.Unlock()

	s.emit(ctx, events.JobMoved, moveEvent{ID: id, From: fromStage, To: toStage, Index: pos})
	s.spawn(func(rctx context.Context) {
		rid, ok := s.remoteID(rctx, id, pc)
		if !ok {
			return
		}
		if err := s.gw.UpdateJobStatus(rctx, rid, toStage, &pos); err != nil {
			s.remoteFailed(rctx, "move", rid, err)
		}
	})
	return nil
}

// transition closes the open history entry and opens one for `to`.
// Callers hold mu.
func (s *Store) transition(j *domain.Job, to domain.Stage) {
	now := s.now()
	if now.Before(j.StatusChangedAt) {
		now = j.StatusChangedAt
	}
	j.History = j.History.Transition(to, now)
	j.Status = to
	j.StatusChangedAt = now
}
