// Package tracker owns the in-memory job collection and its board
// layout. Every state change goes through a Store method, which updates
// records and columns together, then mirrors the change to the remote
// job store in the background. A failed remote call is repaired by
// refetching the authoritative collection.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"jobboard-engine/internal/board"
	"jobboard-engine/internal/domain"
	"jobboard-engine/internal/events"
	"jobboard-engine/internal/gateway"
)

var ErrClosed = errors.New("tracker: store is closed")

// Notifier receives change events. *events.Hub implements it.
type Notifier interface {
	Emit(reqID, typ string, data any)
}

type Options struct {
	Stages domain.StageSet
	Notify Notifier
	// OnAuthError is the auth collaborator's hook; the store itself never
	// renews credentials.
	OnAuthError   func(error)
	Now           func() time.Time
	NewID         func() string
	RemoteTimeout time.Duration
}

type Store struct {
	gw          gateway.Gateway
	stages      domain.StageSet
	notify      Notifier
	onAuthError func(error)
	now         func() time.Time
	newID       func() string
	timeout     time.Duration

	mu         sync.RWMutex
	jobs       map[string]domain.Job
	board      *board.Index
	aliases    map[string]string
	creates    map[string]*pendingCreate
	version    uint64
	appliedSeq uint64
	closed     bool

	fetchSeq atomic.Uint64
	bg       errgroup.Group
	ctx      context.Context
	cancel   context.CancelFunc
}

// pendingCreate tracks an optimistic insert until the server assigns
// its id. Remote calls for the same job wait on done.
type pendingCreate struct {
	done     chan struct{}
	serverID string
	err      error
	deleted  bool
}

// New builds an empty store bound to gw. Call Load to fill it and Close
// to tear it down.
func New(gw gateway.Gateway, opts Options) *Store {
	if opts.Stages.Len() == 0 {
		opts.Stages = domain.DefaultStages
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return "tmp_" + uuid.NewString() }
	}
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		gw:          gw,
		stages:      opts.Stages,
		notify:      opts.Notify,
		onAuthError: opts.OnAuthError,
		now:         opts.Now,
		newID:       opts.NewID,
		timeout:     opts.RemoteTimeout,
		jobs:        make(map[string]domain.Job),
		board:       board.New(opts.Stages.IDs()),
		aliases:     make(map[string]string),
		creates:     make(map[string]*pendingCreate),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Load replaces local state with the authoritative collection.
func (s *Store) Load(ctx context.Context) error {
	return s.Refetch(ctx)
}

// Flush blocks until every background remote call has finished.
func (s *Store) Flush() {
	_ = s.bg.Wait()
}

// Close waits for in-flight remote calls, then rejects further
// mutations. Responses arriving after Close are discarded.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	s.Flush()
	s.cancel()
	return nil
}

func (s *Store) Stages() domain.StageSet { return s.stages }

// Version increases on every local or reconciled change.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Job returns a copy of the record. Optimistic ids keep resolving after
// the server has assigned the real one.
func (s *Store) Job(id string) (domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[s.resolve(id)]
	if !ok {
		return domain.Job{}, &domain.NotFoundError{ID: id}
	}
	return j.Clone(), nil
}

// Jobs returns every job in board order: stage order, then column order.
func (s *Store) Jobs() []domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Job, 0, len(s.jobs))
	for _, st := range s.board.Stages() {
		for _, id := range s.board.Column(st) {
			out = append(out, s.jobs[id].Clone())
		}
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Column returns the ordered ids of one stage.
func (s *Store) Column(st domain.Stage) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board.Column(st)
}

type Column struct {
	Stage domain.StageDef `json:"stage"`
	Jobs  []domain.Job    `json:"jobs"`
}

// Board returns every stage with its jobs in display order.
func (s *Store) Board() []Column {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Column, 0, s.stages.Len())
	for _, def := range s.stages.Defs() {
		ids := s.board.Column(def.ID)
		col := Column{Stage: def, Jobs: make([]domain.Job, 0, len(ids))}
		for _, id := range ids {
			col.Jobs = append(col.Jobs, s.jobs[id].Clone())
		}
		out = append(out, col)
	}
	return out
}

// Check verifies every record and board invariant.
func (s *Store) Check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.jobs {
		if err := j.Check(s.stages); err != nil {
			return err
		}
	}
	return s.board.Verify(s.jobs)
}

// resolve maps an optimistic id to its server id. Callers hold mu.
func (s *Store) resolve(id string) string {
	if real, ok := s.aliases[id]; ok {
		return real
	}
	return id
}

func (s *Store) emit(ctx context.Context, typ string, data any) {
	if s.notify == nil {
		return
	}
	s.notify.Emit(events.RequestIDFrom(ctx), typ, data)
}

// spawn runs a remote call in the background with its own timeout.
func (s *Store) spawn(fn func(ctx context.Context)) {
	s.bg.Go(func() error {
		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()
		fn(ctx)
		return nil
	})
}

func (s *Store) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("tracker.Store{jobs=%d version=%d}", len(s.jobs), s.version)
}

func logf(format string, args ...any) {
	log.Printf("[tracker] "+format, args...)
}
