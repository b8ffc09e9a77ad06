// Package gatewaytest provides an in-memory gateway.Gateway with failure
// injection for engine tests.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jobboard-engine/internal/domain"
	"jobboard-engine/internal/gateway"
)

// Call records one gateway invocation.
type Call struct {
	Op       string
	ID       string
	Status   domain.Stage
	Position *int
	Patch    domain.JobPatch
}

type Fake struct {
	mu    sync.Mutex
	jobs  []domain.Job
	seq   int
	calls []Call
	fail  map[string][]error
	gates map[string]chan struct{}
	Now   func() time.Time
}

func New(seed ...domain.Job) *Fake {
	f := &Fake{
		fail:  make(map[string][]error),
		gates: make(map[string]chan struct{}),
		Now:   func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
	}
	for _, j := range seed {
		f.jobs = append(f.jobs, j.Clone())
	}
	return f
}

// FailNext makes the next call to op return err. Queued errors are
// consumed in order.
func (f *Fake) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = append(f.fail[op], err)
}

// Hold blocks every call to op until the returned release func runs.
func (f *Fake) Hold(op string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[op] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.gates, op)
			f.mu.Unlock()
			close(ch)
		})
	}
}

func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsFor filters Calls by op.
func (f *Fake) CallsFor(op string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Server returns a copy of the authoritative collection.
func (f *Fake) Server() []domain.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Job, len(f.jobs))
	for i, j := range f.jobs {
		out[i] = j.Clone()
	}
	return out
}

func (f *Fake) enter(ctx context.Context, c Call) error {
	f.mu.Lock()
	gate := f.gates[c.Op]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return &gateway.NetworkError{Op: c.Op, Err: ctx.Err()}
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if q := f.fail[c.Op]; len(q) > 0 {
		f.fail[c.Op] = q[1:]
		return q[0]
	}
	return nil
}

func (f *Fake) find(id string) int {
	for i := range f.jobs {
		if f.jobs[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *Fake) ListJobs(ctx context.Context) ([]domain.Job, error) {
	if err := f.enter(ctx, Call{Op: "list"}); err != nil {
		return nil, err
	}
	return f.Server(), nil
}

func (f *Fake) CreateJob(ctx context.Context, in domain.JobInput) (domain.Job, error) {
	if err := f.enter(ctx, Call{Op: "create", Status: in.Status}); err != nil {
		return domain.Job{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	j := domain.NewJob(fmt.Sprintf("srv_%d", f.seq), in, f.Now())
	f.jobs = append([]domain.Job{j}, f.jobs...)
	return j.Clone(), nil
}

func (f *Fake) UpdateJobStatus(ctx context.Context, id string, status domain.Stage, position *int) error {
	if err := f.enter(ctx, Call{Op: "status", ID: id, Status: status, Position: position}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return &gateway.NetworkError{Op: "status", Status: 404, Err: fmt.Errorf("no job %s", id)}
	}
	j := f.jobs[i]
	if j.Status != status {
		now := f.Now()
		j.History = j.History.Transition(status, now)
		j.Status = status
		j.StatusChangedAt = now
		f.jobs[i] = j
	}
	return nil
}

func (f *Fake) UpdateJobFields(ctx context.Context, id string, patch domain.JobPatch) error {
	if err := f.enter(ctx, Call{Op: "fields", ID: id, Patch: patch}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return &gateway.NetworkError{Op: "fields", Status: 404, Err: fmt.Errorf("no job %s", id)}
	}
	patch.ApplyFields(&f.jobs[i])
	return nil
}

func (f *Fake) DeleteJob(ctx context.Context, id string) error {
	if err := f.enter(ctx, Call{Op: "delete", ID: id}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.find(id); i >= 0 {
		f.jobs = append(f.jobs[:i], f.jobs[i+1:]...)
	}
	return nil
}

var _ gateway.Gateway = (*Fake)(nil)
