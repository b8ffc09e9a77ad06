package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"jobboard-engine/internal/domain"
	"jobboard-engine/internal/events"
	"jobboard-engine/internal/gateway"
	"jobboard-engine/internal/gateway/gatewaytest"
	"jobboard-engine/internal/test"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recorder struct {
	mu    sync.Mutex
	types []string
}

func (r *recorder) Emit(_, typ string, _ any) {
	r.mu.Lock()
	r.types = append(r.types, typ)
	r.mu.Unlock()
}

func (r *recorder) count(typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.types {
		if t == typ {
			n++
		}
	}
	return n
}

type fixture struct {
	s     *Store
	fake  *gatewaytest.Fake
	clk   *clock
	rec   *recorder
	auths int
}

func newFixture(t *testing.T, seed ...domain.Job) *fixture {
	t.Helper()
	f := &fixture{fake: gatewaytest.New(seed...), clk: &clock{t: t0}, rec: &recorder{}}
	var n int
	var mu sync.Mutex
	f.s = New(f.fake, Options{
		Stages: domain.DefaultStages,
		Notify: f.rec,
		Now:    f.clk.Now,
		NewID: func() string {
			n++
			return fmt.Sprintf("tmp_%d", n)
		},
		OnAuthError: func(error) {
			mu.Lock()
			f.auths++
			mu.Unlock()
		},
	})
	t.Cleanup(func() { _ = f.s.Close() })
	if len(seed) > 0 {
		test.AssertNotError(t, f.s.Load(context.Background()), "load")
	}
	return f
}

func seedJob(id string, st domain.Stage) domain.Job {
	return domain.NewJob(id, domain.JobInput{Company: id, Status: st, WorkType: domain.WorkRemote}, t0.Add(-48*time.Hour))
}

func stage(s string) *domain.Stage {
	st := domain.Stage(s)
	return &st
}

func TestEndToEndScenario(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	release := f.fake.Hold("create")

	j, err := f.s.AddJob(ctx, domain.JobInput{Company: "Acme", Status: "wishlist"})
	test.AssertNotError(t, err, "add")
	test.AssertEquals(t, j.ID, "tmp_1")
	test.AssertEquals(t, f.s.Column("wishlist")[0], "tmp_1")

	f.clk.Advance(time.Hour)
	edited, err := f.s.EditJob(ctx, j.ID, domain.JobPatch{Status: stage("applied")})
	test.AssertNotError(t, err, "edit")
	test.AssertEquals(t, len(f.s.Column("wishlist")), 0)
	test.AssertEquals(t, f.s.Column("applied")[0], "tmp_1")
	test.AssertEquals(t, len(edited.History), 2)
	test.Assert(t, !edited.History[0].Open(), "first entry should be closed")
	test.Assert(t, edited.History[1].Open(), "second entry should be open")
	test.AssertNotError(t, f.s.Check(), "invariants after edit")

	before := f.s.Snapshot()
	version := f.s.Version()
	test.AssertNotError(t, f.s.MoveJob(ctx, j.ID, "applied", "applied", 0, 0), "noop move")
	after := f.s.Snapshot()
	test.AssertEquals(t, f.s.Version(), version)
	test.AssertDeepEquals(t, after.Jobs, before.Jobs)
	test.AssertDeepEquals(t, after.Columns, before.Columns)

	test.AssertNotError(t, f.s.DeleteJob(ctx, j.ID), "delete")
	_, err = f.s.Job(j.ID)
	var nf *domain.NotFoundError
	test.Assert(t, errors.As(err, &nf), "deleted job should be not found")
	test.AssertEquals(t, len(f.s.Column("applied")), 0)
	test.AssertEquals(t, f.s.Len(), 0)

	release()
	f.s.Flush()
	test.AssertEquals(t, len(f.fake.Server()), 0)
	test.AssertEquals(t, f.s.Len(), 0)
	test.AssertNotError(t, f.s.Check(), "invariants after sync")
}

func TestAddJobSwapsInServerID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	j, err := f.s.AddJob(context.Background(), domain.JobInput{Company: "  Acme  "})
	test.AssertNotError(t, err, "add")
	test.AssertEquals(t, j.Company, "Acme")
	test.AssertEquals(t, j.Status, domain.Stage("wishlist"))
	test.AssertEquals(t, j.WorkType, domain.WorkRemote)
	test.Assert(t, j.DateApplied != nil && j.DateApplied.Equal(t0), "dateApplied should default to now")

	f.s.Flush()
	test.AssertDeepEquals(t, f.s.Column("wishlist"), []string{"srv_1"})
	got, err := f.s.Job("tmp_1")
	test.AssertNotError(t, err, "optimistic id should still resolve")
	test.AssertEquals(t, got.ID, "srv_1")
	test.Assert(t, f.fake.Server()[0].DateApplied.Equal(t0), "server should get the local applied date")
	test.AssertEquals(t, f.rec.count(events.JobConfirmed), 1)
	test.AssertNotError(t, f.s.Check(), "invariants")
}

func TestAddJobNewestFirst(t *testing.T) {
	t.Parallel()
	f := newFixture(t, seedJob("a", "applied"))
	release := f.fake.Hold("create")
	defer release()
	_, err := f.s.AddJob(context.Background(), domain.JobInput{Company: "B", Status: "applied"})
	test.AssertNotError(t, err, "add")
	test.AssertDeepEquals(t, f.s.Column("applied"), []string{"tmp_1", "a"})
}

func TestAddJobValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	for _, in := range []domain.JobInput{
		{Company: "   "},
		{Company: "Acme", Status: "archived"},
		{Company: "Acme", WorkType: "spaceship"},
	} {
		_, err := f.s.AddJob(context.Background(), in)
		var ve *domain.ValidationError
		test.Assert(t, errors.As(err, &ve), fmt.Sprintf("expected validation error for %+v, got %v", in, err))
	}
	f.s.Flush()
	test.AssertEquals(t, f.s.Len(), 0)
	test.AssertEquals(t, len(f.fake.Calls()), 0)
}

func TestEditFieldsKeepsHistory(t *testing.T) {
	t.Parallel()
	f := newFixture(t, seedJob("a", "applied"))
	notes := "call back monday"
	j, err := f.s.EditJob(context.Background(), "a", domain.JobPatch{Notes: &notes, Status: stage("applied")})
	test.AssertNotError(t, err, "edit")
	test.AssertEquals(t, j.Notes, notes)
	test.AssertEquals(t, len(j.History), 1)

	f.s.Flush()
	test.AssertEquals(t, len(f.fake.CallsFor("status")), 0)
	calls := f.fake.CallsFor("fields")
	test.AssertEquals(t, len(calls), 1)
	test.Assert(t, calls[0].Patch.Status == nil, "field patch must not carry status")
	test.AssertEquals(t, f.fake.Server()[0].Notes, notes)
}

func TestEditStatusChangeClosesAndOpensHistory(t *testing.T) {
	t.Parallel()
	f := newFixture(t, seedJob("a", "wishlist"), seedJob("b", "applied"))
	f.clk.Advance(3 * time.Hour)
	j, err := f.s.EditJob(context.Background(), "a", domain.JobPatch{Status: stage("applied")})
	test.AssertNotError(t, err, "edit")

	test.AssertDeepEquals(t, f.s.Column("applied"), []string{"a", "b"})
	test.AssertEquals(t, len(f.s.Column("wishlist")), 0)
	test.AssertEquals(t, len(j.History), 2)
	test.Assert(t, j.History[0].LeftAt != nil, "old entry should be closed")
	test.Assert(t, j.History[0].LeftAt.Equal(j.History[1].EnteredAt), "leftAt should equal the new enteredAt")
	test.Assert(t, j.StatusChangedAt.Equal(j.History[1].EnteredAt), "statusChangedAt should equal the new enteredAt")
	test.AssertEquals(t, j.History[1].Status, domain.Stage("applied"))

	f.s.Flush()
	calls := f.fake.CallsFor("status")
	test.AssertEquals(t, len(calls), 1)
	test.AssertEquals(t, calls[0].Status, domain.Stage("applied"))
	test.AssertEquals(t, *calls[0].Position, 0)
	test.AssertEquals(t, len(f.fake.CallsFor("fields")), 0)
}

func TestEditUnknownJob(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, err := f.s.EditJob(context.Background(), "ghost", domain.JobPatch{Status: stage("applied")})
	var nf *domain.NotFoundError
	test.Assert(t, errors.As(err, &nf), "expected not found")
}

func TestMoveWithinColumn(t *testing.T) {
	t.Parallel()
	f := newFixture(t, seedJob("a", "applied"), seedJob("b", "applied"), seedJob("c", "applied"))
	test.AssertNotError(t, f.s.MoveJob(context.Background(), "a", "applied", "applied", 0, 2), "move")
	test.AssertDeepEquals(t, f.s.Column("applied"), []string{"b", "c", "a"})
	j, _ := f.s.Job("a")
	test.AssertEquals(t, len(j.History), 1)

	f.s.Flush()
	calls := f.fake.CallsFor("status")
	test.AssertEquals(t, len(calls), 1)
	test.AssertEquals(t, *calls[0].Position, 2)
}

func TestMoveAcrossColumnsIsStatusChange(t *testing.T) {
	t.Parallel()
	f := newFixture(t, seedJob("a", "applied"), seedJob("b", "hr_interview"))
	f.clk.Advance(time.Hour)
	test.AssertNotError(t, f.s.MoveJob(context.Background(), "a", "applied", "hr_interview", 0, 1), "move")
	test.AssertDeepEquals(t, f.s.Column("hr_interview"), []string{"b", "a"})
	j, _ := f.s.Job("a")
	test.AssertEquals(t, j.Status, domain.Stage("hr_interview"))
	test.AssertEquals(t, len(j.History), 2)
	test.Assert(t, j.StatusChangedAt.Equal(t0.Add(time.Hour)), "statusChangedAt should be the move time")
	test.AssertNotError(t, f.s.Check(), "invariants")
}

func TestMoveRejectsWrongSourceStage(t *testing.T) {
	t.Parallel()
	f := newFixture(t, seedJob("a", "applied"))
	err := f.s.MoveJob(context.Background(), "a", "wishlist", "offered", 0, 0)
	var ve *domain.ValidationError
	test.Assert(t, errors.As(err, &ve), "expected validation error")
	err = f.s.MoveJob(context.Background(), "a", "applied", "archived", 0, 0)
	test.Assert(t, errors.As(err, &ve), "expected validation error for unknown stage")
	err = f.s.MoveJob(context.Background(), "ghost", "applied", "offered", 0, 0)
	var nf *domain.NotFoundError
	test.Assert(t, errors.As(err, &nf), "expected not found")
	test.AssertDeepEquals(t, f.s.Column("applied"), []string{"a"})
}

func TestNoopMoveMakesNoRemoteCall(t *testing.T) {
	t.Parallel()
	f := newFixture(t, seedJob("a", "applied"))
	test.AssertNotError(t, f.s.MoveJob(context.Background(), "a", "applied", "applied", 0, 0), "move")
	f.s.Flush()
	test.AssertEquals(t, len(f.fake.CallsFor("status")), 0)
}

func TestDeleteRemovesFromExactlyOneColumn(t *testing.T) {
	t.Parallel()
	f := newFixture(t, seedJob("a", "applied"), seedJob("b", "offered"))
	test.AssertNotError(t, f.s.DeleteJob(context.Background(), "a"), "delete")
	for _, st := range f.s.Stages().IDs() {
		for _, id := range f.s.Column(st) {
			test.Assert(t, id != "a", "deleted id still on board in "+string(st))
		}
	}
	test.AssertEquals(t, f.s.Len(), 1)
	f.s.Flush()
	test.AssertEquals(t, len(f.fake.Server()), 1)
	var nf *domain.NotFoundError
	test.Assert(t, errors.As(f.s.DeleteJob(context.Background(), "a"), &nf), "second delete should be not found")
}

func TestFailedDeleteIsReconciledByRefetch(t *testing.T) {
	t.Parallel()
	f := newFixture(t, seedJob("a", "applied"))
	f.fake.FailNext("delete", &gateway.NetworkError{Op: "delete", Status: 503})
	test.AssertNotError(t, f.s.DeleteJob(context.Background(), "a"), "delete is optimistic")
	test.AssertEquals(t, f.s.Len(), 0)

	f.s.Flush()
	test.AssertEquals(t, f.s.Len(), 1)
	test.AssertDeepEquals(t, f.s.Column("applied"), []string{"a"})
	test.AssertEquals(t, f.rec.count(events.SyncFailed), 1)
	test.AssertEquals(t, f.rec.count(events.StateReconciled), 2)
	test.AssertNotError(t, f.s.Check(), "invariants after reconcile")
}

func TestFailedCreateDropsOptimisticJob(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fake.FailNext("create", &gateway.NetworkError{Op: "create", Err: errors.New("connection reset")})
	notes := "x"
	j, err := f.s.AddJob(context.Background(), domain.JobInput{Company: "Acme"})
	test.AssertNotError(t, err, "add")
	_, _ = f.s.EditJob(context.Background(), j.ID, domain.JobPatch{Notes: &notes})

	f.s.Flush()
	test.AssertEquals(t, f.s.Len(), 0)
	test.AssertEquals(t, len(f.fake.CallsFor("fields")), 0)
	test.AssertNotError(t, f.s.Check(), "invariants")
}

func TestAuthErrorIsHandedToCollaborator(t *testing.T) {
	t.Parallel()
	f := newFixture(t, seedJob("a", "applied"))
	f.fake.FailNext("status", &gateway.AuthError{Status: 401, Message: "jwt expired"})
	test.AssertNotError(t, f.s.MoveJob(context.Background(), "a", "applied", "offered", 0, 0), "move")
	f.s.Flush()
	test.AssertEquals(t, f.auths, 1)
	j, _ := f.s.Job("a")
	test.AssertEquals(t, j.Status, domain.Stage("applied"))
}

func TestEditWhilePendingCreateTargetsServerID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	release := f.fake.Hold("create")
	j, err := f.s.AddJob(context.Background(), domain.JobInput{Company: "Acme"})
	test.AssertNotError(t, err, "add")
	notes := "recruiter: Dana"
	_, err = f.s.EditJob(context.Background(), j.ID, domain.JobPatch{Notes: &notes})
	test.AssertNotError(t, err, "edit")
	release()
	f.s.Flush()

	calls := f.fake.CallsFor("fields")
	test.AssertEquals(t, len(calls), 1)
	test.AssertEquals(t, calls[0].ID, "srv_1")
	got, err := f.s.Job("srv_1")
	test.AssertNotError(t, err, "server id")
	test.AssertEquals(t, got.Notes, notes)
}

func TestLastRefetchWins(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	newer := []domain.Job{seedJob("new", "offered")}
	older := []domain.Job{seedJob("old", "wishlist")}
	test.Assert(t, f.s.replace(2, newer), "newer snapshot should apply")
	test.Assert(t, !f.s.replace(1, older), "older snapshot should be discarded")
	_, err := f.s.Job("new")
	test.AssertNotError(t, err, "newer state kept")
	test.Assert(t, !f.s.Restore(Snapshot{Jobs: older}), "restore after refetch should be ignored")
}

func TestRefetchRepairsAndSkips(t *testing.T) {
	t.Parallel()
	broken := seedJob("broken", "applied")
	broken.History = nil
	unknown := seedJob("archived", "applied")
	unknown.Status = "archived"
	f := newFixture(t, broken, unknown, seedJob("ok", "offered"))
	test.AssertEquals(t, f.s.Len(), 2)
	j, err := f.s.Job("broken")
	test.AssertNotError(t, err, "repaired job")
	test.AssertEquals(t, len(j.History), 1)
	test.AssertNotError(t, f.s.Check(), "invariants")
}

func TestRefetchFailureLeavesStateConsistent(t *testing.T) {
	t.Parallel()
	f := newFixture(t, seedJob("a", "applied"))
	f.fake.FailNext("list", &gateway.NetworkError{Op: "list", Status: 502})
	test.AssertError(t, f.s.Refetch(context.Background()), "refetch")
	test.AssertEquals(t, f.s.Len(), 1)
	test.AssertNotError(t, f.s.Check(), "invariants")
}

func TestRestoreUsesSavedColumnOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	snap := Snapshot{
		Jobs: []domain.Job{seedJob("a", "applied"), seedJob("b", "applied"), seedJob("c", "offered")},
		Columns: map[domain.Stage][]string{
			"applied": {"b", "a"},
		},
	}
	test.Assert(t, f.s.Restore(snap), "restore")
	test.AssertDeepEquals(t, f.s.Column("applied"), []string{"b", "a"})
	test.AssertDeepEquals(t, f.s.Column("offered"), []string{"c"})
	test.AssertNotError(t, f.s.Check(), "invariants")
}

func TestCloseRejectsMutations(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	test.AssertNotError(t, f.s.Close(), "close")
	_, err := f.s.AddJob(context.Background(), domain.JobInput{Company: "Acme"})
	test.Assert(t, errors.Is(err, ErrClosed), "expected ErrClosed")
}

func TestEditClearsDateAppliedAndFit(t *testing.T) {
	t.Parallel()
	seed := seedJob("a", "applied")
	fit := 80
	seed.JobFitPercentage = &fit
	f := newFixture(t, seed)

	before, _ := f.s.Job("a")
	test.Assert(t, before.DateApplied != nil, "seed should carry a date applied")

	got, err := f.s.EditJob(context.Background(), "a", domain.JobPatch{
		DateApplied:      domain.Null[time.Time](),
		JobFitPercentage: domain.Null[int](),
	})
	test.AssertNotError(t, err, "edit")
	test.Assert(t, got.DateApplied == nil, "date applied should be cleared")
	test.Assert(t, got.JobFitPercentage == nil, "fit should be cleared")

	f.s.Flush()
	test.AssertEquals(t, len(f.fake.CallsFor("fields")), 1)
	srv := f.fake.Server()[0]
	test.Assert(t, srv.DateApplied == nil, "server date applied should be cleared")
	test.Assert(t, srv.JobFitPercentage == nil, "server fit should be cleared")
}

func TestFailedStatusEditSkipsFieldsAndReconciles(t *testing.T) {
	t.Parallel()
	f := newFixture(t, seedJob("a", "applied"))
	f.fake.FailNext("status", &gateway.NetworkError{Op: "status", Status: 503})
	notes := "offer call friday"
	got, err := f.s.EditJob(context.Background(), "a", domain.JobPatch{Status: stage("offered"), Notes: &notes})
	test.AssertNotError(t, err, "edit is optimistic")
	test.AssertEquals(t, got.Status, domain.Stage("offered"))

	f.s.Flush()
	test.AssertEquals(t, len(f.fake.CallsFor("fields")), 0)
	j, err := f.s.Job("a")
	test.AssertNotError(t, err, "job")
	test.AssertEquals(t, j.Status, domain.Stage("applied"))
	test.AssertEquals(t, len(j.History), 1)
	test.AssertEquals(t, j.Notes, "")
	test.AssertDeepEquals(t, f.s.Column("applied"), []string{"a"})
	test.AssertEquals(t, len(f.s.Column("offered")), 0)
	test.AssertEquals(t, f.rec.count(events.SyncFailed), 1)
	test.AssertNotError(t, f.s.Check(), "invariants after reconcile")
}

func TestFailedFieldsEditReconcilesToServer(t *testing.T) {
	t.Parallel()
	f := newFixture(t, seedJob("a", "applied"))
	f.fake.FailNext("fields", &gateway.NetworkError{Op: "fields", Status: 500})
	notes := "offer call friday"
	_, err := f.s.EditJob(context.Background(), "a", domain.JobPatch{Status: stage("offered"), Notes: &notes})
	test.AssertNotError(t, err, "edit is optimistic")

	f.s.Flush()
	test.AssertEquals(t, len(f.fake.CallsFor("status")), 1)
	test.AssertEquals(t, len(f.fake.CallsFor("fields")), 1)
	j, err := f.s.Job("a")
	test.AssertNotError(t, err, "job")
	srv := f.fake.Server()
	test.AssertEquals(t, len(srv), 1)
	test.AssertDeepEquals(t, j, srv[0])
	test.AssertEquals(t, j.Status, domain.Stage("offered"))
	test.AssertEquals(t, j.Notes, "")
	test.AssertDeepEquals(t, f.s.Column("offered"), []string{"a"})
	test.AssertEquals(t, f.rec.count(events.SyncFailed), 1)
	test.AssertNotError(t, f.s.Check(), "invariants after reconcile")
}

func TestNotFoundReportsCallerID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	j, err := f.s.AddJob(context.Background(), domain.JobInput{Company: "Acme"})
	test.AssertNotError(t, err, "add")
	f.s.Flush()
	test.AssertNotError(t, f.s.DeleteJob(context.Background(), "srv_1"), "delete")
	f.s.Flush()

	notes := "x"
	var nf *domain.NotFoundError
	_, err = f.s.EditJob(context.Background(), j.ID, domain.JobPatch{Notes: &notes})
	test.Assert(t, errors.As(err, &nf), "edit should be not found")
	test.AssertEquals(t, nf.ID, j.ID)
	err = f.s.MoveJob(context.Background(), j.ID, "wishlist", "applied", 0, 0)
	test.Assert(t, errors.As(err, &nf), "move should be not found")
	test.AssertEquals(t, nf.ID, j.ID)
	err = f.s.DeleteJob(context.Background(), j.ID)
	test.Assert(t, errors.As(err, &nf), "delete should be not found")
	test.AssertEquals(t, nf.ID, j.ID)
}
