package poll

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"jobboard-engine/internal/domain"
	"jobboard-engine/internal/gateway/gatewaytest"
	"jobboard-engine/internal/store"
	"jobboard-engine/internal/test"
	"jobboard-engine/internal/tracker"
)

type fakeRefetcher struct {
	err   error
	n     int
	calls int
}

func (f *fakeRefetcher) Refetch(context.Context) error { f.calls++; return f.err }
func (f *fakeRefetcher) Len() int                      { return f.n }

func TestSyncOnceRecordsStatus(t *testing.T) {
	t.Parallel()

	src := &fakeRefetcher{n: 3}
	s := NewSyncer(src, time.Second)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }

	test.AssertNotError(t, s.SyncOnce(context.Background()), "sync")
	st := s.Status()
	test.AssertEquals(t, st.Jobs, 3)
	test.AssertEquals(t, st.LastOkAt, "2026-03-02T09:00:00Z")
	test.AssertEquals(t, st.LastError, "")
	test.Assert(t, !st.Running, "not running after return")

	src.err = errors.New("remote down")
	test.AssertError(t, s.SyncOnce(context.Background()), "sync failure surfaces")
	st = s.Status()
	test.AssertEquals(t, st.LastError, "remote down")
	test.AssertEquals(t, st.LastOkAt, "2026-03-02T09:00:00Z")
	test.AssertEquals(t, src.calls, 2)
}

func TestSyncOnceSkipsWhileBusy(t *testing.T) {
	t.Parallel()

	src := &fakeRefetcher{}
	s := NewSyncer(src, time.Second)
	s.busy.Store(true)
	test.AssertNotError(t, s.SyncOnce(context.Background()), "busy sync")
	test.AssertEquals(t, src.calls, 0)
}

func TestSnapshotWriterSavesOnlyOnChange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := store.Open(filepath.Join(t.TempDir(), "jobboard.db"))
	test.AssertNotError(t, err, "open store")
	defer db.Close()

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	gw := gatewaytest.New(domain.NewJob("srv_a", domain.JobInput{Company: "Acme", Status: "applied"}, at))
	tr := tracker.New(gw, tracker.Options{})
	defer tr.Close()
	test.AssertNotError(t, tr.Load(ctx), "load")

	w := NewSnapshotWriter(db.Pool, tr)
	wrote, err := w.SaveOnce(ctx)
	test.AssertNotError(t, err, "first save")
	test.Assert(t, wrote, "first save writes")

	wrote, err = w.SaveOnce(ctx)
	test.AssertNotError(t, err, "second save")
	test.Assert(t, !wrote, "unchanged board is not rewritten")

	_, err = tr.AddJob(ctx, domain.JobInput{Company: "Beta", Status: "applied"})
	test.AssertNotError(t, err, "add")
	tr.Flush()
	wrote, err = w.SaveOnce(ctx)
	test.AssertNotError(t, err, "third save")
	test.Assert(t, wrote, "changed board is written")

	snap, ok, err := store.LoadSnapshot(ctx, db.Pool)
	test.AssertNotError(t, err, "load snapshot")
	test.Assert(t, ok, "snapshot present")
	test.AssertEquals(t, len(snap.Jobs), 2)
	test.AssertEquals(t, len(snap.Columns["applied"]), 2)
}
