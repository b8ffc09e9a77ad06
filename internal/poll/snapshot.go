package poll

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"jobboard-engine/internal/scheduler"
	"jobboard-engine/internal/store"
	"jobboard-engine/internal/tracker"
)

// Snapshotter is the part of the tracker the snapshot writer reads.
type Snapshotter interface {
	Version() uint64
	Snapshot() tracker.Snapshot
}

// SnapshotWriter persists the board to the local store whenever its
// version has moved since the last write.
type SnapshotWriter struct {
	db  *sql.DB
	src Snapshotter

	mu    sync.Mutex
	saved uint64
	wrote bool
}

func NewSnapshotWriter(db *sql.DB, src Snapshotter) *SnapshotWriter {
	return &SnapshotWriter{db: db, src: src}
}

// SaveOnce writes a snapshot if anything changed. It reports whether a
// write happened.
func (w *SnapshotWriter) SaveOnce(ctx context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := w.src.Version()
	if w.wrote && v == w.saved {
		return false, nil
	}
	snap := w.src.Snapshot()
	if err := store.SaveSnapshot(ctx, w.db, snap); err != nil {
		return false, err
	}
	w.saved, w.wrote = v, true
	log.Printf("[snapshot] saved jobs=%d version=%d", len(snap.Jobs), v)
	return true, nil
}

func (w *SnapshotWriter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	scheduler.Every(ctx, interval, "snapshot", func(ctx context.Context) error {
		_, err := w.SaveOnce(ctx)
		return err
	})
}
