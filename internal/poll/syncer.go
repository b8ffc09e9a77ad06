// Package poll keeps the tracker in step with the remote store and the
// local snapshot on a schedule.
package poll

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"jobboard-engine/internal/scheduler"
)

// Refetcher is the part of the tracker the syncer drives.
type Refetcher interface {
	Refetch(ctx context.Context) error
	Len() int
}

type SyncStatus struct {
	LastRunAt string `json:"last_run_at,omitempty"`
	LastOkAt  string `json:"last_ok_at,omitempty"`
	LastError string `json:"last_error,omitempty"`
	Running   bool   `json:"running"`
	Jobs      int    `json:"jobs"`
}

type Syncer struct {
	src     Refetcher
	timeout time.Duration
	now     func() time.Time

	busy   atomic.Bool
	status atomic.Value // SyncStatus
}

func NewSyncer(src Refetcher, timeout time.Duration) *Syncer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &Syncer{src: src, timeout: timeout, now: time.Now}
	s.status.Store(SyncStatus{})
	return s
}

func (s *Syncer) Status() SyncStatus {
	return s.status.Load().(SyncStatus)
}

// SyncOnce refetches authoritative state. A call while another sync is
// in flight returns immediately without error.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	if !s.busy.CompareAndSwap(false, true) {
		log.Printf("[sync] skipped: already running")
		return nil
	}
	defer s.busy.Store(false)

	st := s.Status()
	st.Running = true
	st.LastRunAt = s.now().UTC().Format(time.RFC3339)
	s.status.Store(st)

	fctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.src.Refetch(fctx)

	st.Running = false
	st.Jobs = s.src.Len()
	if err != nil {
		st.LastError = err.Error()
	} else {
		st.LastError = ""
		st.LastOkAt = s.now().UTC().Format(time.RFC3339)
		log.Printf("[sync] ok jobs=%d", st.Jobs)
	}
	s.status.Store(st)
	return err
}

// Run syncs immediately and then every interval until ctx is done.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	scheduler.Every(ctx, interval, "sync", s.SyncOnce)
}
