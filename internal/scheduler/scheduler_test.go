package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"jobboard-engine/internal/test"
)

func TestEveryRunsImmediatelyAndOnTick(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var n atomic.Int32
	done := make(chan struct{})
	go func() {
		Every(ctx, 5*time.Millisecond, "test", func(context.Context) error {
			if n.Add(1) == 3 {
				cancel()
			}
			return errors.New("logged, not fatal")
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Every did not stop after cancel")
	}
	test.Assert(t, n.Load() >= 3, "task ran at least three times")
}

func TestEveryWithoutIntervalRunsOnce(t *testing.T) {
	t.Parallel()

	var n atomic.Int32
	Every(context.Background(), 0, "once", func(context.Context) error {
		n.Add(1)
		return nil
	})
	test.AssertEquals(t, n.Load(), int32(1))
}
