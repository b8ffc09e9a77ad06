package scheduler

import (
	"context"
	"log"
	"time"
)

type Task func(ctx context.Context) error

// Every runs task once immediately and then on each tick until ctx is
// done. Runs never overlap. A non-positive interval runs the task once.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	run := func() {
		if err := task(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[%s] error: %v", name, err)
		}
	}

	run()
	if interval <= 0 {
		log.Printf("[%s] periodic runs disabled", name)
		return
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
