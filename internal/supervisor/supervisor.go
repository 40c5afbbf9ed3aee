// Package supervisor keeps a fixed pool of workers running. Each worker
// owns its own listener and store connection; a worker that exits for any
// reason is replaced until the supervisor's context is cancelled.
package supervisor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/swengineer/internal/logging"
)

// Launcher runs worker id until it exits or ctx is cancelled.
type Launcher func(ctx context.Context, id int) error

const defaultRestartDelay = 100 * time.Millisecond

type Supervisor struct {
	workers      int
	launch       Launcher
	log          logging.Logger
	restartDelay time.Duration
	restarts     atomic.Int64
}

func New(workers int, launch Launcher, log logging.Logger) *Supervisor {
	if workers < 1 {
		workers = 1
	}
	return &Supervisor{
		workers:      workers,
		launch:       launch,
		log:          log.With("module", "supervisor"),
		restartDelay: defaultRestartDelay,
	}
}

// Restarts is the number of workers replaced so far.
func (s *Supervisor) Restarts() int64 { return s.restarts.Load() }

// Run starts the pool and blocks until ctx is cancelled and every worker
// has returned.
func (s *Supervisor) Run(ctx context.Context) error {
	s.log.Info(ctx, "starting workers", "count", s.workers)

	var wg sync.WaitGroup
	for id := 1; id <= s.workers; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.keep(ctx, id)
		}(id)
	}
	wg.Wait()

	s.log.Info(ctx, "all workers stopped", "restarts", s.Restarts())
	return nil
}

func (s *Supervisor) keep(ctx context.Context, id int) {
	for {
		err := s.launch(ctx, id)
		if ctx.Err() != nil {
			return
		}

		s.restarts.Add(1)
		if err != nil {
			s.log.Error(ctx, "worker exited", "worker", id, "error", err)
		} else {
			s.log.Warn(ctx, "worker exited", "worker", id)
		}

		// a worker that dies on startup would otherwise spin
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.restartDelay):
		}
		s.log.Info(ctx, "restarting worker", "worker", id)
	}
}
