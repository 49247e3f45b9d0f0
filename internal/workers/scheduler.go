package workers

import (
	"context"
	"sync"
	"time"

	"pulsedesk/internal/metrics"
	"pulsedesk/pkg/errors"
	"pulsedesk/pkg/logger"
)

// Scheduler manages and coordinates multiple workers
type Scheduler struct {
	workers  []Worker
	schedule Schedule
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
	log      *logger.Logger
	started  bool
}

// NewScheduler creates a new worker scheduler
func NewScheduler(schedule Schedule) *Scheduler {
	return &Scheduler{
		workers:  make([]Worker, 0),
		schedule: schedule,
		log:      logger.Get(),
		started:  false,
	}
}

// RegisterWorker adds a worker to the scheduler
func (s *Scheduler) RegisterWorker(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.log.Warn("Cannot register worker after scheduler has started", "worker", w.Name())
		return
	}

	s.workers = append(s.workers, w)
	s.log.Info("Worker registered", "worker", w.Name(), "interval", w.Interval())
}

// Start begins running all registered workers
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler already started")
	}

	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.log.Info("Starting worker scheduler",
		"workers", len(s.workers),
		"windowed", s.schedule.Windowed(),
	)

	for _, worker := range s.workers {
		if !worker.Enabled() {
			s.log.Info("Skipping disabled worker", "worker", worker.Name())
			continue
		}

		s.wg.Add(1)
		go s.runWorker(worker)
	}

	s.log.Info("All workers started")
	return nil
}

// Stop gracefully shuts down all workers
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler not started")
	}

	s.cancel()
	s.mu.Unlock()

	s.log.Info("Stopping worker scheduler...")

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var shutdownErr error
	select {
	case <-done:
		s.log.Info("All workers stopped gracefully")
	case <-time.After(30 * time.Second):
		s.log.Warn("Worker shutdown timed out after 30 seconds")
		shutdownErr = errors.Wrapf(errors.ErrInternal, "shutdown timeout after 30 seconds")
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	return shutdownErr
}

// runWorker executes a single worker in a loop, honoring the daily
// work window when one is configured. Each cycle rests until the
// window opens, waits the settle delay, runs once immediately and then
// ticks at the worker's interval until the window closes.
func (s *Scheduler) runWorker(worker Worker) {
	defer s.wg.Done()

	s.log.Info("Worker started", "worker", worker.Name())

	for {
		if rest := s.schedule.Rest(time.Now()); rest > 0 {
			s.log.Info("Worker resting until work window opens",
				"worker", worker.Name(),
				"rest", rest,
			)
			if !s.sleep(rest) {
				return
			}
		}

		if !s.sleep(s.schedule.PreWorkWait) {
			return
		}

		s.executeWorker(worker)

		interval := worker.Interval()
		if interval <= 0 {
			interval = time.Minute
		}
		ticker := time.NewTicker(interval)
		for stop := false; !stop; {
			select {
			case <-s.ctx.Done():
				ticker.Stop()
				s.log.Info("Worker stopping due to context cancellation", "worker", worker.Name())
				return

			case <-ticker.C:
				if s.schedule.Rest(time.Now()) > 0 {
					// Window closed, back to resting.
					stop = true
					break
				}
				s.executeWorker(worker)
			}
		}
		ticker.Stop()
	}
}

// sleep blocks for d or until the scheduler context is cancelled. It
// returns false on cancellation.
func (s *Scheduler) sleep(d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-s.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// executeWorker runs a single iteration of the worker with error handling
func (s *Scheduler) executeWorker(worker Worker) {
	start := time.Now()

	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Worker panicked",
				"worker", worker.Name(),
				"panic", r,
			)
		}
	}()

	err := worker.Run(s.ctx)
	duration := time.Since(start)

	metrics.RecordWorkerExecution(worker.Name(), duration, err)
	if rec, ok := worker.(healthRecorder); ok {
		if err != nil {
			rec.RecordError(err)
		} else {
			rec.RecordRun()
		}
	}

	if err != nil {
		s.log.Error("Worker execution failed",
			"worker", worker.Name(),
			"error", err,
			"duration", duration,
		)
	} else {
		s.log.Debug("Worker execution completed",
			"worker", worker.Name(),
			"duration", duration,
		)
	}
}

// GetWorkers returns a list of all registered workers
func (s *Scheduler) GetWorkers() []Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workers := make([]Worker, len(s.workers))
	copy(workers, s.workers)
	return workers
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
