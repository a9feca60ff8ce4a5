// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs such as event log
// retention.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds a single job run.
const jobTimeout = 5 * time.Minute

// JobFunc is the work of a scheduled job.
type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	schedule string
	run      JobFunc
}

// Scheduler runs registered jobs on cron schedules. A job never overlaps
// with itself.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu   sync.Mutex
	jobs map[string]job
}

// New creates a scheduler.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
		jobs:   make(map[string]job),
	}
}

// Add registers fn under name. schedule is a standard five-field cron
// expression or a descriptor such as "@daily".
func (s *Scheduler) Add(name, schedule string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	j := job{name: name, schedule: schedule, run: fn}
	if _, err := s.cron.AddFunc(schedule, func() { _ = s.execute(context.Background(), j) }); err != nil {
		return fmt.Errorf("scheduling %q: %w", name, err)
	}
	s.jobs[name] = j
	return nil
}

// RunNow runs the named job immediately in the caller's goroutine.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return s.execute(ctx, j)
}

func (s *Scheduler) execute(ctx context.Context, j job) error {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	if err := j.run(ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", j.name, "error", err)
		return err
	}
	s.logger.Debug("scheduled job finished", "job", j.name, "duration", time.Since(start))
	return nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}
