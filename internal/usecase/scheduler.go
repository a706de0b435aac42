package usecase

import (
	"context"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/ports"
)

// Scheduler wires the interval driver with recurring feed runs.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	feeds    []FeedRef
	opts     ImportOptions
}

// NewScheduler returns a helper to start/stop recurring feed imports.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, feeds []FeedRef, opts ImportOptions) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, feeds: feeds, opts: opts}
}

// Start registers the feed run with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func() {
		_, _ = s.pipeline.ProcessFeeds(ctx, s.feeds, s.opts)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
