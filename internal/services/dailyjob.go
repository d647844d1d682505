// Package services – DailyJob
//
// This file implements the scheduled midnight article job: once per day at
// 00:00 UTC, one AI-generated article is published. Like the reconciler, the
// job is a single background task owned by the process with an explicit
// start/stop lifecycle.
package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DailyJob publishes one generated article every day at midnight UTC.
type DailyJob struct {
	Gen *Generator
	Log zerolog.Logger

	// now is injectable for tests.
	now func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

// NewDailyJob constructs a DailyJob. Call Start to begin scheduling.
func NewDailyJob(gen *Generator, log zerolog.Logger) *DailyJob {
	return &DailyJob{
		Gen:  gen,
		Log:  log,
		now:  time.Now,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start launches the scheduler loop. Calling Start more than once is a no-op.
func (j *DailyJob) Start() {
	j.startOnce.Do(func() {
		j.Log.Info().Time("next_run", j.nextMidnight()).Msg("daily article job started")
		j.started.Store(true)
		go j.run()
	})
}

// Stop prevents further runs and waits for an in-flight run to complete.
// Stopping a job that was never started returns immediately.
func (j *DailyJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
	if !j.started.Load() {
		return
	}
	<-j.done
}

func (j *DailyJob) run() {
	defer close(j.done)
	for {
		timer := time.NewTimer(time.Until(j.nextMidnight()))
		select {
		case <-j.stop:
			timer.Stop()
			return
		case <-timer.C:
			// Unattributed: the article belongs to the bot, not a user.
			if _, err := j.Gen.Generate(context.Background(), "", ""); err != nil {
				j.Log.Error().Err(err).Msg("midnight article generation failed")
			}
		}
	}
}

// nextMidnight returns the next 00:00 UTC strictly after now.
func (j *DailyJob) nextMidnight() time.Time {
	now := j.now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return next
}
