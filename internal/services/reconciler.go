// Package services – Reconciler
//
// This file implements the draft reconciliation engine: a single recurring
// background task that scans the volatile store for editing sessions whose
// heartbeat has aged past the staleness threshold and flushes their pending
// drafts into the durable store through the shared Flush routine.
//
// The engine is owned by the service process with an explicit start/stop
// lifecycle; it keeps no state between ticks beyond the volatile store
// itself. Ticks are serialized with themselves: a tick runs to completion
// before the next is scheduled, so the same session is never double-flushed
// by overlapping scans.
package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/draftstore"
)

var (
	reconcilerTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconciler_ticks_total",
		Help: "Total number of reconciliation scans executed.",
	})
	reconcilerFlushes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciler_flushes_total",
		Help: "Stale draft flush attempts by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(reconcilerTicks, reconcilerFlushes)
}

// DraftFlusher commits one transient draft payload into the durable store.
// It is implemented by EditorService.Flush so the engine and the explicit
// stop path share one commit routine.
type DraftFlusher interface {
	Flush(ctx context.Context, userID, articleID string, p draftstore.Payload) (*domain.Article, error)
}

// Reconciler periodically flushes stale editing sessions. The staleness
// threshold must be strictly larger than the client heartbeat period plus
// one scan interval: a false positive only costs an unnecessary partial
// save, a false negative only delays reconciliation within the TTL window.
type Reconciler struct {
	Drafts  *draftstore.Store
	Flusher DraftFlusher

	Interval   time.Duration // time between scans
	StaleAfter time.Duration // heartbeat age that marks a session stale
	OpTimeout  time.Duration // bound on each per-key store operation
	Log        zerolog.Logger

	// now is the staleness clock; injectable for tests.
	now func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

// NewReconciler constructs a Reconciler. Call Start to begin scanning.
func NewReconciler(d *draftstore.Store, f DraftFlusher, interval, staleAfter, opTimeout time.Duration, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		Drafts:     d,
		Flusher:    f,
		Interval:   interval,
		StaleAfter: staleAfter,
		OpTimeout:  opTimeout,
		Log:        log,
		now:        time.Now,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the background scan loop. Calling Start more than once is
// a no-op.
func (r *Reconciler) Start() {
	r.startOnce.Do(func() {
		r.Log.Info().
			Dur("interval", r.Interval).
			Dur("stale_after", r.StaleAfter).
			Msg("draft reconciler started")
		r.started.Store(true)
		go r.run()
	})
}

// Stop prevents further ticks and waits for any in-flight tick to complete.
// An in-flight per-user flush loop is allowed to finish rather than abort
// mid-flush: a partial flush of one user's draft keys beats none. Stopping a
// reconciler that was never started returns immediately.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	if !r.started.Load() {
		return
	}
	<-r.done
	r.Log.Info().Msg("draft reconciler stopped")
}

func (r *Reconciler) run() {
	defer close(r.done)
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			// Tick runs synchronously in this loop; the next tick is not
			// scheduled until this one returns.
			r.Tick(context.Background())
		}
	}
}

// Tick performs one reconciliation scan: enumerate heartbeats, mark sessions
// whose heartbeat aged past the threshold, and flush every stale user's
// draft keys. Failures on one key are logged and never abort the rest of
// the scan.
func (r *Reconciler) Tick(ctx context.Context) {
	reconcilerTicks.Inc()

	scanCtx, cancel := context.WithTimeout(ctx, r.OpTimeout)
	hbs, err := r.Drafts.Heartbeats(scanCtx)
	cancel()
	if err != nil {
		r.Log.Error().Err(err).Msg("heartbeat scan failed")
		return
	}

	now := r.now()
	for _, hb := range hbs {
		silence := now.Sub(hb.At)
		if silence <= r.StaleAfter {
			continue
		}
		r.Log.Info().
			Str("user_id", hb.UserID).
			Dur("silence", silence).
			Msg("editing session stale, flushing drafts")
		r.flushUser(ctx, hb.UserID)
	}
}

// flushUser flushes every pending draft key in the user's namespace, then
// deletes the heartbeat. A flush failure (article deleted concurrently,
// ownership mismatch) is logged and the key is still cleared; a missing
// target is not retried indefinitely. Store read failures leave the key in
// place, and while any key remains the heartbeat is kept too so the next
// tick rescans this user.
func (r *Reconciler) flushUser(ctx context.Context, userID string) {
	listCtx, cancel := context.WithTimeout(ctx, r.OpTimeout)
	articleIDs, err := r.Drafts.DraftArticleIDs(listCtx, userID)
	cancel()
	if err != nil {
		// Keep the heartbeat so the next tick retries the whole user.
		r.Log.Error().Err(err).Str("user_id", userID).Msg("draft key scan failed")
		return
	}

	pending := false
	for _, articleID := range articleIDs {
		opCtx, cancel := context.WithTimeout(ctx, r.OpTimeout)
		if !r.flushOne(opCtx, userID, articleID) {
			pending = true
		}
		cancel()
	}
	if pending {
		r.Log.Warn().Str("user_id", userID).Msg("draft keys pending, keeping heartbeat for retry")
		return
	}

	delCtx, cancel := context.WithTimeout(ctx, r.OpTimeout)
	defer cancel()
	if err := r.Drafts.DeleteHeartbeat(delCtx, userID); err != nil {
		r.Log.Error().Err(err).Str("user_id", userID).Msg("heartbeat delete failed")
	}
}

// flushOne reports whether the draft key was removed; a retained key means
// the owner must stay scheduled for another pass.
func (r *Reconciler) flushOne(ctx context.Context, userID, articleID string) bool {
	p, ok, err := r.Drafts.GetDraft(ctx, userID, articleID)
	if err != nil {
		reconcilerFlushes.WithLabelValues("store_error").Inc()
		r.Log.Error().Err(err).
			Str("user_id", userID).
			Str("article_id", articleID).
			Msg("draft read failed, leaving key for next tick")
		return false
	}

	if ok {
		if _, err := r.Flusher.Flush(ctx, userID, articleID, p); err != nil {
			reconcilerFlushes.WithLabelValues("flush_error").Inc()
			r.Log.Warn().Err(err).
				Str("user_id", userID).
				Str("article_id", articleID).
				Msg("draft flush failed, clearing key anyway")
		} else {
			reconcilerFlushes.WithLabelValues("ok").Inc()
			r.Log.Info().
				Str("user_id", userID).
				Str("article_id", articleID).
				Msg("stale draft flushed")
		}
	}

	if err := r.Drafts.ClearDraft(ctx, userID, articleID); err != nil {
		r.Log.Error().Err(err).
			Str("user_id", userID).
			Str("article_id", articleID).
			Msg("draft key delete failed")
		return false
	}
	return true
}
