package reconciler

import (
	"context"
	"time"

	"github.com/omar-ramo/yawm/internal/config"
	"github.com/omar-ramo/yawm/internal/repository"
	"github.com/omar-ramo/yawm/internal/store"
	pkglog "github.com/omar-ramo/yawm/pkg/log"
)

// Reconciler periodically recomputes the counters of rows marked dirty, so
// drift from lost or duplicated relative updates does not persist.
type Reconciler struct {
	store  store.CounterStore
	repo   repository.EngagementRepository
	cfg    config.ReconcilerConfig
	quit   chan struct{}
	doneCh chan struct{}
}

// New creates a new Reconciler.
func New(store store.CounterStore, repo repository.EngagementRepository, cfg config.ReconcilerConfig) *Reconciler {
	return &Reconciler{
		store:  store,
		repo:   repo,
		cfg:    cfg,
		quit:   make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start launches the reconciler in a background goroutine.
func (r *Reconciler) Start(ctx context.Context) {
	go r.run(ctx)
}

// Stop signals the reconciler to stop and returns immediately.
// Call Done() to wait for it to exit.
func (r *Reconciler) Stop() {
	close(r.quit)
}

// Done returns a channel that is closed when the reconciler has fully stopped.
func (r *Reconciler) Done() <-chan struct{} {
	return r.doneCh
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.doneCh)

	interval := r.cfg.Interval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reconcile(ctx)
		}
	}
}

// Reconcile runs one pass over both kinds and returns the number of rows recounted.
func (r *Reconciler) Reconcile(ctx context.Context) int64 {
	diaries := r.reconcileKind(ctx, store.KindDiary, r.repo.RecountDiaries)
	comments := r.reconcileKind(ctx, store.KindComment, r.repo.RecountComments)
	return diaries + comments
}

func (r *Reconciler) reconcileKind(ctx context.Context, kind store.Kind, recount func(context.Context, []string) (int64, error)) int64 {
	l := pkglog.L()

	batch := int64(r.cfg.BatchSize)
	if batch <= 0 {
		batch = 200
	}

	var total int64
	for {
		ids, err := r.store.PopDirty(ctx, kind, batch)
		if err != nil {
			l.Error().Err(err).Str("kind", string(kind)).Msg("reconciler: failed to pop dirty ids")
			return total
		}
		if len(ids) == 0 {
			break
		}

		n, err := recount(ctx, ids)
		if err != nil {
			l.Error().Err(err).Str("kind", string(kind)).Int("count", len(ids)).Msg("reconciler: recount failed, requeueing")
			if err := r.store.MarkDirty(ctx, kind, ids...); err != nil {
				l.Error().Err(err).Str("kind", string(kind)).Msg("reconciler: failed to requeue dirty ids")
			}
			return total
		}
		total += n

		if int64(len(ids)) < batch {
			break
		}
	}

	if total > 0 {
		l.Info().Str("kind", string(kind)).Int64("count", total).Msg("reconciler: counters recomputed")
	}
	return total
}
