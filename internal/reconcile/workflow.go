package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/ports"
	"github.com/asgdns/reconciler/pkg/metrics"
)

// Workflow is the Scaling-Group Lifecycle Workflow: it runs the probe
// stages unlocked, then acquires the per-SG lock before load_metadata
// through apply_dns, always releasing on every exit path. Grounded on
// workflows/scaling_group_lifecycle/sgl_workflow.py's acquire/handle/finally
// shape.
type Workflow struct {
	locks   ports.LockStore
	preLock *Pipeline
	locked  *Pipeline
	logger  *slog.Logger
	metrics *metrics.ReconcilerMetrics
}

// NewWorkflow wires the two pipeline halves around the per-SG lock.
func NewWorkflow(locks ports.LockStore, preLock, locked *Pipeline, logger *slog.Logger, sink *metrics.ReconcilerMetrics) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{locks: locks, preLock: preLock, locked: locked, logger: logger, metrics: sink}
}

func lockKey(sgName string) string {
	return "lock:" + sgName
}

// Run executes the full pipeline for one event: unlocked stages, lock
// acquisition, locked stages, and an unconditional release.
func (w *Workflow) Run(ctx context.Context, event domain.LifecycleEvent) (*domain.ScalingGroupLifecycleContext, error) {
	start := time.Now()
	sg := &domain.ScalingGroupLifecycleContext{Event: event}

	if stage, err := w.preLock.Run(ctx, sg); err != nil {
		w.recordAbort(stage, err)
		return sg, err
	}

	key := lockKey(event.ScalingGroupName)
	acquired, err := w.acquireWithBackoff(ctx, key)
	if err != nil {
		w.recordAbort("lock", err)
		return sg, err
	}
	if !acquired {
		err := fmt.Errorf("%w: could not acquire %s", domain.ErrLockUnavailable, key)
		w.recordAbort("lock", err)
		return sg, err
	}

	defer func() {
		if releaseErr := w.locks.Release(ctx, key); releaseErr != nil {
			w.logger.Error("releasing lock failed", "key", key, "error", releaseErr)
		}
		if w.metrics != nil {
			w.metrics.LockHeldSeconds.Observe(time.Since(start).Seconds())
		}
	}()

	if stage, err := w.locked.Run(ctx, sg); err != nil {
		w.recordAbort(stage, err)
		return sg, err
	}

	if w.metrics != nil {
		w.metrics.PipelineDurationSeconds.WithLabelValues(string(event.Transition), "success").Observe(time.Since(start).Seconds())
	}
	return sg, nil
}

// errLockHeld is the transient per-attempt error driving the backoff loop;
// it never escapes acquireWithBackoff.
var errLockHeld = errors.New("lock held by another process")

// acquireWithBackoff retries lock acquisition with exponential backoff
// bounded to roughly one minute total, per §4.9. Uses cenkalti/backoff's
// exponential policy rather than a hand-rolled loop so the retry/jitter
// behavior matches the rest of the pack's convention.
func (w *Workflow) acquireWithBackoff(ctx context.Context, key string) (bool, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 60 * time.Second
	bctx := backoff.WithContext(bo, ctx)

	operation := func() error {
		ok, err := w.locks.Acquire(ctx, key)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", domain.ErrAdapter, err))
		}
		if !ok {
			return errLockHeld
		}
		return nil
	}

	err := backoff.Retry(operation, bctx)
	switch {
	case err == nil:
		if w.metrics != nil {
			w.metrics.LocksAcquiredTotal.WithLabelValues("acquired").Inc()
		}
		return true, nil
	case errors.Is(err, errLockHeld):
		// MaxElapsedTime exhausted without the context ending: the lock
		// was simply unavailable for the whole budget, not an error.
		if w.metrics != nil {
			w.metrics.LocksAcquiredTotal.WithLabelValues("unavailable").Inc()
		}
		return false, nil
	default:
		return false, err
	}
}

func (w *Workflow) recordAbort(stage string, err error) {
	w.logger.Error("pipeline aborted", "stage", stage, "error", err)
	if w.metrics != nil {
		w.metrics.PipelineAbortsTotal.WithLabelValues(stage, classifyDomainError(err)).Inc()
	}
}

func classifyDomainError(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domain.ErrConfig):
		return "config"
	case errors.Is(err, domain.ErrValueSource):
		return "value_source"
	case errors.Is(err, domain.ErrLockUnavailable):
		return "lock_unavailable"
	case errors.Is(err, domain.ErrAdapter):
		return "adapter"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrTransient):
		return "transient"
	default:
		return "unknown"
	}
}
