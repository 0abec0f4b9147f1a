package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asgdns/reconciler/internal/core/domain"
)

type fakeLockStore struct {
	mu        sync.Mutex
	held      map[string]bool
	acquireOK bool
	acquires  int
	releases  int
}

func newFakeLockStore(acquireOK bool) *fakeLockStore {
	return &fakeLockStore{held: make(map[string]bool), acquireOK: acquireOK}
}

func (l *fakeLockStore) Acquire(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquires++
	if !l.acquireOK {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeLockStore) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releases++
	delete(l.held, key)
	return nil
}

func noopStage(ctx context.Context, sg *domain.ScalingGroupLifecycleContext) error { return nil }

func TestWorkflow_Run_Success(t *testing.T) {
	locks := newFakeLockStore(true)
	preLock := NewPipeline().Use("init", noopStage)
	locked := NewPipeline().Use("plan_dns", noopStage)

	wf := NewWorkflow(locks, preLock, locked, nil, nil)
	event := domain.LifecycleEvent{Transition: domain.TransitionLaunching, ScalingGroupName: "sg-1", InstanceID: "i-1"}

	sg, err := wf.Run(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, event, sg.Event)
	assert.Equal(t, 1, locks.acquires)
	assert.Equal(t, 1, locks.releases, "lock must be released on success")
}

func TestWorkflow_Run_PreLockStageFailureSkipsLock(t *testing.T) {
	locks := newFakeLockStore(true)
	failing := func(ctx context.Context, sg *domain.ScalingGroupLifecycleContext) error {
		return errors.New("boom")
	}
	preLock := NewPipeline().Use("init", failing)
	locked := NewPipeline().Use("plan_dns", noopStage)

	wf := NewWorkflow(locks, preLock, locked, nil, nil)
	event := domain.LifecycleEvent{Transition: domain.TransitionLaunching, ScalingGroupName: "sg-1", InstanceID: "i-1"}

	_, err := wf.Run(context.Background(), event)
	assert.Error(t, err)
	assert.Equal(t, 0, locks.acquires, "a pre-lock failure must never attempt to acquire the lock")
}

func TestWorkflow_Run_LockedStageFailureStillReleasesLock(t *testing.T) {
	locks := newFakeLockStore(true)
	failing := func(ctx context.Context, sg *domain.ScalingGroupLifecycleContext) error {
		return errors.New("boom")
	}
	preLock := NewPipeline().Use("init", noopStage)
	locked := NewPipeline().Use("plan_dns", failing)

	wf := NewWorkflow(locks, preLock, locked, nil, nil)
	event := domain.LifecycleEvent{Transition: domain.TransitionLaunching, ScalingGroupName: "sg-1", InstanceID: "i-1"}

	_, err := wf.Run(context.Background(), event)
	assert.Error(t, err)
	assert.Equal(t, 1, locks.releases, "lock must be released even when the locked half fails")
}

func TestWorkflow_Run_LockUnavailableAbortsOnContextCancellation(t *testing.T) {
	locks := newFakeLockStore(false)
	preLock := NewPipeline().Use("init", noopStage)
	locked := NewPipeline().Use("plan_dns", noopStage)

	wf := NewWorkflow(locks, preLock, locked, nil, nil)
	event := domain.LifecycleEvent{Transition: domain.TransitionLaunching, ScalingGroupName: "sg-1", InstanceID: "i-1"}

	// An already-cancelled context makes acquireWithBackoff bail on its
	// first retry wait instead of running the full ~60s backoff budget.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := wf.Run(ctx, event)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, locks.releases, "a lock never acquired must never be released")
}

func TestClassifyDomainError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{domain.ErrConfig, "config"},
		{domain.ErrValueSource, "value_source"},
		{domain.ErrLockUnavailable, "lock_unavailable"},
		{domain.ErrAdapter, "adapter"},
		{domain.ErrValidation, "validation"},
		{domain.ErrTransient, "transient"},
		{errors.New("unclassified"), "unknown"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, classifyDomainError(c.err))
	}
}
