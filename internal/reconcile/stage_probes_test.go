package reconcile

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/core/processing"
	"github.com/asgdns/reconciler/internal/infrastructure/discovery"
	"github.com/asgdns/reconciler/internal/ports"
)

type fakeReadiness struct {
	ready bool
}

func (f *fakeReadiness) IsReady(ctx context.Context, instanceID string, cfg domain.ReadinessConfig) (domain.ReadinessResult, error) {
	return domain.ReadinessResult{Ready: f.ready, ConfigHash: cfg.Hash(), InstanceID: instanceID}, nil
}

type fakeHealthChecker struct {
	healthy bool
}

func (f *fakeHealthChecker) Check(ctx context.Context, endpoint string, cfg domain.HealthCheckConfig) (domain.HealthCheckResult, error) {
	return domain.HealthCheckResult{Healthy: f.healthy, Endpoint: endpoint, ConfigHash: cfg.Hash()}, nil
}

func newTestScheduler() *processing.TaskScheduler {
	return processing.NewTaskScheduler(4, slog.Default())
}

func TestStageReadinessChecks_SkippedForDraining(t *testing.T) {
	sg := &domain.ScalingGroupLifecycleContext{Event: domain.LifecycleEvent{Transition: domain.TransitionDraining}}
	stage := StageReadinessChecks(&fakeReadiness{ready: true}, newTestScheduler())
	err := stage(context.Background(), sg)
	require.NoError(t, err)
}

func TestStageReadinessChecks_FansResultBackToEverySharingContext(t *testing.T) {
	cfg := &domain.ReadinessConfig{Enabled: true, TagKey: "status", TagValue: "ready", IntervalS: 5, TimeoutS: 5}
	c1 := &domain.InstanceLifecycleContext{InstanceID: "i-1", ReadinessConfig: cfg}
	c2 := &domain.InstanceLifecycleContext{InstanceID: "i-1", ReadinessConfig: cfg}
	sg := &domain.ScalingGroupLifecycleContext{
		Event:            domain.LifecycleEvent{Transition: domain.TransitionLaunching},
		InstanceContexts: []*domain.InstanceLifecycleContext{c1, c2},
	}

	stage := StageReadinessChecks(&fakeReadiness{ready: true}, newTestScheduler())
	err := stage(context.Background(), sg)
	require.NoError(t, err)

	require.NotNil(t, c1.ReadinessResult)
	require.NotNil(t, c2.ReadinessResult)
	assert.True(t, c1.ReadinessResult.Ready)
	assert.True(t, c2.ReadinessResult.Ready)
}

func TestStageReadinessChecks_NoConfigsNeedingCheckIsNoOp(t *testing.T) {
	c1 := &domain.InstanceLifecycleContext{InstanceID: "i-1"}
	sg := &domain.ScalingGroupLifecycleContext{
		Event:            domain.LifecycleEvent{Transition: domain.TransitionLaunching},
		InstanceContexts: []*domain.InstanceLifecycleContext{c1},
	}

	stage := StageReadinessChecks(&fakeReadiness{ready: true}, newTestScheduler())
	err := stage(context.Background(), sg)
	require.NoError(t, err)
	assert.Nil(t, c1.ReadinessResult)
}

func TestStageHealthChecks_SkippedForDraining(t *testing.T) {
	sg := &domain.ScalingGroupLifecycleContext{Event: domain.LifecycleEvent{Transition: domain.TransitionDraining}}
	stage := StageHealthChecks(nil, &fakeHealthChecker{healthy: true}, nil, newTestScheduler())
	err := stage(context.Background(), sg)
	require.NoError(t, err)
}

func newMockDiscoveryWithOneInstance() ports.InstanceDiscovery {
	d := discovery.NewMockDiscovery()
	d.PutInstance(domain.Instance{InstanceID: "i-1", Metadata: domain.InstanceMetadata{PrivateIPv4: "10.0.0.1"}})
	return d
}

func TestStageHealthChecks_OnlyRunsForReadinessPassedContexts(t *testing.T) {
	disc := newMockDiscoveryWithOneInstance()
	hcfg := &domain.HealthCheckConfig{Enabled: true, EndpointSource: "ip:v4:private", Protocol: domain.ProtocolTCP, Port: 8080, TimeoutS: 5}

	readyCtx := &domain.InstanceLifecycleContext{
		InstanceID: "i-1", HealthCheckConfig: hcfg,
		ReadinessConfig: &domain.ReadinessConfig{Enabled: true},
		ReadinessResult: &domain.ReadinessResult{Ready: true},
	}
	notReadyCtx := &domain.InstanceLifecycleContext{
		InstanceID: "i-1", HealthCheckConfig: hcfg,
		ReadinessConfig: &domain.ReadinessConfig{Enabled: true},
		ReadinessResult: &domain.ReadinessResult{Ready: false},
	}

	sg := &domain.ScalingGroupLifecycleContext{
		Event:            domain.LifecycleEvent{Transition: domain.TransitionLaunching, InstanceID: "i-1"},
		InstanceContexts: []*domain.InstanceLifecycleContext{readyCtx, notReadyCtx},
	}

	resolver := func(instance domain.Instance, source string, port int) (string, error) {
		return "10.0.0.1:8080", nil
	}

	stage := StageHealthChecks(disc, &fakeHealthChecker{healthy: true}, resolver, newTestScheduler())
	err := stage(context.Background(), sg)
	require.NoError(t, err)

	require.NotNil(t, readyCtx.HealthCheckResult)
	assert.True(t, readyCtx.HealthCheckResult.Healthy)
	assert.Nil(t, notReadyCtx.HealthCheckResult, "health check must not run until readiness has passed")
}
