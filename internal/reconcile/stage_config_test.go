package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asgdns/reconciler/internal/core/domain"
)

type fakeConfigProvider struct {
	cfgs map[string][]domain.SGConfiguration
	err  error
}

func (f *fakeConfigProvider) ConfigurationsFor(sgName string) ([]domain.SGConfiguration, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cfgs[sgName], nil
}

func TestStageInit_LoadsConfigurationsForTheTriggeringScalingGroup(t *testing.T) {
	cfgs := []domain.SGConfiguration{{SGName: "sg-1"}}
	provider := &fakeConfigProvider{cfgs: map[string][]domain.SGConfiguration{"sg-1": cfgs}}

	sg := &domain.ScalingGroupLifecycleContext{
		Event: domain.LifecycleEvent{Transition: domain.TransitionLaunching, InstanceID: "i-1", ScalingGroupName: "sg-1"},
	}

	stage := StageInit(provider)
	err := stage(context.Background(), sg)
	require.NoError(t, err)
	assert.Equal(t, cfgs, sg.SGConfigurations)
}

func TestStageInit_InvalidEventIsRejectedBeforeLoadingConfig(t *testing.T) {
	provider := &fakeConfigProvider{err: errors.New("should never be called")}
	sg := &domain.ScalingGroupLifecycleContext{
		Event: domain.LifecycleEvent{Transition: domain.TransitionLaunching},
	}

	stage := StageInit(provider)
	err := stage(context.Background(), sg)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStageInit_ConfigLoaderFailureWrapsErrConfig(t *testing.T) {
	provider := &fakeConfigProvider{err: errors.New("kv unavailable")}
	sg := &domain.ScalingGroupLifecycleContext{
		Event: domain.LifecycleEvent{Transition: domain.TransitionLaunching, InstanceID: "i-1", ScalingGroupName: "sg-1"},
	}

	stage := StageInit(provider)
	err := stage(context.Background(), sg)
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestStageLoadInstanceConfigs_OneContextPerConfiguration(t *testing.T) {
	event := domain.LifecycleEvent{Transition: domain.TransitionLaunching, InstanceID: "i-1", ScalingGroupName: "sg-1"}
	sg := &domain.ScalingGroupLifecycleContext{
		Event:            event,
		SGConfigurations: []domain.SGConfiguration{{SGName: "sg-1"}, {SGName: "sg-1"}},
	}

	stage := StageLoadInstanceConfigs()
	err := stage(context.Background(), sg)
	require.NoError(t, err)
	assert.Len(t, sg.InstanceContexts, 2)
	for _, c := range sg.InstanceContexts {
		assert.Equal(t, "i-1", c.InstanceID)
	}
}
