package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/asgdns/reconciler/internal/core/domain"
)

func cfgWithMode(mode domain.ProceedMode) domain.SGConfiguration {
	return domain.SGConfiguration{
		SGName:                 "sg-1",
		DNSConfig:              domain.DNSRecordConfig{Provider: domain.ProviderMock, ZoneID: "z1", RecordName: "svc.example.com", RecordType: domain.RecordTypeA, RecordTTL: 60, Mode: domain.ModeMultivalue, EmptyMode: domain.EmptySetDelete, ValueSource: "ip:v4:private"},
		MultiConfigProceedMode: mode,
	}
}

func TestOperationalContexts_AllOperational(t *testing.T) {
	event := domain.LifecycleEvent{Transition: domain.TransitionLaunching, InstanceID: "i-1", ScalingGroupName: "sg-1"}
	configs := []domain.SGConfiguration{cfgWithMode(domain.ProceedAllOperational), cfgWithMode(domain.ProceedAllOperational)}
	contexts := BuildInstanceContexts(event, configs)

	// No probes configured -> every context synthetically operational.
	operational := OperationalContexts(contexts)
	assert.Len(t, operational, 2)

	// Force one context non-operational via a failed health result.
	contexts[0].HealthCheckConfig = &domain.HealthCheckConfig{Enabled: true}
	contexts[0].HealthCheckResult = &domain.HealthCheckResult{Healthy: false}

	operational = OperationalContexts(contexts)
	assert.Empty(t, operational, "ALL_OPERATIONAL must block every sibling when one fails")

	nonOperational := NonOperationalContexts(contexts)
	assert.Len(t, nonOperational, 2)
}

func TestOperationalContexts_SelfOperational(t *testing.T) {
	event := domain.LifecycleEvent{Transition: domain.TransitionLaunching, InstanceID: "i-1", ScalingGroupName: "sg-1"}
	configs := []domain.SGConfiguration{cfgWithMode(domain.ProceedSelfOperational), cfgWithMode(domain.ProceedSelfOperational)}
	contexts := BuildInstanceContexts(event, configs)

	contexts[0].HealthCheckConfig = &domain.HealthCheckConfig{Enabled: true}
	contexts[0].HealthCheckResult = &domain.HealthCheckResult{Healthy: false}

	operational := OperationalContexts(contexts)
	assert.Len(t, operational, 1, "SELF_OPERATIONAL only blocks the failing context itself")
	assert.Same(t, contexts[1], operational[0])
}

func TestOperationalContexts_HalfOperational(t *testing.T) {
	event := domain.LifecycleEvent{Transition: domain.TransitionLaunching, InstanceID: "i-1", ScalingGroupName: "sg-1"}
	configs := []domain.SGConfiguration{
		cfgWithMode(domain.ProceedHalfOperational),
		cfgWithMode(domain.ProceedHalfOperational),
		cfgWithMode(domain.ProceedHalfOperational),
	}
	contexts := BuildInstanceContexts(event, configs)

	// 2 of 3 operational: ceil(3/2) = 2, threshold met.
	contexts[0].HealthCheckConfig = &domain.HealthCheckConfig{Enabled: true}
	contexts[0].HealthCheckResult = &domain.HealthCheckResult{Healthy: false}

	operational := OperationalContexts(contexts)
	assert.Len(t, operational, 3, "2 of 3 operational meets the ceil(n/2) HALF_OPERATIONAL threshold")

	// Now only 1 of 3 operational: threshold not met.
	contexts[1].HealthCheckConfig = &domain.HealthCheckConfig{Enabled: true}
	contexts[1].HealthCheckResult = &domain.HealthCheckResult{Healthy: false}

	operational = OperationalContexts(contexts)
	assert.Empty(t, operational)
}

func TestReadinessConfigsRequiringCheck_Dedup(t *testing.T) {
	event := domain.LifecycleEvent{Transition: domain.TransitionLaunching, InstanceID: "i-1", ScalingGroupName: "sg-1"}
	shared := domain.ReadinessConfig{Enabled: true, TagKey: "role", TagValue: "web", IntervalS: 1, TimeoutS: 5}

	c1 := cfgWithMode(domain.ProceedSelfOperational)
	c1.ReadinessConfig = &shared
	c2 := cfgWithMode(domain.ProceedSelfOperational)
	c2.ReadinessConfig = &shared

	contexts := BuildInstanceContexts(event, []domain.SGConfiguration{c1, c2})
	groups := ReadinessConfigsRequiringCheck(contexts)

	assert.Len(t, groups, 1, "identical readiness configs must collapse to one group")
	for _, g := range groups {
		assert.Len(t, g.Contexts, 2)
	}
}
