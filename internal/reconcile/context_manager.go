package reconcile

import (
	"github.com/asgdns/reconciler/internal/core/domain"
)

// BuildInstanceContexts constructs one InstanceLifecycleContext per
// SGConfiguration for the event's instance. Readiness/health results are
// left nil; InstanceLifecycleContext.ReadinessPassed/HealthPassed already
// treat an absent or disabled config as a synthetic pass (§4.3). Grounded
// on workflows/instance_lifecycle/instance_lifecycle_context_manager.py's
// register_instance_context.
func BuildInstanceContexts(event domain.LifecycleEvent, configs []domain.SGConfiguration) []*domain.InstanceLifecycleContext {
	contexts := make([]*domain.InstanceLifecycleContext, 0, len(configs))
	for _, cfg := range configs {
		contexts = append(contexts, &domain.InstanceLifecycleContext{
			InstanceID:        event.InstanceID,
			SGConfig:          cfg,
			ReadinessConfig:   cfg.ReadinessConfig,
			HealthCheckConfig: cfg.HealthCheckConfig,
		})
	}
	return contexts
}

// ReadinessGroup pairs a readiness configuration with every context that
// shares its hash.
type ReadinessGroup struct {
	Config   domain.ReadinessConfig
	Contexts []*domain.InstanceLifecycleContext
}

// ReadinessConfigsRequiringCheck groups contexts by readiness config hash,
// restricted to contexts whose readiness check is actually required.
func ReadinessConfigsRequiringCheck(contexts []*domain.InstanceLifecycleContext) map[string]*ReadinessGroup {
	groups := make(map[string]*ReadinessGroup)
	for _, c := range contexts {
		if !c.ReadinessCheckRequired() {
			continue
		}
		hash := c.ReadinessConfig.Hash()
		g, ok := groups[hash]
		if !ok {
			g = &ReadinessGroup{Config: *c.ReadinessConfig}
			groups[hash] = g
		}
		g.Contexts = append(g.Contexts, c)
	}
	return groups
}

// HealthGroup pairs a health check configuration with every context that
// shares its hash.
type HealthGroup struct {
	Config   domain.HealthCheckConfig
	Contexts []*domain.InstanceLifecycleContext
}

// HealthConfigsRequiringCheck groups contexts by health config hash,
// restricted to contexts whose health check is required AND whose
// readiness has already passed (§4.5: "Runs only for contexts whose
// readiness result passes").
func HealthConfigsRequiringCheck(contexts []*domain.InstanceLifecycleContext) map[string]*HealthGroup {
	groups := make(map[string]*HealthGroup)
	for _, c := range contexts {
		if !c.HealthCheckRequired() || !c.ReadinessPassed() {
			continue
		}
		hash := c.HealthCheckConfig.Hash()
		g, ok := groups[hash]
		if !ok {
			g = &HealthGroup{Config: *c.HealthCheckConfig}
			groups[hash] = g
		}
		g.Contexts = append(g.Contexts, c)
	}
	return groups
}

// DNSProviders returns the distinct set of DNS providers referenced across
// every context's SGConfiguration.
func DNSProviders(contexts []*domain.InstanceLifecycleContext) []domain.DNSProviderKind {
	seen := make(map[domain.DNSProviderKind]struct{})
	var out []domain.DNSProviderKind
	for _, c := range contexts {
		p := c.SGConfig.DNSConfig.Provider
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// OperationalContexts filters contexts by their own MultiConfigProceedMode,
// per §4.3:
//   - SELF_OPERATIONAL: include iff this context is operational.
//   - ALL_OPERATIONAL: include iff every sibling context is operational.
//   - HALF_OPERATIONAL: include iff >= ceil(n/2) siblings are operational.
func OperationalContexts(contexts []*domain.InstanceLifecycleContext) []*domain.InstanceLifecycleContext {
	return filterByProceedMode(contexts, true)
}

// NonOperationalContexts is the complement of OperationalContexts.
func NonOperationalContexts(contexts []*domain.InstanceLifecycleContext) []*domain.InstanceLifecycleContext {
	return filterByProceedMode(contexts, false)
}

func filterByProceedMode(contexts []*domain.InstanceLifecycleContext, wantOperational bool) []*domain.InstanceLifecycleContext {
	operationalCount := 0
	for _, c := range contexts {
		if c.Operational() {
			operationalCount++
		}
	}
	n := len(contexts)
	halfThreshold := (n + 1) / 2 // ceil(n/2)

	var out []*domain.InstanceLifecycleContext
	for _, c := range contexts {
		var include bool
		switch c.SGConfig.MultiConfigProceedMode {
		case domain.ProceedAllOperational:
			include = operationalCount == n
		case domain.ProceedHalfOperational:
			include = operationalCount >= halfThreshold
		default: // SELF_OPERATIONAL
			include = c.Operational()
		}
		if include == wantOperational {
			out = append(out, c)
		}
	}
	return out
}
