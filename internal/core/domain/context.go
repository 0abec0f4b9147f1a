package domain

// InstanceLifecycleContext pairs one instance with one SGConfiguration for
// the duration of a single pipeline invocation. It accumulates probe
// results and exposes the derived operational predicate the planner and
// the Instance Lifecycle Context Manager rely on.
type InstanceLifecycleContext struct {
	InstanceID  string
	SGConfig    SGConfiguration

	// Effective probe configs: equal to SGConfig's unless a future
	// per-instance override is introduced; kept distinct per spec's data
	// model so a context's probe identity does not alias its config's.
	ReadinessConfig   *ReadinessConfig
	HealthCheckConfig *HealthCheckConfig

	InstanceModel *Instance

	ReadinessResult   *ReadinessResult
	HealthCheckResult *HealthCheckResult
}

// ReadinessCheckRequired reports whether this context must wait on a
// readiness probe before it can be considered operational.
func (c *InstanceLifecycleContext) ReadinessCheckRequired() bool {
	return c.ReadinessConfig != nil && c.ReadinessConfig.Enabled
}

// HealthCheckRequired reports whether this context must wait on a health
// probe before it can be considered operational.
func (c *InstanceLifecycleContext) HealthCheckRequired() bool {
	return c.HealthCheckConfig != nil && c.HealthCheckConfig.Enabled
}

// ReadinessPassed is true when no readiness check is configured (synthetic
// pass) or the recorded result reports ready.
func (c *InstanceLifecycleContext) ReadinessPassed() bool {
	if !c.ReadinessCheckRequired() {
		return true
	}
	return c.ReadinessResult != nil && c.ReadinessResult.Ready
}

// HealthPassed is true when no health check is configured (synthetic pass)
// or the recorded result reports healthy.
func (c *InstanceLifecycleContext) HealthPassed() bool {
	if !c.HealthCheckRequired() {
		return true
	}
	return c.HealthCheckResult != nil && c.HealthCheckResult.Healthy
}

// Operational is readiness AND health, per §3's derived-field definition.
func (c *InstanceLifecycleContext) Operational() bool {
	return c.ReadinessPassed() && c.HealthPassed()
}

// DeduplicationKey hashes the effective readiness+health configs so probe
// stages can group contexts sharing identical probe work.
func (c *InstanceLifecycleContext) DeduplicationKey() string {
	rHash := "none"
	if c.ReadinessConfig != nil {
		rHash = c.ReadinessConfig.Hash()
	}
	hHash := "none"
	if c.HealthCheckConfig != nil {
		hHash = c.HealthCheckConfig.Hash()
	}
	return stableHash(c.InstanceID, rHash, hHash)
}

// DNSChangeEntry pairs a planned change with the context it was derived
// from, so the applier can report per-context outcomes.
type DNSChangeEntry struct {
	Context *InstanceLifecycleContext
	Change  DNSChangeRequest
}

// ScalingGroupLifecycleContext is the root value threaded through every
// pipeline stage for a single invocation: the triggering event, every
// SGConfiguration in play, the derived InstanceLifecycleContexts, and the
// accumulating list of planned DNS changes.
type ScalingGroupLifecycleContext struct {
	Event             LifecycleEvent
	SGConfigurations  []SGConfiguration
	InstanceContexts  []*InstanceLifecycleContext
	DNSChanges        []DNSChangeEntry
}
