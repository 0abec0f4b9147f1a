package reconcile

import (
	"context"
	"fmt"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/core/processing"
	"github.com/asgdns/reconciler/internal/ports"
)

// StageReadinessChecks schedules one task per distinct readiness
// configuration needing a check and fans each result back to every context
// sharing that config's hash. Skipped entirely for DRAINING events, per
// §4.4 and the REDESIGN FLAGS note that DRAINING skips both probe stages.
func StageReadinessChecks(readiness ports.Readiness, scheduler *processing.TaskScheduler) Stage {
	return func(ctx context.Context, sg *domain.ScalingGroupLifecycleContext) error {
		if sg.Event.Transition == domain.TransitionDraining {
			return nil
		}

		groups := ReadinessConfigsRequiringCheck(sg.InstanceContexts)
		if len(groups) == 0 {
			return nil
		}

		pending := 0
		for hash, group := range groups {
			hash, group := hash, group
			err := scheduler.Place(ctx, processing.Task{
				ID: hash,
				Run: func(ctx context.Context) (any, error) {
					return readiness.IsReady(ctx, group.Contexts[0].InstanceID, group.Config)
				},
			})
			if err != nil {
				return fmt.Errorf("%w: scheduling readiness probe: %v", domain.ErrTransient, err)
			}
			pending++
		}

		for i := 0; i < pending; i++ {
			result := <-scheduler.Retrieve()
			if result.Err != nil {
				return fmt.Errorf("%w: readiness probe %s: %v", domain.ErrAdapter, result.TaskID, result.Err)
			}
			rr := result.Value.(domain.ReadinessResult)
			for _, c := range groups[result.TaskID].Contexts {
				res := rr
				c.ReadinessResult = &res
			}
		}

		return nil
	}
}

// StageHealthChecks runs only for contexts whose readiness has already
// passed. For each distinct health config it resolves the endpoint address
// via the metadata resolver against a freshly-discovered instance snapshot,
// then dispatches one probe task, fanning results back by config hash.
// Skipped entirely for DRAINING events.
func StageHealthChecks(discovery ports.InstanceDiscovery, health ports.HealthChecker, resolveEndpoint EndpointResolver, scheduler *processing.TaskScheduler) Stage {
	return func(ctx context.Context, sg *domain.ScalingGroupLifecycleContext) error {
		if sg.Event.Transition == domain.TransitionDraining {
			return nil
		}

		groups := HealthConfigsRequiringCheck(sg.InstanceContexts)
		if len(groups) == 0 {
			return nil
		}

		instances, err := discovery.DescribeInstances(ctx, sg.Event.InstanceID)
		if err != nil || len(instances) == 0 {
			return fmt.Errorf("%w: describing instance %s for health check: %v", domain.ErrAdapter, sg.Event.InstanceID, err)
		}
		instance := instances[0]

		pending := 0
		for hash, group := range groups {
			hash, group := hash, group
			endpoint, err := resolveEndpoint(instance, group.Config.EndpointSource, group.Config.Port)
			if err != nil {
				return fmt.Errorf("%w: resolving health endpoint: %v", domain.ErrValueSource, err)
			}

			err = scheduler.Place(ctx, processing.Task{
				ID: hash,
				Run: func(ctx context.Context) (any, error) {
					return health.Check(ctx, endpoint, group.Config)
				},
			})
			if err != nil {
				return fmt.Errorf("%w: scheduling health probe: %v", domain.ErrTransient, err)
			}
			pending++
		}

		for i := 0; i < pending; i++ {
			result := <-scheduler.Retrieve()
			if result.Err != nil {
				return fmt.Errorf("%w: health probe %s: %v", domain.ErrAdapter, result.TaskID, result.Err)
			}
			hr := result.Value.(domain.HealthCheckResult)
			for _, c := range groups[result.TaskID].Contexts {
				res := hr
				c.HealthCheckResult = &res
			}
		}

		return nil
	}
}

// EndpointResolver resolves a health check's endpoint_source value-source
// string against an instance, producing the "host:port" (or "ip:port")
// string the probe dials.
type EndpointResolver func(instance domain.Instance, endpointSource string, port int) (string, error)
