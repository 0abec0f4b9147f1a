package reconcile

import (
	"context"
	"fmt"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/ports"
)

// StageLoadMetadata discovers the event's instance once and attaches the
// snapshot to every InstanceLifecycleContext, so the planner can resolve
// dns_config.value_source without a per-context discovery round trip
// (§4.6's "against the already loaded instance").
func StageLoadMetadata(discovery ports.InstanceDiscovery) Stage {
	return func(ctx context.Context, sg *domain.ScalingGroupLifecycleContext) error {
		instances, err := discovery.DescribeInstances(ctx, sg.Event.InstanceID)
		if err != nil || len(instances) == 0 {
			return fmt.Errorf("%w: describing instance %s: %v", domain.ErrAdapter, sg.Event.InstanceID, err)
		}
		instance := instances[0]

		for _, c := range sg.InstanceContexts {
			snapshot := instance
			c.InstanceModel = &snapshot
		}
		return nil
	}
}
