package reconcile

import (
	"context"
	"fmt"

	"github.com/asgdns/reconciler/internal/core/domain"
)

// ConfigProvider supplies the cached, validated SGConfiguration set for a
// scaling group name, as loaded by the Config Loader (§4.2).
type ConfigProvider interface {
	ConfigurationsFor(sgName string) ([]domain.SGConfiguration, error)
}

// StageInit validates the triggering event and loads the SGConfiguration
// set for its scaling group, per §4.1's first pipeline step.
func StageInit(configs ConfigProvider) Stage {
	return func(ctx context.Context, sg *domain.ScalingGroupLifecycleContext) error {
		if err := sg.Event.Validate(); err != nil {
			return err
		}

		cfgs, err := configs.ConfigurationsFor(sg.Event.ScalingGroupName)
		if err != nil {
			return fmt.Errorf("%w: loading configuration for %s: %v", domain.ErrConfig, sg.Event.ScalingGroupName, err)
		}
		sg.SGConfigurations = cfgs
		return nil
	}
}

// StageLoadInstanceConfigs constructs one InstanceLifecycleContext per
// SGConfiguration for the event's instance (§4.3).
func StageLoadInstanceConfigs() Stage {
	return func(ctx context.Context, sg *domain.ScalingGroupLifecycleContext) error {
		sg.InstanceContexts = BuildInstanceContexts(sg.Event, sg.SGConfigurations)
		return nil
	}
}
