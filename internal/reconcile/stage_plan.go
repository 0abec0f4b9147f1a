package reconcile

import (
	"context"
	"fmt"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/metadata"
	"github.com/asgdns/reconciler/internal/ports"
)

// StagePlanDNS resolves each eligible context's DNS value, maps the
// triggering transition to a planner action (§4.7), and calls the
// provider-specific generate_change_request, appending the result to
// sg.DNSChanges. DRAINING bypasses the operational filter entirely since
// removal must proceed regardless of probe state (the probe stages never
// ran for DRAINING); all other transitions plan only for operational
// contexts per §4.3.
func StagePlanDNS(providers map[domain.DNSProviderKind]ports.DNSProvider) Stage {
	return func(ctx context.Context, sg *domain.ScalingGroupLifecycleContext) error {
		action, ok := domain.TransitionToCommandAction(sg.Event.Transition)
		if !ok {
			return nil // UNRELATED: nothing to plan
		}

		var eligible []*domain.InstanceLifecycleContext
		if sg.Event.Transition == domain.TransitionDraining {
			eligible = sg.InstanceContexts
		} else {
			eligible = OperationalContexts(sg.InstanceContexts)
		}

		for _, instCtx := range eligible {
			if instCtx.InstanceModel == nil {
				return fmt.Errorf("%w: instance metadata not loaded before planning for %s", domain.ErrAdapter, instCtx.InstanceID)
			}

			cfg := instCtx.SGConfig.DNSConfig
			resolved, err := metadata.Resolve(*instCtx.InstanceModel, cfg.ValueSource)
			if err != nil {
				return fmt.Errorf("resolving value_source for %s: %w", instCtx.InstanceID, err)
			}

			cmd := domain.DnsChangeCommand{
				Action:    action,
				DNSConfig: cfg,
				Values: []domain.DNSChangeCommandValue{{
					Value:      resolved.Value,
					LaunchTime: instCtx.InstanceModel.LaunchTimestamp,
					InstanceID: instCtx.InstanceID,
				}},
			}

			provider, ok := providers[cfg.Provider]
			if !ok {
				return fmt.Errorf("%w: no DNSProvider configured for %s", domain.ErrConfig, cfg.Provider)
			}

			change, err := provider.GenerateChangeRequest(ctx, cmd)
			if err != nil {
				return err
			}
			if err := change.Validate(); err != nil {
				return err
			}

			sg.DNSChanges = append(sg.DNSChanges, domain.DNSChangeEntry{Context: instCtx, Change: change})
		}

		return nil
	}
}
