// Package probes provides the concrete ports.Readiness and
// ports.HealthChecker implementations: a tag-match readiness probe backed
// by ports.InstanceDiscovery, and a TCP/HTTP(S) health checker dialing a
// resolved endpoint directly.
package probes

import (
	"context"
	"time"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/ports"
)

// TagReadiness implements ports.Readiness by re-describing the instance and
// comparing one of its tags against the configured key/value pair.
type TagReadiness struct {
	discovery ports.InstanceDiscovery
	clock     ports.Clock
}

// NewTagReadiness wraps an InstanceDiscovery port for tag-based readiness
// checks, timing each probe via clock.
func NewTagReadiness(discovery ports.InstanceDiscovery, clock ports.Clock) *TagReadiness {
	return &TagReadiness{discovery: discovery, clock: clock}
}

// IsReady polls the instance every interval_seconds until its tags match
// or timeout_seconds elapses, counting the initial probe toward that
// budget (so a timeout shorter than one interval still probes once).
func (r *TagReadiness) IsReady(ctx context.Context, instanceID string, cfg domain.ReadinessConfig) (domain.ReadinessResult, error) {
	start := r.clock.Monotonic()
	interval := time.Duration(cfg.IntervalS) * time.Second
	timeout := time.Duration(cfg.TimeoutS) * time.Second

	var ready bool
	for {
		if err := ctx.Err(); err != nil {
			return domain.ReadinessResult{}, err
		}

		instances, err := r.discovery.DescribeInstances(ctx, instanceID)
		if err != nil {
			return domain.ReadinessResult{}, err
		}

		if len(instances) > 0 {
			for _, tag := range instances[0].Tags {
				if tag.Key == cfg.TagKey && tag.Value == cfg.TagValue {
					ready = true
					break
				}
			}
		}

		if ready {
			break
		}

		elapsed := time.Duration(r.clock.Monotonic() - start)
		if elapsed >= timeout {
			break
		}

		r.clock.Sleep(int64(interval))
	}

	elapsed := time.Duration(r.clock.Monotonic() - start)
	return domain.ReadinessResult{
		Ready:       ready,
		ConfigHash:  cfg.Hash(),
		InstanceID:  instanceID,
		TimeTakenMs: elapsed.Milliseconds(),
	}, nil
}
