package reconcile

import (
	"context"
	"log/slog"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/ports"
	"github.com/asgdns/reconciler/pkg/metrics"
)

// StageApplyDNS iterates the accumulated DNS changes and applies each one
// via its provider, per §4.8. what_if configurations log the computed
// change instead of calling the provider. Per-change apply failures are
// logged and counted but do not abort the remaining changes in the batch
// (§7: "apply_change errors are recorded and the batch continues").
func StageApplyDNS(providers map[domain.DNSProviderKind]ports.DNSProvider, logger *slog.Logger, sink *metrics.ReconcilerMetrics) Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, sg *domain.ScalingGroupLifecycleContext) error {
		for _, entry := range sg.DNSChanges {
			change := entry.Change
			providerKind := entry.Context.SGConfig.DNSConfig.Provider

			if change.Action == domain.ActionIgnore {
				continue
			}

			if entry.Context.SGConfig.WhatIf {
				logger.Info("what_if: DNS change computed but not applied",
					"sg_name", sg.Event.ScalingGroupName,
					"instance_id", entry.Context.InstanceID,
					"action", change.Action,
					"record_name", change.RecordName,
					"record_type", change.RecordType,
					"values", change.Values,
				)
				continue
			}

			provider, ok := providers[providerKind]
			if !ok {
				logger.Error("no DNSProvider configured for change", "provider", providerKind, "record_name", change.RecordName)
				if sink != nil {
					sink.DNSChangesAppliedTotal.WithLabelValues(string(providerKind), string(change.Action), "error").Inc()
				}
				continue
			}

			resp, err := provider.ApplyChange(ctx, change)
			status := "success"
			if err != nil || !resp.Success {
				status = "error"
				logger.Error("applying DNS change failed",
					"sg_name", sg.Event.ScalingGroupName,
					"record_name", change.RecordName,
					"action", change.Action,
					"error", err,
					"message", resp.Message,
				)
			} else {
				logger.Info("applied DNS change",
					"sg_name", sg.Event.ScalingGroupName,
					"record_name", change.RecordName,
					"action", change.Action,
					"values", change.Values,
				)
			}

			if sink != nil {
				sink.DNSChangesAppliedTotal.WithLabelValues(string(providerKind), string(change.Action), status).Inc()
			}
		}
		return nil
	}
}
