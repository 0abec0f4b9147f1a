// Package metrics provides centralized metrics management for the reconciler.
//
// This package implements a unified taxonomy for Prometheus metrics:
//   - Reconciler metrics: lock contention, probe duration, DNS changes applied
//   - Infrastructure metrics: database, cache, repositories
//
// All metrics follow the naming convention:
// asgdns_<category>_<subsystem>_<metric_name>_<unit>
//
// Example:
//
//	registry := metrics.DefaultRegistry()
//	registry.Reconciler().DNSChangesAppliedTotal.WithLabelValues("route53", "UPDATE", "success").Inc()
//	registry.Infra().DB.ConnectionsActive.Set(42)
package metrics

import (
	"sync"
)

// MetricCategory represents the category of a metric.
type MetricCategory string

const (
	// CategoryReconciler represents reconciliation pipeline metrics (locks, probes, DNS changes)
	CategoryReconciler MetricCategory = "reconciler"

	// CategoryInfra represents infrastructure metrics (database, cache, repositories)
	CategoryInfra MetricCategory = "infra"
)

// MetricsRegistry is the central registry for all Prometheus metrics.
// Provides organized access to metrics by category (Reconciler, Infra).
//
// This is a simplified registry design (vs. full validation/map approach)
// for better maintainability and performance.
//
// Usage:
//
//	registry := metrics.DefaultRegistry()
//	registry.Reconciler().LockWaitSeconds.Observe(0.2)
//
// Thread-safe: All Prometheus metrics are thread-safe by design.
// Singleton: Use DefaultRegistry() to get the global instance.
type MetricsRegistry struct {
	namespace string

	// Category managers (lazy-initialized)
	reconciler *ReconcilerMetrics
	infra      *InfraMetrics

	// Separate sync.Once for each category for true lazy initialization
	reconcilerOnce sync.Once
	infraOnce      sync.Once
}

var (
	// Global singleton registry instance
	defaultRegistry     *MetricsRegistry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the global singleton MetricsRegistry.
// Safe for concurrent use. Initialized once on first call.
//
// Example:
//
//	registry := metrics.DefaultRegistry()
//	registry.Infra().DB.ConnectionsActive.Set(10)
func DefaultRegistry() *MetricsRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewMetricsRegistry("asgdns")
	})
	return defaultRegistry
}

// NewMetricsRegistry creates a new MetricsRegistry with the specified namespace.
// For most use cases, use DefaultRegistry() instead of calling this directly.
//
// Parameters:
//   - namespace: The Prometheus namespace for all metrics (typically "asgdns")
//
// Returns:
//   - *MetricsRegistry: A new registry instance
func NewMetricsRegistry(namespace string) *MetricsRegistry {
	if namespace == "" {
		namespace = "asgdns"
	}

	return &MetricsRegistry{
		namespace: namespace,
	}
}

// Reconciler returns the Reconciler metrics manager.
// Lazy-initialized on first access.
//
// Reconciler metrics include:
//   - Lock acquisition (contention, wait time, timeouts)
//   - Probe execution (readiness/health duration, pass/fail counts)
//   - DNS changes (planned, applied, skipped per empty-set policy)
//
// Example:
//
//	registry.Reconciler().LocksAcquiredTotal.WithLabelValues("acquired").Inc()
//	registry.Reconciler().DNSChangesAppliedTotal.WithLabelValues("route53", "UPDATE", "success").Inc()
func (r *MetricsRegistry) Reconciler() *ReconcilerMetrics {
	r.reconcilerOnce.Do(func() {
		r.reconciler = NewReconcilerMetrics(r.namespace)
	})
	return r.reconciler
}

// Infra returns the Infrastructure metrics manager.
// Lazy-initialized on first access.
//
// Infrastructure metrics include:
//   - Database (connections, queries, errors)
//   - Cache (hits, misses, evictions)
//   - Repository (query duration, errors, results)
//
// Example:
//
//	registry.Infra().DB.ConnectionsActive.Set(42)
//	registry.Infra().Repository.QueryDurationSeconds.WithLabelValues("GetTopAlerts", "success").Observe(0.05)
func (r *MetricsRegistry) Infra() *InfraMetrics {
	r.infraOnce.Do(func() {
		r.infra = NewInfraMetrics(r.namespace)
	})
	return r.infra
}

// Namespace returns the configured namespace for this registry.
//
// Returns:
//   - string: The Prometheus namespace (e.g., "asgdns")
func (r *MetricsRegistry) Namespace() string {
	return r.namespace
}

// ValidateMetricName validates a metric name against naming conventions.
// Currently a placeholder for future validation logic.
//
// Naming convention:
// <namespace>_<category>_<subsystem>_<metric_name>_<unit>
//
// Examples:
// ✅ asgdns_business_alerts_processed_total
// ✅ asgdns_technical_http_request_duration_seconds
// ✅ asgdns_infra_db_connections_active
// ❌ alerts_processed (missing namespace)
// ❌ asgdns_processed (missing category/subsystem)
//
// Parameters:
//   - name: The metric name to validate
//
// Returns:
//   - error: nil if valid, error describing the problem otherwise
//
// TODO: Implement validation logic (regex, taxonomy check)
func (r *MetricsRegistry) ValidateMetricName(name string) error {
	// Placeholder for future validation
	// Could check:
	// 1. Starts with namespace
	// 2. Contains category (business/technical/infra)
	// 3. Follows snake_case
	// 4. Has appropriate unit suffix (_total, _seconds, etc.)
	return nil
}
