// Package ports defines the adapter contracts the reconciliation pipeline
// is built against. Concrete implementations live under
// internal/infrastructure/*; every port here is out of scope per §1 of the
// specification this module implements and is satisfied by a swappable
// adapter selected at composition time (internal/config + cmd/reconciler).
package ports

import (
	"context"

	"github.com/asgdns/reconciler/internal/core/domain"
)

// InstanceDiscovery resolves scaling-group membership and per-instance
// attributes from the cloud provider.
type InstanceDiscovery interface {
	DescribeInstances(ctx context.Context, ids ...string) ([]domain.Instance, error)
	DescribeScalingGroup(ctx context.Context, names ...string) ([]domain.ScalingGroup, error)
}

// DNSProvider plans and applies changes against one managed DNS zone
// provider (Route 53, Cloudflare, or an in-memory mock).
type DNSProvider interface {
	GenerateChangeRequest(ctx context.Context, cmd domain.DnsChangeCommand) (domain.DNSChangeRequest, error)
	ApplyChange(ctx context.Context, req domain.DNSChangeRequest) (DNSChangeResponse, error)
	ReadRecord(ctx context.Context, zoneID, name string, recordType domain.RecordType) (*ResourceRecordSet, error)
	NormalizeName(name, zoneID string) string
}

// DNSChangeResponse is the outcome of DNSProvider.ApplyChange.
type DNSChangeResponse struct {
	Success  bool
	Message  string
	Metadata map[string]string
}

// ResourceRecordSet is the provider-neutral shape of a record read back
// from DNSProvider.ReadRecord.
type ResourceRecordSet struct {
	Name   string
	Type   domain.RecordType
	TTL    int
	Values []string
}

// LockStore provides mutual exclusion over a per-scaling-group key.
type LockStore interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// KVStore is a minimal conditional key-value repository used for both the
// persisted SGConfiguration rows and the GC marker rows.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Create(ctx context.Context, key string, item []byte) (bool, error) // false on conflict, not an error
	Put(ctx context.Context, key string, item []byte) error
	Delete(ctx context.Context, key string) (bool, error)
}

// Queue enqueues reconciliation envelopes for asynchronous processing.
type Queue interface {
	Enqueue(ctx context.Context, envelope []byte) (bool, error)
}

// MetricsSink records point-in-time measurements and dimensional tags, and
// flushes them to the backing system.
type MetricsSink interface {
	RecordPoint(name string, value float64, unit string)
	RecordDimension(key, value string)
	Publish(ctx context.Context) (bool, error)
}

// Clock abstracts wall-clock and monotonic time so probe timeouts and
// readiness polling are deterministic under test.
type Clock interface {
	Now() int64          // wall-clock, unix seconds
	Monotonic() int64    // monotonic nanoseconds, for interval math
	Sleep(nanos int64)
}

// Readiness probes whether an instance currently matches its readiness
// configuration's tag requirement.
type Readiness interface {
	IsReady(ctx context.Context, instanceID string, cfg domain.ReadinessConfig) (domain.ReadinessResult, error)
}

// HealthChecker probes whether a resolved endpoint is currently healthy.
type HealthChecker interface {
	Check(ctx context.Context, endpoint string, cfg domain.HealthCheckConfig) (domain.HealthCheckResult, error)
}
