package domain

import "fmt"

// ReadinessConfig gates whether an instance is considered ready to receive
// DNS traffic based on an instance tag match.
type ReadinessConfig struct {
	Enabled   bool   `json:"enabled"`
	TagKey    string `json:"tag_key"`
	TagValue  string `json:"tag_value"`
	IntervalS int    `json:"interval_seconds"`
	TimeoutS  int    `json:"timeout_seconds"`
}

// Hash returns a deterministic digest over every field; it is the
// deduplication key for concurrent readiness probes.
func (c ReadinessConfig) Hash() string {
	return stableHash(boolField(c.Enabled), c.TagKey, c.TagValue, intField(c.IntervalS), intField(c.TimeoutS))
}

// HealthCheckProtocol selects how the health probe reaches the endpoint.
type HealthCheckProtocol string

const (
	ProtocolTCP   HealthCheckProtocol = "TCP"
	ProtocolHTTP  HealthCheckProtocol = "HTTP"
	ProtocolHTTPS HealthCheckProtocol = "HTTPS"
)

// HealthCheckConfig gates whether an instance is considered healthy based on
// a TCP connect or HTTP(S) GET against a resolved endpoint.
type HealthCheckConfig struct {
	Enabled          bool                `json:"enabled"`
	EndpointSource   string              `json:"endpoint_source"`
	Protocol         HealthCheckProtocol `json:"protocol"`
	Port             int                 `json:"port"`
	Path             string              `json:"path,omitempty"`
	TimeoutS         int                 `json:"timeout_seconds"`
	AbandonOnFailure bool                `json:"abandon_on_failure,omitempty"`
}

// Normalize applies the default path and validates port/timeout bounds.
func (c HealthCheckConfig) Normalize() (HealthCheckConfig, error) {
	out := c
	if out.Enabled && (out.Protocol == ProtocolHTTP || out.Protocol == ProtocolHTTPS) && out.Path == "" {
		out.Path = "/"
	}
	if out.Port < 1 || out.Port > 65535 {
		return out, fmt.Errorf("%w: health check port %d out of range [1, 65535]", ErrValidation, out.Port)
	}
	if out.TimeoutS < 1 || out.TimeoutS > 60 {
		return out, fmt.Errorf("%w: health check timeout_s %d out of range [1, 60]", ErrValidation, out.TimeoutS)
	}
	return out, nil
}

// Hash returns a deterministic digest over every field; it is the
// deduplication key for concurrent health probes.
func (c HealthCheckConfig) Hash() string {
	return stableHash(
		boolField(c.Enabled), c.EndpointSource, string(c.Protocol), intField(c.Port),
		c.Path, intField(c.TimeoutS), boolField(c.AbandonOnFailure),
	)
}

// ReadinessResult is the outcome of one readiness probe, fanned back to
// every InstanceLifecycleContext sharing ConfigHash.
type ReadinessResult struct {
	Ready        bool
	ConfigHash   string
	InstanceID   string
	TimeTakenMs  int64
}

// HealthCheckResult is the outcome of one health probe, fanned back to every
// InstanceLifecycleContext sharing ConfigHash.
type HealthCheckResult struct {
	Healthy     bool
	Protocol    HealthCheckProtocol
	Endpoint    string
	Status      int
	Message     string
	TimeTakenMs int64
	ConfigHash  string
}
