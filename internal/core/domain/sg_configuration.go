package domain

// ProceedMode decides whether a non-operational sibling context blocks DNS
// mutation for the rest of the SGConfigurations sharing a scaling group.
type ProceedMode string

const (
	ProceedAllOperational  ProceedMode = "ALL_OPERATIONAL"
	ProceedSelfOperational ProceedMode = "SELF_OPERATIONAL"
	ProceedHalfOperational ProceedMode = "HALF_OPERATIONAL"
)

// SGConfiguration binds one managed DNS record to a scaling group, along
// with the optional probe configuration gating it. A scaling group may have
// many SGConfigurations (e.g. one per record).
type SGConfiguration struct {
	SGName                 string             `json:"sg_name"`
	DNSConfig              DNSRecordConfig    `json:"dns_config"`
	ReadinessConfig        *ReadinessConfig   `json:"readiness_config,omitempty"`
	HealthCheckConfig      *HealthCheckConfig `json:"health_check_config,omitempty"`
	MultiConfigProceedMode ProceedMode        `json:"multi_config_proceed_mode,omitempty"`
	WhatIf                 bool               `json:"what_if,omitempty"`
}

// IdentityKey returns the tuple that identifies this configuration for
// locking and GC-marker purposes: (sg_name, dns_zone_id, record_name,
// record_type).
func (c SGConfiguration) IdentityKey() string {
	return c.SGName + "|" + c.DNSConfig.ZoneID + "|" + c.DNSConfig.RecordName + "|" + string(c.DNSConfig.RecordType)
}

// Normalize validates the configuration and its nested DNS record config,
// defaulting MultiConfigProceedMode to SELF_OPERATIONAL when unset.
func (c SGConfiguration) Normalize(policy MultivaluePolicy) (SGConfiguration, error) {
	out := c
	dns, err := c.DNSConfig.Normalize(policy)
	if err != nil {
		return out, err
	}
	out.DNSConfig = dns

	if out.MultiConfigProceedMode == "" {
		out.MultiConfigProceedMode = ProceedSelfOperational
	}

	if out.ReadinessConfig != nil {
		rc := *out.ReadinessConfig
		out.ReadinessConfig = &rc
	}
	if out.HealthCheckConfig != nil {
		hc, err := out.HealthCheckConfig.Normalize()
		if err != nil {
			return out, err
		}
		out.HealthCheckConfig = &hc
	}

	return out, nil
}
