package domain

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

// DNSProviderKind identifies which DNSProvider adapter owns a record.
type DNSProviderKind string

const (
	ProviderRoute53   DNSProviderKind = "route53"
	ProviderCloudflare DNSProviderKind = "cloudflare"
	ProviderMock      DNSProviderKind = "mock"
)

// RecordType is the DNS RR type a DNSRecordConfig manages.
type RecordType string

const (
	RecordTypeA     RecordType = "A"
	RecordTypeAAAA  RecordType = "AAAA"
	RecordTypeCNAME RecordType = "CNAME"
	RecordTypeSRV   RecordType = "SRV"
	RecordTypeTXT   RecordType = "TXT"
)

// multivalueEligible lists the record types MULTIVALUE mode may target.
var multivalueEligible = map[RecordType]bool{
	RecordTypeA:    true,
	RecordTypeAAAA: true,
	RecordTypeTXT:  true,
	RecordTypeSRV:  true,
}

// RecordMode controls how multiple instance values collapse into one
// record's value list.
type RecordMode string

const (
	ModeMultivalue  RecordMode = "MULTIVALUE"
	ModeSingleLatest RecordMode = "SINGLE_LATEST"
)

// EmptySetPolicy decides what happens when a planned update would leave the
// record's value set empty.
type EmptySetPolicy string

const (
	EmptySetKeep   EmptySetPolicy = "KEEP"
	EmptySetDelete EmptySetPolicy = "DELETE"
	EmptySetFixed  EmptySetPolicy = "FIXED"
)

// MultivaluePolicy governs what happens when MULTIVALUE is requested for a
// record type outside multivalueEligible (open question §9: "auto-downgrade
// to SINGLE_LATEST or reject per policy"). The reconciler defaults to
// downgrading, matching the more permissive of the two source variants.
type MultivaluePolicy int

const (
	MultivalueDowngrade MultivaluePolicy = iota
	MultivalueReject
)

// DNSRecordConfig describes one managed DNS record and how instance
// membership maps onto its value set.
type DNSRecordConfig struct {
	Provider       DNSProviderKind `json:"provider"`
	ZoneID         string          `json:"zone_id"`
	RecordName     string          `json:"record_name"`
	RecordType     RecordType      `json:"record_type"`
	RecordTTL      int             `json:"record_ttl"`
	Mode           RecordMode      `json:"mode"`
	EmptyMode      EmptySetPolicy  `json:"empty_mode"`
	EmptyModeValue string          `json:"empty_mode_value,omitempty"`
	ValueSource    string          `json:"value_source"`

	// SRV-only fields; required (nonzero) when RecordType == SRV.
	SRVPriority int `json:"srv_priority,omitempty"`
	SRVWeight   int `json:"srv_weight,omitempty"`
	SRVPort     int `json:"srv_port,omitempty"`
}

// Normalize upper-cases RecordType, applies the MULTIVALUE eligibility
// policy, and validates every invariant from the data model. It returns a
// normalized copy; the receiver is never mutated in place so callers can
// compare before/after.
func (c DNSRecordConfig) Normalize(policy MultivaluePolicy) (DNSRecordConfig, error) {
	out := c
	out.RecordType = RecordType(strings.ToUpper(string(c.RecordType)))

	// idna.ToASCII (not the stricter Lookup profile) so that SRV service
	// names like "_sip._tcp.example.com" survive normalization.
	ascii, err := idna.ToASCII(strings.TrimSuffix(out.RecordName, "."))
	if err != nil {
		return out, fmt.Errorf("%w: record_name %q is not a valid DNS name: %v", ErrValidation, out.RecordName, err)
	}
	out.RecordName = ascii

	if out.RecordTTL < 1 || out.RecordTTL > 604800 {
		return out, fmt.Errorf("%w: record_ttl %d out of range [1, 604800]", ErrValidation, out.RecordTTL)
	}

	if out.RecordType == RecordTypeSRV {
		if out.SRVPriority == 0 || out.SRVWeight == 0 {
			return out, fmt.Errorf("%w: SRV record requires nonzero priority and weight", ErrValidation)
		}
	}

	if out.EmptyMode == EmptySetFixed && out.EmptyModeValue == "" {
		return out, fmt.Errorf("%w: empty_mode FIXED requires a nonempty empty_mode_value", ErrValidation)
	}

	if out.Mode == ModeMultivalue && !multivalueEligible[out.RecordType] {
		switch policy {
		case MultivalueDowngrade:
			out.Mode = ModeSingleLatest
		default:
			return out, fmt.Errorf("%w: MULTIVALUE mode is not permitted for record type %s", ErrValidation, out.RecordType)
		}
	}

	return out, nil
}

// Hash returns a deterministic digest over every persisted field. Two
// DNSRecordConfig values compare equal under Hash iff every field used here
// is equal; it is the key used to deduplicate probe and plan work across
// SGConfigurations that share a record.
func (c DNSRecordConfig) Hash() string {
	return stableHash(
		string(c.Provider), c.ZoneID, c.RecordName, string(c.RecordType),
		intField(c.RecordTTL), string(c.Mode), string(c.EmptyMode), c.EmptyModeValue,
		c.ValueSource, intField(c.SRVPriority), intField(c.SRVWeight), intField(c.SRVPort),
	)
}
