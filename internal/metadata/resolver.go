// Package metadata resolves a compact value-source string against an
// instance snapshot, per the shape documented in the glossary:
// type[:subtype][:attribute].
package metadata

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/asgdns/reconciler/internal/core/domain"
)

// Result is the outcome of resolving a value-source string.
type Result struct {
	InstanceID string
	Value      string
	Source     string
}

// Resolve parses source and extracts the matching attribute from instance.
// Recognized forms: ip:v4:public, ip:v4:private, ip:v6:public, ip:v6:private,
// dns:public, dns:private, tag:<key>[:ci]. Unknown forms fail with
// ErrValueSource.
func Resolve(instance domain.Instance, source string) (Result, error) {
	parts := strings.Split(source, ":")
	if len(parts) == 0 || parts[0] == "" {
		return Result{}, fmt.Errorf("%w: empty value source", domain.ErrValueSource)
	}

	kind := strings.ToLower(parts[0])
	switch kind {
	case "ip":
		return resolveIP(instance, source, parts)
	case "dns":
		return resolveDNS(instance, source, parts)
	case "tag":
		return resolveTag(instance, source, parts)
	default:
		return Result{}, fmt.Errorf("%w: unrecognized value source type %q in %q", domain.ErrValueSource, kind, source)
	}
}

func resolveIP(instance domain.Instance, source string, parts []string) (Result, error) {
	if len(parts) != 3 {
		return Result{}, fmt.Errorf("%w: ip value source requires version and visibility, got %q", domain.ErrValueSource, source)
	}
	version := strings.ToLower(parts[1])
	visibility := strings.ToLower(parts[2])

	var value string
	switch {
	case version == "v4" && visibility == "public":
		value = instance.Metadata.PublicIPv4
	case version == "v4" && visibility == "private":
		value = instance.Metadata.PrivateIPv4
	case version == "v6" && visibility == "public":
		value = instance.Metadata.PublicIPv6
	case version == "v6" && visibility == "private":
		value = instance.Metadata.PrivateIPv6
	default:
		return Result{}, fmt.Errorf("%w: unrecognized ip value source %q", domain.ErrValueSource, source)
	}

	return Result{InstanceID: instance.InstanceID, Value: value, Source: source}, nil
}

func resolveDNS(instance domain.Instance, source string, parts []string) (Result, error) {
	if len(parts) != 2 {
		return Result{}, fmt.Errorf("%w: dns value source requires visibility, got %q", domain.ErrValueSource, source)
	}
	visibility := strings.ToLower(parts[1])

	var value string
	switch visibility {
	case "public":
		value = instance.Metadata.PublicDNS
	case "private":
		value = instance.Metadata.PrivateDNS
	default:
		return Result{}, fmt.Errorf("%w: unrecognized dns value source %q", domain.ErrValueSource, source)
	}

	return Result{InstanceID: instance.InstanceID, Value: value, Source: source}, nil
}

func resolveTag(instance domain.Instance, source string, parts []string) (Result, error) {
	var key string
	caseInsensitive := false

	switch len(parts) {
	case 2:
		key = parts[1]
	case 3:
		if strings.ToLower(parts[2]) != "ci" {
			return Result{}, fmt.Errorf("%w: unrecognized tag value source suffix %q in %q", domain.ErrValueSource, parts[2], source)
		}
		key = parts[1]
		caseInsensitive = true
	default:
		return Result{}, fmt.Errorf("%w: malformed tag value source %q", domain.ErrValueSource, source)
	}

	value, ok := lookupTag(instance.Tags, key, caseInsensitive)
	if !ok {
		return Result{InstanceID: instance.InstanceID, Value: "", Source: source}, nil
	}
	return Result{InstanceID: instance.InstanceID, Value: value, Source: source}, nil
}

// lookupTag matches key against the instance's tags, case-sensitively
// unless caseInsensitive requests Unicode-NFKD case-folded comparison.
func lookupTag(tags []domain.Tag, key string, caseInsensitive bool) (string, bool) {
	target := key
	if caseInsensitive {
		target = foldKey(key)
	}
	for _, t := range tags {
		candidate := t.Key
		if caseInsensitive {
			candidate = foldKey(candidate)
		}
		if candidate == target {
			return t.Value, true
		}
	}
	return "", false
}

// foldKey applies Unicode NFKD normalization then ASCII/Unicode lower-casing,
// matching the spec's "Unicode-NFKD case-folded" comparison rule for the
// :ci tag sub-type.
func foldKey(s string) string {
	return strings.ToLower(norm.NFKD.String(s))
}
