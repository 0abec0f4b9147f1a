package reconcile

import (
	"context"
	"fmt"
	"sort"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/ports"
)

// RecordReader is the provider-specific piece of generate_change_request:
// reading the current record at (zone, name, type). Each concrete
// DNSProvider implementation supplies this; Planner supplies everything
// else, so the §4.7 algorithm is implemented exactly once instead of once
// per provider.
type RecordReader func(ctx context.Context, zoneID, name string, recordType domain.RecordType) (*ports.ResourceRecordSet, error)

// Planner implements the provider-agnostic half of
// DNSProvider.generate_change_request: deriving command values, computing
// the desired set, and applying the empty-set policy including GC-marker
// bookkeeping. Concrete DNSProvider adapters embed a Planner and supply a
// RecordReader plus their own wire-format ApplyChange.
type Planner struct {
	KV ports.KVStore
}

// NewPlanner constructs a Planner backed by the given KVStore (used for the
// GC marker contract).
func NewPlanner(kv ports.KVStore) *Planner {
	return &Planner{KV: kv}
}

// GenerateChangeRequest runs the full §4.7 algorithm: read the current
// record, derive command values per mode, compute the desired set for the
// command's action, and resolve the empty-set policy when desired is empty.
func (p *Planner) GenerateChangeRequest(ctx context.Context, read RecordReader, cmd domain.DnsChangeCommand) (domain.DNSChangeRequest, error) {
	cfg := cmd.DNSConfig

	current, err := read(ctx, cfg.ZoneID, cfg.RecordName, cfg.RecordType)
	if err != nil {
		return domain.DNSChangeRequest{}, fmt.Errorf("%w: reading current record: %v", domain.ErrAdapter, err)
	}

	// Step 1: absent record + REMOVE -> IGNORE.
	if current == nil && cmd.Action == domain.CommandRemove {
		return domain.IgnoreChange, nil
	}

	// Step 2: extract current values, sorted, filtered of the FIXED value.
	currentValues := extractCurrentValues(current, cfg.EmptyModeValue)

	// A prior KEEP empty-set cycle may have deferred removing values the
	// record still physically holds; subtract them before computing the
	// next desired set so the next non-empty APPEND/REPLACE doesn't carry
	// them forward. The marker itself is cleared once desired is non-empty.
	marker, err := readGCMarker(ctx, p.KV, cfg.Hash())
	if err != nil {
		return domain.DNSChangeRequest{}, err
	}
	if marker != nil {
		currentValues = subtractSorted(currentValues, marker.GarbageValues)
	}

	// Step 3: derive command values per mode.
	commandValues := deriveCommandValues(cmd)

	// Step 4: compute desired set per action.
	desired, ignore := computeDesired(cmd.Action, cfg.Mode, currentValues, commandValues)
	if ignore {
		return domain.IgnoreChange, nil
	}

	recordExists := current != nil

	if len(desired) == 0 {
		return p.resolveEmptySet(ctx, cfg, currentValues, recordExists)
	}

	action := domain.ActionUpdate
	if !recordExists {
		action = domain.ActionCreate
	}

	// A non-empty desired set means this record is no longer a GC
	// candidate; clear any marker left over from a prior empty cycle.
	if err := clearGCMarker(ctx, p.KV, cfg.Hash()); err != nil {
		return domain.DNSChangeRequest{}, err
	}

	return domain.DNSChangeRequest{
		Action:      action,
		ZoneID:      cfg.ZoneID,
		RecordName:  cfg.RecordName,
		RecordType:  cfg.RecordType,
		TTL:         cfg.RecordTTL,
		SRVPriority: cfg.SRVPriority,
		SRVWeight:   cfg.SRVWeight,
		SRVPort:     cfg.SRVPort,
		Values:      desired,
	}, nil
}

// extractCurrentValues sorts the current record's values and filters out
// the configured FIXED empty-mode value, matching §4.7 step 2.
func extractCurrentValues(current *ports.ResourceRecordSet, fixedValue string) []string {
	if current == nil {
		return nil
	}
	out := make([]string, 0, len(current.Values))
	for _, v := range current.Values {
		if fixedValue != "" && v == fixedValue {
			continue
		}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// deriveCommandValues implements §4.7 step 3.
func deriveCommandValues(cmd domain.DnsChangeCommand) []string {
	if cmd.DNSConfig.Mode == domain.ModeSingleLatest {
		if v, ok := cmd.SingleLatest(); ok {
			return []string{v.Value}
		}
		return nil
	}
	return cmd.MultivalueSet()
}

// computeDesired implements §4.7 step 4 for all three actions.
func computeDesired(action domain.LifecycleTransitionAction, mode domain.RecordMode, current, commandValues []string) (desired []string, ignore bool) {
	switch action {
	case domain.CommandAppend:
		if mode == domain.ModeMultivalue {
			merged := unionSorted(current, commandValues)
			if stringSlicesEqual(merged, current) {
				return nil, true
			}
			return merged, false
		}
		// SINGLE_LATEST
		if sameSet(commandValues, current) {
			return nil, true
		}
		return commandValues, false

	case domain.CommandRemove:
		remaining := subtractSorted(current, commandValues)
		return remaining, false

	case domain.CommandReplace:
		if sameSet(current, commandValues) {
			return nil, true
		}
		return commandValues, false

	default:
		return nil, true
	}
}

// resolveEmptySet implements the three empty-set branches of §4.7.
func (p *Planner) resolveEmptySet(ctx context.Context, cfg domain.DNSRecordConfig, current []string, recordExists bool) (domain.DNSChangeRequest, error) {
	switch cfg.EmptyMode {
	case domain.EmptySetKeep:
		if err := writeGCMarker(ctx, p.KV, cfg.Hash(), current); err != nil {
			return domain.DNSChangeRequest{}, err
		}
		return domain.IgnoreChange, nil

	case domain.EmptySetDelete:
		if !recordExists {
			return domain.IgnoreChange, nil
		}
		return domain.DNSChangeRequest{
			Action:      domain.ActionDelete,
			ZoneID:      cfg.ZoneID,
			RecordName:  cfg.RecordName,
			RecordType:  cfg.RecordType,
			TTL:         cfg.RecordTTL,
			SRVPriority: cfg.SRVPriority,
			SRVWeight:   cfg.SRVWeight,
			SRVPort:     cfg.SRVPort,
			Values:      current,
		}, nil

	case domain.EmptySetFixed:
		action := domain.ActionUpdate
		if !recordExists {
			action = domain.ActionCreate
		}
		return domain.DNSChangeRequest{
			Action:      action,
			ZoneID:      cfg.ZoneID,
			RecordName:  cfg.RecordName,
			RecordType:  cfg.RecordType,
			TTL:         cfg.RecordTTL,
			SRVPriority: cfg.SRVPriority,
			SRVWeight:   cfg.SRVWeight,
			SRVPort:     cfg.SRVPort,
			Values:      []string{cfg.EmptyModeValue},
		}, nil

	default:
		return domain.DNSChangeRequest{}, fmt.Errorf("%w: unrecognized empty_mode %q", domain.ErrValidation, cfg.EmptyMode)
	}
}

func unionSorted(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range a {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	for _, v := range b {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func subtractSorted(a, b []string) []string {
	remove := make(map[string]struct{}, len(b))
	for _, v := range b {
		remove[v] = struct{}{}
	}
	out := make([]string, 0, len(a))
	for _, v := range a {
		if _, ok := remove[v]; !ok {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	return stringSlicesEqual(sa, sb)
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
