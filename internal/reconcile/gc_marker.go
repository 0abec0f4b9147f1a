package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/ports"
)

// gcMarker is the persisted row shape at key gc:{dns_config_hash}: the set
// of values a KEEP empty-set decision deferred removing.
type gcMarker struct {
	GarbageValues []string `json:"garbage_values"`
}

func gcKey(dnsConfigHash string) string {
	return "gc:" + dnsConfigHash
}

// readGCMarker fetches and decodes the marker for a record, if any.
func readGCMarker(ctx context.Context, kv ports.KVStore, dnsConfigHash string) (*gcMarker, error) {
	raw, ok, err := kv.Get(ctx, gcKey(dnsConfigHash))
	if err != nil {
		return nil, fmt.Errorf("%w: reading gc marker: %v", domain.ErrAdapter, err)
	}
	if !ok {
		return nil, nil
	}
	var m gcMarker
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: decoding gc marker: %v", domain.ErrAdapter, err)
	}
	return &m, nil
}

// writeGCMarker persists the current garbage values, overwriting whatever
// was there before (§4.7: "if marker exists with a different value set,
// overwrite it").
func writeGCMarker(ctx context.Context, kv ports.KVStore, dnsConfigHash string, values []string) error {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	raw, err := json.Marshal(gcMarker{GarbageValues: sorted})
	if err != nil {
		return fmt.Errorf("%w: encoding gc marker: %v", domain.ErrAdapter, err)
	}
	if err := kv.Put(ctx, gcKey(dnsConfigHash), raw); err != nil {
		return fmt.Errorf("%w: writing gc marker: %v", domain.ErrAdapter, err)
	}
	return nil
}

// clearGCMarker deletes the marker. Called once a plan for the same record
// produces a non-empty desired set, consuming the marker on the next
// non-empty cycle per SPEC_FULL.md's supplemented GC contract.
func clearGCMarker(ctx context.Context, kv ports.KVStore, dnsConfigHash string) error {
	if _, err := kv.Delete(ctx, gcKey(dnsConfigHash)); err != nil {
		return fmt.Errorf("%w: clearing gc marker: %v", domain.ErrAdapter, err)
	}
	return nil
}
