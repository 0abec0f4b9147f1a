// Package dns provides ports.DNSProvider implementations: route53,
// cloudflare, and an in-memory mock used for tests and what_if runs. Each
// adapter embeds a *reconcile.Planner and supplies only the
// provider-specific RecordReader/ApplyChange/wire-format pieces, so the
// change-request algorithm lives only in reconcile.Planner.
package dns

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/ports"
	"github.com/asgdns/reconciler/internal/reconcile"
)

// MockProvider is an in-memory ports.DNSProvider holding one record set per
// "zone|name|type" key.
type MockProvider struct {
	planner *reconcile.Planner

	mu      sync.RWMutex
	records map[string]*ports.ResourceRecordSet
}

// NewMockProvider constructs a MockProvider backed by the given KVStore
// (used only for the GC-marker side effects the Planner performs).
func NewMockProvider(kv ports.KVStore) *MockProvider {
	return &MockProvider{
		planner: reconcile.NewPlanner(kv),
		records: make(map[string]*ports.ResourceRecordSet),
	}
}

func mockKey(zoneID, name string, recordType domain.RecordType) string {
	return zoneID + "|" + name + "|" + string(recordType)
}

func (p *MockProvider) ReadRecord(_ context.Context, zoneID, name string, recordType domain.RecordType) (*ports.ResourceRecordSet, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rr, ok := p.records[mockKey(zoneID, name, recordType)]
	if !ok {
		return nil, nil
	}
	cp := *rr
	cp.Values = append([]string(nil), rr.Values...)
	return &cp, nil
}

func (p *MockProvider) GenerateChangeRequest(ctx context.Context, cmd domain.DnsChangeCommand) (domain.DNSChangeRequest, error) {
	return p.planner.GenerateChangeRequest(ctx, p.ReadRecord, cmd)
}

func (p *MockProvider) ApplyChange(_ context.Context, req domain.DNSChangeRequest) (ports.DNSChangeResponse, error) {
	if err := req.Validate(); err != nil {
		return ports.DNSChangeResponse{Success: false, Message: err.Error()}, err
	}
	if req.Action == domain.ActionIgnore {
		return ports.DNSChangeResponse{Success: true, Message: "ignored"}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	key := mockKey(req.ZoneID, req.RecordName, req.RecordType)

	switch req.Action {
	case domain.ActionDelete:
		delete(p.records, key)
	default: // CREATE, UPDATE
		values := append([]string(nil), req.Values...)
		sort.Strings(values)
		p.records[key] = &ports.ResourceRecordSet{
			Name:   req.RecordName,
			Type:   req.RecordType,
			TTL:    req.TTL,
			Values: values,
		}
	}

	return ports.DNSChangeResponse{Success: true, Message: fmt.Sprintf("applied %s", req.Action)}, nil
}

func (p *MockProvider) NormalizeName(name, zoneID string) string {
	return strings.TrimSuffix(name, ".") + "."
}
