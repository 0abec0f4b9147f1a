package discovery

import (
	"context"
	"sync"

	"github.com/asgdns/reconciler/internal/core/domain"
)

// MockDiscovery is an in-memory ports.InstanceDiscovery for tests.
type MockDiscovery struct {
	mu        sync.RWMutex
	instances map[string]domain.Instance
	groups    map[string][]string // sg name -> instance ids
}

// NewMockDiscovery constructs an empty MockDiscovery.
func NewMockDiscovery() *MockDiscovery {
	return &MockDiscovery{
		instances: make(map[string]domain.Instance),
		groups:    make(map[string][]string),
	}
}

// PutInstance seeds an instance snapshot and registers it under its
// scaling group's membership list.
func (d *MockDiscovery) PutInstance(inst domain.Instance) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.instances[inst.InstanceID] = inst

	for _, id := range d.groups[inst.SGName] {
		if id == inst.InstanceID {
			return
		}
	}
	d.groups[inst.SGName] = append(d.groups[inst.SGName], inst.InstanceID)
}

func (d *MockDiscovery) DescribeInstances(_ context.Context, ids ...string) ([]domain.Instance, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.Instance, 0, len(ids))
	for _, id := range ids {
		if inst, ok := d.instances[id]; ok {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (d *MockDiscovery) DescribeScalingGroup(ctx context.Context, names ...string) ([]domain.ScalingGroup, error) {
	d.mu.RLock()
	ids := make([][]string, len(names))
	for i, name := range names {
		ids[i] = append([]string(nil), d.groups[name]...)
	}
	d.mu.RUnlock()

	groups := make([]domain.ScalingGroup, 0, len(names))
	for i, name := range names {
		instances, _ := d.DescribeInstances(ctx, ids[i]...)
		groups = append(groups, domain.ScalingGroup{Name: name, Instances: instances})
	}
	return groups, nil
}
