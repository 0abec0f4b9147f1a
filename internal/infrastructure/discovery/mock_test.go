package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asgdns/reconciler/internal/core/domain"
)

func TestMockDiscovery_DescribeScalingGroupReturnsMembers(t *testing.T) {
	d := NewMockDiscovery()
	d.PutInstance(domain.Instance{InstanceID: "i-1", SGName: "sg-1"})
	d.PutInstance(domain.Instance{InstanceID: "i-2", SGName: "sg-1"})
	d.PutInstance(domain.Instance{InstanceID: "i-3", SGName: "sg-2"})

	groups, err := d.DescribeScalingGroup(context.Background(), "sg-1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Instances, 2)
}

func TestMockDiscovery_PutInstanceDoesNotDuplicateMembership(t *testing.T) {
	d := NewMockDiscovery()
	d.PutInstance(domain.Instance{InstanceID: "i-1", SGName: "sg-1"})
	d.PutInstance(domain.Instance{InstanceID: "i-1", SGName: "sg-1", InstanceState: "running"})

	groups, err := d.DescribeScalingGroup(context.Background(), "sg-1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Instances, 1)
	assert.Equal(t, "running", groups[0].Instances[0].InstanceState, "re-putting the same instance updates its snapshot")
}

func TestMockDiscovery_DescribeInstancesSkipsUnknownIDs(t *testing.T) {
	d := NewMockDiscovery()
	d.PutInstance(domain.Instance{InstanceID: "i-1"})

	instances, err := d.DescribeInstances(context.Background(), "i-1", "i-missing")
	require.NoError(t, err)
	assert.Len(t, instances, 1)
}
