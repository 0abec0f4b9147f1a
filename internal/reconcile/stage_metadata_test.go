package reconcile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/infrastructure/discovery"
	"github.com/asgdns/reconciler/internal/reconcile"
)

func TestStageLoadMetadata_AttachesSnapshotToEveryContext(t *testing.T) {
	event := domain.LifecycleEvent{Transition: domain.TransitionLaunching, InstanceID: "i-1", ScalingGroupName: "sg-1"}
	cfg1 := domain.SGConfiguration{SGName: "sg-1", DNSConfig: domain.DNSRecordConfig{Provider: domain.ProviderMock, ZoneID: "z1", RecordName: "a.example.com", RecordType: domain.RecordTypeA, RecordTTL: 60, Mode: domain.ModeMultivalue, EmptyMode: domain.EmptySetDelete}}
	cfg2 := cfg1
	cfg2.DNSConfig.RecordName = "b.example.com"

	sg := &domain.ScalingGroupLifecycleContext{Event: event, SGConfigurations: []domain.SGConfiguration{cfg1, cfg2}}
	sg.InstanceContexts = reconcile.BuildInstanceContexts(event, sg.SGConfigurations)

	d := discovery.NewMockDiscovery()
	d.PutInstance(domain.Instance{InstanceID: "i-1", Metadata: domain.InstanceMetadata{PrivateIPv4: "10.0.0.1"}})

	stage := reconcile.StageLoadMetadata(d)
	err := stage(context.Background(), sg)
	require.NoError(t, err)

	for _, c := range sg.InstanceContexts {
		require.NotNil(t, c.InstanceModel)
		assert.Equal(t, "10.0.0.1", c.InstanceModel.Metadata.PrivateIPv4)
	}
}

func TestStageLoadMetadata_UnknownInstanceErrors(t *testing.T) {
	event := domain.LifecycleEvent{Transition: domain.TransitionLaunching, InstanceID: "i-missing", ScalingGroupName: "sg-1"}
	sg := &domain.ScalingGroupLifecycleContext{Event: event}

	stage := reconcile.StageLoadMetadata(discovery.NewMockDiscovery())
	err := stage(context.Background(), sg)
	assert.ErrorIs(t, err, domain.ErrAdapter)
}
